package csr

import "golang.org/x/exp/constraints"

// clampAbove returns v if it is already at least floor, otherwise floor.
// Used wherever gap and capacity arithmetic must not go negative, without
// hand-duplicating the same comparison at every call site.
func clampAbove[T constraints.Integer](v, floor T) T {
	if v < floor {
		return floor
	}
	return v
}
