package ipsolve

import "contactqp/iplog"

// KKTMethod selects which of the three KKT layouts in spec'd section 4.4.1
// BigMat is assembled as. The zero value is KKTAugmented, the documented
// default.
type KKTMethod int

const (
	KKTAugmented KKTMethod = iota
	KKTStandard
	KKTNormal
)

// StartingPointStrategy selects how (x, y, lam) are initialized before the
// first iteration. The zero value is StartNocedal, the documented default.
type StartingPointStrategy int

const (
	StartNocedal StartingPointStrategy = iota
	StartNocedalWarmStart
	StartSTP1
	StartSTP2
)

// Options configures an IpSolver. The zero value is a usable, conservative
// configuration (Augmented layout, plain Nocedal start, fixed eta).
type Options struct {
	KKTMethod KKTMethod

	IterMax int
	RpTol   float64
	RdTol   float64
	MuTol   float64

	EqualStepLength bool
	AdaptiveEta     bool
	OnlyPredict     bool
	WarmStart       bool
	AddCompliance   bool
	SkipContactsUV  bool

	StartingPoint           StartingPointStrategy
	NormalizeConstraintRows bool

	// MaxShifts bounds BigMat's shift-insertion search depth; zero uses
	// csr's own default.
	MaxShifts int

	// Logger receives one Record per iteration. Nil means iplog.Discard.
	Logger iplog.Logger
}

const (
	defaultIterMax = 50
	defaultRpTol   = 1e-9
	defaultRdTol   = 1e-9
	defaultMuTol   = 1e-9
)

func (o Options) withDefaults() Options {
	if o.IterMax <= 0 {
		o.IterMax = defaultIterMax
	}
	if o.RpTol <= 0 {
		o.RpTol = defaultRpTol
	}
	if o.RdTol <= 0 {
		o.RdTol = defaultRdTol
	}
	if o.MuTol <= 0 {
		o.MuTol = defaultMuTol
	}
	if o.Logger == nil {
		o.Logger = iplog.Discard
	}
	return o
}
