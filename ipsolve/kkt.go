package ipsolve

import "contactqp/csr"

// kktLayout is a tagged-variant dispatch for the three KKT formulations in
// spec'd section 4.4.1: each variant knows its own BigMat shape, sparsity
// pattern, static block values, per-iteration diagonal refresh, RHS
// construction and step extraction, so the outer predictor-corrector loop
// in solver.go never branches on the layout itself.
type kktLayout interface {
	size(n, m int) int
	pattern(l *csr.SparsityLearner, s *IpSolver)
	fillStatic(s *IpSolver)
	refreshDiagonal(s *IpSolver)
	buildRHS(s *IpSolver, sigma float64, corrector bool)
	extract(s *IpSolver)
	negAtBlock(n, m int) (rowStart, rowEnd, colStart, colEnd int)
}

func layoutFor(method KKTMethod) (kktLayout, error) {
	switch method {
	case KKTAugmented:
		return augmentedLayout{}, nil
	case KKTStandard:
		return standardLayout{}, nil
	case KKTNormal:
		return nil, ErrUnsupported
	default:
		return nil, ErrUnsupported
	}
}

// makePositiveDefinite flips the sign of the stored -Aᵀ block in place,
// turning it into +Aᵀ once BigMat has been fully assembled. Grounded on
// make_positive_definite: the Nocedal KKT sign convention and the
// descriptor's own are reconciled once, right after assembly. With +Aᵀ in
// place the system is solved for -Δlam, so every layout stores the other
// entries of its lam column negated (fillStatic, refreshDiagonal) and
// extract negates that block of the solution back into Dlam.
func makePositiveDefinite(m *csr.Matrix, rowStart, rowEnd, colStart, colEnd int) {
	m.ForEachExistentValueInRange(rowStart, rowEnd, colStart, colEnd, func(_, _ int, v *float64) {
		*v = -*v
	})
}

// augmentedLayout is the default (n+m)x(n+m) layout:
//
//	[ G        -Aᵀ       ]
//	[ A    diag(y/lam)+E ]
type augmentedLayout struct{}

func (augmentedLayout) size(n, m int) int { return n + m }

func (augmentedLayout) pattern(l *csr.SparsityLearner, s *IpSolver) {
	n := s.n
	s.G.ForEachExistentValue(func(r, c int, _ *float64) { l.Record(r, c) })
	s.A.ForEachExistentValue(func(j, r int, _ *float64) {
		l.Record(n+j, r)
		l.Record(r, n+j)
	})
	for i := 0; i < s.m; i++ {
		l.Record(n+i, n+i)
	}
	if s.E != nil {
		s.E.ForEachExistentValue(func(r, c int, _ *float64) {
			l.Record(n+r, n+c)
		})
	}
}

func (augmentedLayout) fillStatic(s *IpSolver) {
	n := s.n
	s.G.ForEachExistentValue(func(r, c int, v *float64) {
		s.BigMat.SetElement(r, c, *v, true)
	})
	s.A.ForEachExistentValue(func(j, r int, v *float64) {
		s.BigMat.SetElement(n+j, r, *v, true)
		s.BigMat.SetElement(r, n+j, -*v, true)
	})
	for i := range s.EDiag {
		s.EDiag[i] = 0
	}
	if s.E != nil {
		s.E.ForEachExistentValue(func(r, c int, v *float64) {
			if r == c {
				s.EDiag[r] = *v
				return
			}
			s.BigMat.SetElement(n+r, n+c, -*v, true)
		})
	}
}

func (augmentedLayout) refreshDiagonal(s *IpSolver) {
	n := s.n
	for i := 0; i < s.m; i++ {
		s.BigMat.SetElement(n+i, n+i, -(s.y[i]/s.lam[i] + s.EDiag[i]), true)
	}
}

func (augmentedLayout) buildRHS(s *IpSolver, sigma float64, corrector bool) {
	_ = corrector
	for i := 0; i < s.n; i++ {
		s.rhsSol[i] = -s.rd[i]
	}
	for i := 0; i < s.m; i++ {
		s.rhsSol[s.n+i] = -s.rp[i] - s.y[i] + sigma*s.mu/s.lam[i]
	}
}

func (augmentedLayout) extract(s *IpSolver) {
	copy(s.Dx, s.rhsSol[0:s.n])
	for i := range s.Dlam {
		s.Dlam[i] = -s.rhsSol[s.n+i]
	}
	s.A.MatMultiply(s.Dx, s.Dy)
	for i := range s.Dy {
		s.Dy[i] += s.rp[i]
	}
	if s.E != nil {
		s.E.MatMultiply(s.Dlam, s.vectm)
		for i := range s.Dy {
			s.Dy[i] += s.vectm[i]
		}
	}
}

func (augmentedLayout) negAtBlock(n, m int) (int, int, int, int) {
	return 0, n, n, n + m
}

// standardLayout is the (n+2m)x(n+2m) layout:
//
//	[ G    0    -Aᵀ ]
//	[ A   -I     0  ]
//	[ 0   Λ      Y  ]
type standardLayout struct{}

func (standardLayout) size(n, m int) int { return n + 2*m }

func (standardLayout) pattern(l *csr.SparsityLearner, s *IpSolver) {
	n, m := s.n, s.m
	s.G.ForEachExistentValue(func(r, c int, _ *float64) { l.Record(r, c) })
	s.A.ForEachExistentValue(func(j, r int, _ *float64) {
		l.Record(n+j, r)
		l.Record(r, n+m+j)
	})
	for i := 0; i < m; i++ {
		l.Record(n+i, n+i)
		l.Record(n+m+i, n+i)
		l.Record(n+m+i, n+m+i)
	}
}

func (standardLayout) fillStatic(s *IpSolver) {
	n, m := s.n, s.m
	s.G.ForEachExistentValue(func(r, c int, v *float64) {
		s.BigMat.SetElement(r, c, *v, true)
	})
	s.A.ForEachExistentValue(func(j, r int, v *float64) {
		s.BigMat.SetElement(n+j, r, *v, true)
		s.BigMat.SetElement(r, n+m+j, -*v, true)
	})
	for i := 0; i < m; i++ {
		s.BigMat.SetElement(n+i, n+i, -1, true)
	}
}

func (standardLayout) refreshDiagonal(s *IpSolver) {
	n, m := s.n, s.m
	for i := 0; i < m; i++ {
		s.BigMat.SetElement(n+m+i, n+i, s.lam[i], true)
		s.BigMat.SetElement(n+m+i, n+m+i, -s.y[i], true)
	}
}

func (standardLayout) buildRHS(s *IpSolver, sigma float64, corrector bool) {
	for i := 0; i < s.n; i++ {
		s.rhsSol[i] = -s.rd[i]
	}
	for i := 0; i < s.m; i++ {
		s.rhsSol[s.n+i] = -s.rp[i]
	}
	off := s.n + s.m
	for i := 0; i < s.m; i++ {
		rpd := s.y[i] * s.lam[i]
		if corrector {
			rpd += s.Dy[i]*s.Dlam[i] - sigma*s.mu
		}
		s.rhsSol[off+i] = -rpd
	}
}

func (standardLayout) extract(s *IpSolver) {
	n, m := s.n, s.m
	copy(s.Dx, s.rhsSol[0:n])
	copy(s.Dy, s.rhsSol[n:n+m])
	for i := range s.Dlam {
		s.Dlam[i] = -s.rhsSol[n+m+i]
	}
}

func (standardLayout) negAtBlock(n, m int) (int, int, int, int) {
	return 0, n, n + m, n + 2*m
}
