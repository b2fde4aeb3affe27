package cca

import "math"

// Infinity is the sentinel upper bound representing an unbounded interval.
// It participates in saturating addition (SafeAdd) without overflow.
const Infinity uint64 = math.MaxUint64

// Bounds is a half/fully-open real interval (lower, upper, l_op, r_op) with
// l_op, r_op in {<, <=}. An infinite upper bound is always open: Upper ==
// Infinity implies ROp == LT.
type Bounds struct {
	Lower uint64
	Upper uint64
	LOp   Op
	ROp   Op
}

// NewBounds builds bounds with the reference encoder's default operators:
// LOp is always <=, and ROp is <= unless the upper bound is infinite, in
// which case ROp is forced to <.
func NewBounds(lower, upper uint64) Bounds {
	rop := LTE
	if upper == Infinity {
		rop = LT
	}
	return Bounds{Lower: lower, Upper: upper, LOp: LTE, ROp: rop}
}

// NewBoundsOp builds bounds with explicit operators. Panics if either
// operator is not < or <=, or if an infinite upper bound is paired with a
// closed (<=) right operator — mirroring the reference encoder's
// constructor assertions.
func NewBoundsOp(lower, upper uint64, lop, rop Op) Bounds {
	if lop != LT && lop != LTE {
		panic("cca: bounds l_op must be < or <=")
	}
	if rop != LT && rop != LTE {
		panic("cca: bounds r_op must be < or <=")
	}
	if upper == Infinity && rop != LT {
		panic("cca: an infinite upper bound must be open (<)")
	}
	return Bounds{Lower: lower, Upper: upper, LOp: lop, ROp: rop}
}

// Unbounded returns true if the upper bound is infinite.
func (b Bounds) Unbounded() bool { return b.Upper == Infinity }

// SafeAdd adds two bounds values with saturation at Infinity: it never
// overflows, and adding anything to Infinity yields Infinity.
func SafeAdd(a, b uint64) uint64 {
	if a == Infinity || b == Infinity {
		return Infinity
	}
	sum := a + b
	if sum < a { // overflow wrapped around
		return Infinity
	}
	return sum
}
