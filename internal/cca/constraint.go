package cca

import "fmt"

// Constraint is the closed sum type over clock constraints: True,
// Comparison, Difference, Conjunction. It mirrors the teacher's closed
// pattern-element interface (Variable/Blank/concrete value, each offering
// IsVariable()/IsBlank()/String()) rather than open virtual dispatch: a
// private marker method pins the interface to this package, and callers are
// expected to type-switch on the concrete variants.
type Constraint interface {
	// isConstraint is unexported so no type outside this package can
	// satisfy Constraint; callers pattern-match via a type switch.
	isConstraint()
	// String renders the constraint as an XML-escaped infix expression
	// (operators as entities, conjuncts joined by "&amp;&amp;"); the
	// empty string is never returned by a non-True
	// constraint — True itself renders as "1" per the trap-guard
	// convention inherited from the reference encoder.
	String() string
}

// True is the trivially satisfied constraint.
type True struct{}

func (True) isConstraint() {}
func (True) String() string { return "1" }

// Comparison constrains a single clock against a constant: clock op k.
type Comparison struct {
	Clock Clock
	Op    Op
	K     uint64
}

func (Comparison) isConstraint() {}

func (c Comparison) String() string {
	return fmt.Sprintf("%s%s%d", c.Clock.ID, c.Op, c.K)
}

// Difference constrains the difference of two clocks against a constant:
// (c1 - c2) op k.
type Difference struct {
	Minuend    Clock
	Subtrahend Clock
	Op         Op
	K          uint64
}

func (Difference) isConstraint() {}

func (d Difference) String() string {
	return fmt.Sprintf("%s - %s%s%d", d.Minuend.ID, d.Subtrahend.ID, d.Op, d.K)
}

// Conjunction is the right-associative (by construction) but semantically
// commutative-and-associative AND of two constraints.
type Conjunction struct {
	Left  Constraint
	Right Constraint
}

func (Conjunction) isConstraint() {}

func (c Conjunction) String() string {
	return c.Left.String() + " &amp;&amp; " + c.Right.String()
}

// MakeTrue returns the truth constant.
func MakeTrue() Constraint { return True{} }

// MakeComparison builds a single-clock comparison.
func MakeComparison(c Clock, op Op, k uint64) Constraint {
	return Comparison{Clock: c, Op: op, K: k}
}

// MakeDifference builds a clock-difference comparison.
func MakeDifference(minuend, subtrahend Clock, op Op, k uint64) Constraint {
	return Difference{Minuend: minuend, Subtrahend: subtrahend, Op: op, K: k}
}

// MakeConjunction conjoins two constraints, deep-copying both operands so
// the result owns its own structure independent of its inputs.
func MakeConjunction(first, second Constraint) Constraint {
	return Conjunction{Left: DeepCopy(first), Right: DeepCopy(second)}
}

// DeepCopy structurally copies a constraint. Conjunctions copy both
// operands recursively; the leaf variants are value types and are returned
// as-is (copying them is a no-op, but the recursive call keeps the
// invariant explicit at every level).
func DeepCopy(c Constraint) Constraint {
	switch v := c.(type) {
	case Conjunction:
		return Conjunction{Left: DeepCopy(v.Left), Right: DeepCopy(v.Right)}
	case True, Comparison, Difference:
		return v
	default:
		return v
	}
}

// Render renders a constraint to its infix string form. The empty guard
// ("") used on transitions is a distinct convention from True: Render(True{})
// yields "1", matching the reference encoder's literal-true rendering, while
// and_constraints below treats "" (not "1") as the identity for
// guard composition on transitions.
func Render(c Constraint) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// AndConstraints composes two transition guards, where the empty string
// represents the trivially true guard. Returns b if a is empty, a if b is
// empty, else their conjunction rendered as an infix string.
func AndConstraints(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " &amp;&amp; " + b
}
