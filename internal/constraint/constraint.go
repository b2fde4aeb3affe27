// Package constraint implements the constraint descriptors: typed records
// naming a temporal operator and its targets/activations.
package constraint

import "github.com/encodelab/taenc/internal/cca"

// OperatorType names a metric temporal operator.
type OperatorType int

const (
	Future OperatorType = iota
	Past
	NoOp
	Invariant
	Until
	Since
	UntilChain
)

func (t OperatorType) String() string {
	switch t {
	case Future:
		return "Future"
	case Past:
		return "Past"
	case NoOp:
		return "NoOp"
	case Invariant:
		return "Invariant"
	case Until:
		return "Until"
	case Since:
		return "Since"
	case UntilChain:
		return "UntilChain"
	default:
		return "unknown"
	}
}

// Targets is the set of base-automaton location ids a constraint refers to.
type Targets map[string]bool

// NewTargets builds a Targets set from location ids.
func NewTargets(ids ...string) Targets {
	t := make(Targets, len(ids))
	for _, id := range ids {
		t[id] = true
	}
	return t
}

// Spec bundles a bound with the target location set it is checked against.
type Spec struct {
	Bounds  cca.Bounds
	Targets Targets
}

// ICInfo is the closed sum type over constraint descriptors: Unary, Binary,
// Chain.
type ICInfo interface {
	isICInfo()
	Name() string
}

// Unary is a one-activation constraint: Future, Past, NoOp, or Invariant.
type Unary struct {
	NameStr     string
	Type        OperatorType
	Spec        Spec
	Activations []string // plan-action ids
}

func (Unary) isICInfo()      {}
func (u Unary) Name() string { return u.NameStr }

// Binary is a two-role constraint: Until or Since (declared but, per spec
// §9 Open Questions, the rewriters are unimplemented).
type Binary struct {
	NameStr     string
	Type        OperatorType
	Spec        Spec
	Activations []string
	PreTargets  Targets
}

func (Binary) isICInfo()      {}
func (b Binary) Name() string { return b.NameStr }

// StageSpec is one stage of an UntilChain.
type StageSpec struct {
	Bounds  cca.Bounds
	Targets Targets
}

// Chain is the UntilChain descriptor: a list of stage specs between a start
// and end activation.
type Chain struct {
	NameStr          string
	ActivationsStart []string
	Stages           []StageSpec
	ActivationsEnd   []string
}

func (Chain) isICInfo()      {}
func (c Chain) Name() string { return c.NameStr }
