// Package plan implements the plan model: an ordered sequence of plan
// actions, each with a parameterized name, a duration bound, and an
// absolute-time bound.
package plan

import (
	"strconv"
	"strings"

	"github.com/encodelab/taenc/internal/cca"
)

// VarPrefix is the sigil marking an action-name argument as a pattern
// variable (spec §6 VAR_PREFIX).
const VarPrefix = "?"

// PASep separates an action's op from its plan index in a plan-action id
// (spec §6: "pick::3").
const PASep = "::"

// ActionName is (op, args); an arg starting with VarPrefix is a pattern
// variable.
type ActionName struct {
	Op   string
	Args []string
}

// IsPatternVar reports whether arg is a pattern variable.
func IsPatternVar(arg string) bool {
	return strings.HasPrefix(arg, VarPrefix)
}

// Ground substitutes concreteArgs positionally for the pattern variables in
// the action name, returning a fully concrete ActionName. Non-variable args
// are left untouched; concreteArgs is consumed left to right across the
// variable positions only.
func (n ActionName) Ground(concreteArgs []string) ActionName {
	out := ActionName{Op: n.Op, Args: make([]string, len(n.Args))}
	vi := 0
	for i, a := range n.Args {
		if IsPatternVar(a) && vi < len(concreteArgs) {
			out.Args[i] = concreteArgs[vi]
			vi++
		} else {
			out.Args[i] = a
		}
	}
	return out
}

// String renders "op(arg1,arg2,...)".
func (n ActionName) String() string {
	return n.Op + "(" + strings.Join(n.Args, ",") + ")"
}

// Action is a timed, parametric step of the plan.
type Action struct {
	Name           ActionName
	Duration       cca.Bounds
	AbsoluteTime   cca.Bounds
	DelayTolerance cca.Bounds
}

// Plan is the ordered sequence of actions, 1-indexed conceptually; position
// 0 and len(Actions)+1 are the implicit start/end markers.
type Plan struct {
	Actions []Action
}

// Len returns the number of actions in the plan.
func (p Plan) Len() int { return len(p.Actions) }

// ID returns the canonical plan-action id for the 1-based index i:
// "<op>::<index>".
func (p Plan) ID(i int) string {
	return p.Actions[i-1].Name.Op + PASep + strconv.Itoa(i)
}

// ParsePAIndex extracts the 1-based index from a plan-action id produced by
// ID, or ok=false if the id is malformed.
func ParsePAIndex(id string) (idx int, ok bool) {
	i := strings.LastIndex(id, PASep)
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+len(PASep):])
	if err != nil {
		return 0, false
	}
	return n, true
}

const (
	StartPA = "START_PA"
	EndPA   = "END_PA"
)
