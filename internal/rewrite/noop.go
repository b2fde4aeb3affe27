package rewrite

import (
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
)

// NoOp is identical to Invariant on the inbound side; the activating
// timeline's automaton and outbound transitions are left untouched.
// Semantically it asserts "at the activation, state in targets" without
// further constraining subsequent behaviour.
func NoOp(st *timeline.Store, paID string, targets constraint.Targets) error {
	if err := rejectQuery(paID); err != nil {
		return err
	}
	sink := st.Diagnostics()
	if !requireKnownPA(st, sink, paID) {
		return nil
	}

	keepBase := targetLocIDs(st, sink, targets)
	keep := qualifiedKeepSet(paID, nil, keepBase)

	prevID, ok := previousPA(st, paID)
	if !ok {
		return nil
	}
	prev := st.Entry(prevID, "")
	var inbound []ta.Transition
	for _, t := range prev.TransOut {
		if keep[t.Dst] {
			inbound = append(inbound, t)
		}
	}
	prev.TransOut = inbound
	return nil
}
