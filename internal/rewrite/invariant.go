package rewrite

import (
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
)

// Invariant restricts the activating timeline's automaton, and every
// inbound cross-timeline transition from the previous timeline, to the
// target location set. Outbound transitions from the activating timeline
// retain arbitrary destinations but their sources must be in the target
// set.
//
// Applying the same invariant twice is idempotent: the second application
// restricts an already-restricted keep set to the same set, a no-op.
func Invariant(st *timeline.Store, paID string, targets constraint.Targets) error {
	if err := rejectQuery(paID); err != nil {
		return err
	}
	sink := st.Diagnostics()
	if !requireKnownPA(st, sink, paID) {
		return nil
	}

	keepBase := targetLocIDs(st, sink, targets)
	keep := qualifiedKeepSet(paID, nil, keepBase)

	entry := st.Entry(paID, "")
	entry.Automaton = ta.FilterAutomaton(entry.Automaton, keep, "", nil)

	var outbound []ta.Transition
	for _, t := range entry.TransOut {
		if keep[t.Src] {
			outbound = append(outbound, t)
		}
	}
	entry.TransOut = outbound

	if prevID, ok := previousPA(st, paID); ok {
		prev := st.Entry(prevID, "")
		var inbound []ta.Transition
		for _, t := range prev.TransOut {
			if keep[t.Dst] {
				inbound = append(inbound, t)
			}
		}
		prev.TransOut = inbound
	}
	return nil
}
