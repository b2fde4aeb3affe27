package timeline

import (
	"fmt"
	"sync/atomic"

	"github.com/encodelab/taenc/internal/cca"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
)

// Entry bundles an automaton copy plus its outgoing cross-timeline
// transitions (transitions that leave this timeline to enter another one,
// or the QUERY location).
type Entry struct {
	Automaton ta.Automaton
	TransOut  []ta.Transition
}

// Store is the ordered list of plan-action ids plus the mapping
// pa_id -> (prefix -> Entry). Prefix "" denotes the original, unrewritten
// copy of the base automaton for that plan action. A distinguished
// terminal timeline QueryID holds the accept location.
//
// The store exclusively owns all automata and transitions; callers hold no
// references into it once construction returns.
type Store struct {
	PAOrder []string
	Plan    plan.Plan

	entries map[string]map[string]*Entry

	base        ta.Automaton
	diagnostics *diagnostics.Sink
	fresh       *uint64
}

// New builds a timeline store from the base platform automaton and the
// plan, in one pass: an original copy of base per plan action (linked by
// one copy transition per base location across each plan-action
// boundary), terminated by a
// QUERY location reachable from the last plan action's timeline.
func New(base ta.Automaton, pl plan.Plan) *Store {
	s := &Store{
		Plan:        pl,
		entries:     make(map[string]map[string]*Entry),
		base:        base,
		diagnostics: &diagnostics.Sink{},
		fresh:       new(uint64),
	}

	keepAll := make(map[string]bool, len(base.Locations))
	for _, l := range base.Locations {
		keepAll[l.ID] = true
	}

	for i := 1; i <= pl.Len(); i++ {
		paID := pl.ID(i)
		s.PAOrder = append(s.PAOrder, paID)

		rename := func(id string) string { return LocationID(paID, nil, id) }
		copyTA := ta.FilterAutomaton(base, keepAll, paID, rename)
		copyTA = ta.AddInvariants(copyTA, locIDSet(copyTA), "")

		s.entries[paID] = map[string]*Entry{"": {Automaton: copyTA}}
	}

	s.linkConsecutiveTimelines()
	s.linkFinalTimelineToQuery()
	return s
}

func locIDSet(a ta.Automaton) map[string]bool {
	m := make(map[string]bool, len(a.Locations))
	for _, l := range a.Locations {
		m[l.ID] = true
	}
	return m
}

// linkConsecutiveTimelines lifts each plan-action boundary to a family of
// copy transitions, one per non-trap base location, that reproduce the
// source location in the next plan action's timeline, guarded by that plan
// action's absolute-time bound and resetting the implicit global plan clock.
func (s *Store) linkConsecutiveTimelines() {
	for i := 1; i < len(s.PAOrder); i++ {
		curID, nextID := s.PAOrder[i-1], s.PAOrder[i]
		cur := s.entries[curID][""]

		guard := boundsGuard(s.Plan.Actions[i].AbsoluteTime, GlobalClock)
		for _, l := range s.base.Locations {
			if l.ID == ta.TrapID {
				continue
			}
			src := LocationID(curID, nil, l.ID)
			dst := LocationID(nextID, nil, l.ID)
			cur.TransOut = append(cur.TransOut, ta.Transition{
				Src:   src,
				Dst:   dst,
				Guard: guard,
				Update: ta.Update{ResetClocks: []string{GlobalClock}},
			})
		}
	}
}

// linkFinalTimelineToQuery gives every location in the last plan action's
// timeline an outgoing transition into the single QUERY location, which
// carries no invariants.
func (s *Store) linkFinalTimelineToQuery() {
	if len(s.PAOrder) == 0 {
		return
	}
	lastID := s.PAOrder[len(s.PAOrder)-1]
	last := s.entries[lastID][""]
	for _, l := range s.base.Locations {
		if l.ID == ta.TrapID {
			continue
		}
		src := LocationID(lastID, nil, l.ID)
		last.TransOut = append(last.TransOut, ta.Transition{Src: src, Dst: QueryID})
	}
}

// GlobalClock is the implicit plan clock reset on every plan-action
// boundary transition the store builds and on the copies rewriters make of
// those transitions; UntilChain's stage-to-stage stitching edges reset only
// the chain clock.
const GlobalClock = "GLOBAL_CLOCK"

func boundsGuard(b cca.Bounds, clockID string) string {
	c := cca.NewClock(clockID)
	lower := cca.MakeComparison(c, cca.ReverseOp(b.LOp), b.Lower)
	if b.Unbounded() {
		return cca.Render(lower)
	}
	upper := cca.MakeComparison(c, b.ROp, b.Upper)
	return cca.Render(cca.MakeConjunction(lower, upper))
}

// Entry returns the timeline entry for (paID, prefix), or nil if absent.
func (s *Store) Entry(paID, prefix string) *Entry {
	m, ok := s.entries[paID]
	if !ok {
		return nil
	}
	return m[prefix]
}

// SetEntry installs (or overwrites) the entry at (paID, prefix).
func (s *Store) SetEntry(paID, prefix string, e *Entry) {
	m, ok := s.entries[paID]
	if !ok {
		m = make(map[string]*Entry)
		s.entries[paID] = m
	}
	m[prefix] = e
}

// Prefixes returns every rewrite-operator prefix present for paID,
// including "" for the original copy.
func (s *Store) Prefixes(paID string) []string {
	m, ok := s.entries[paID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	return out
}

// HasPA reports whether paID is known to the store.
func (s *Store) HasPA(paID string) bool {
	_, ok := s.entries[paID]
	return ok
}

// IndexOf returns the 0-based position of paID in PAOrder, or -1.
func (s *Store) IndexOf(paID string) int {
	for i, id := range s.PAOrder {
		if id == paID {
			return i
		}
	}
	return -1
}

// Base returns the base platform automaton the store was built from.
func (s *Store) Base() ta.Automaton { return s.base }

// Diagnostics returns the store's diagnostic sink.
func (s *Store) Diagnostics() *diagnostics.Sink { return s.diagnostics }

// FreshPrefix returns a new, monotonically unique operator-name prefix for
// name, embedding the store's single fresh counter.
func (s *Store) FreshPrefix(name string) string {
	n := atomic.AddUint64(s.fresh, 1)
	return fmt.Sprintf("%s%d", name, n)
}

// AllEntries returns every (paID, prefix, *Entry) triple currently in the
// store, used by the finalizer to flatten the store into one automaton.
func (s *Store) AllEntries() []struct {
	PAID   string
	Prefix string
	Entry  *Entry
} {
	var out []struct {
		PAID   string
		Prefix string
		Entry  *Entry
	}
	for _, paID := range s.PAOrder {
		for prefix, e := range s.entries[paID] {
			out = append(out, struct {
				PAID   string
				Prefix string
				Entry  *Entry
			}{paID, prefix, e})
		}
	}
	return out
}
