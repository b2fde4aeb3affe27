package ta

import "github.com/encodelab/taenc/internal/cca"

// AddInvariants conjoins inv to the invariant of every location whose id
// appears in filter. Locations not named in filter are left untouched.
func AddInvariants(a Automaton, filter map[string]bool, inv string) Automaton {
	out := a
	out.Locations = make([]Location, len(a.Locations))
	for i, l := range a.Locations {
		if filter[l.ID] {
			l.Invariant = cca.AndConstraints(l.Invariant, inv)
		}
		out.Locations[i] = l
	}
	return out
}

// FilterAutomaton produces a copy of a restricted to the locations named in
// keep, dropping any transition that touches a removed location. If rename
// is non-nil, every location id (including inside transitions) is rewritten
// through it; otherwise ids are left as-is. A non-empty newPrefix becomes
// the returned automaton's Prefix field; an empty one keeps a.Prefix.
func FilterAutomaton(a Automaton, keep map[string]bool, newPrefix string, rename func(string) string) Automaton {
	if rename == nil {
		rename = func(id string) string { return id }
	}

	var locs []Location
	for _, l := range a.Locations {
		if !keep[l.ID] {
			continue
		}
		nl := l
		nl.ID = rename(l.ID)
		locs = append(locs, nl)
	}

	var trans []Transition
	for _, t := range a.Transitions {
		if !keep[t.Src] || !keep[t.Dst] {
			continue
		}
		nt := t
		nt.Src = rename(t.Src)
		nt.Dst = rename(t.Dst)
		trans = append(trans, nt)
	}

	prefix := a.Prefix
	if newPrefix != "" {
		prefix = newPrefix
	}
	out := NewAutomaton(locs, trans, prefix, true)
	out.Clocks = append([]string(nil), a.Clocks...)
	out.BoolVars = append([]string(nil), a.BoolVars...)
	return out
}

// MergeAutomata unions the location and transition sets of list (ids are
// assumed unique after prefixing) and records interEdges as additional
// transitions.
func MergeAutomata(list []Automaton, interEdges []Transition, prefix string) Automaton {
	var locs []Location
	var trans []Transition
	seen := map[string]bool{}
	for _, a := range list {
		for _, l := range a.Locations {
			if seen[l.ID] {
				continue
			}
			seen[l.ID] = true
			locs = append(locs, l)
		}
		trans = append(trans, a.Transitions...)
	}
	trans = append(trans, interEdges...)
	return NewAutomaton(locs, trans, prefix, true)
}

// Keep is a convenience constructor for a location-id membership set.
func Keep(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
