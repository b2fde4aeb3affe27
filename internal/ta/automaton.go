// Package ta implements the timed-automaton intermediate representation:
// locations with invariants, transitions with guards/updates/syncs, clock
// and boolean-variable sets, and one distinguished trap sink per automaton.
package ta

import "fmt"

// TrapID is the special sink location id present in every automaton.
const TrapID = "trap"

// Location is (id, invariant, urgent?, initial?). An automaton has at most
// one initial location; urgent forbids time elapse at that location.
type Location struct {
	ID        string
	Invariant string
	Urgent    bool
	Initial   bool
}

// Update is the set of clocks to reset plus optional boolean assignments
// carried by a transition.
type Update struct {
	ResetClocks []string
	BoolAssigns map[string]bool
}

// Transition is (src, dst, action, guard, update, sync, passive?). Sync is
// a channel name (possibly empty); passive marks receive-only
// synchronization.
type Transition struct {
	Src     string
	Dst     string
	Action  string
	Guard   string
	Update  Update
	Sync    string
	Passive bool
}

// Automaton is (locations, transitions, clocks, bool-vars, prefix). There is
// always a distinguished trap location with no outgoing transitions.
type Automaton struct {
	Locations    []Location
	Transitions  []Transition
	Clocks       []string
	BoolVars     []string
	Prefix       string
}

// NewAutomaton builds an automaton from locations and transitions, ensuring
// a trap location exists (appending one with an empty invariant if none of
// the given locations is already named "trap"), matching the reference
// encoder's automaton constructor.
func NewAutomaton(locations []Location, transitions []Transition, prefix string, ensureTrap bool) Automaton {
	locs := make([]Location, len(locations))
	copy(locs, locations)
	if ensureTrap && !hasLocation(locs, TrapID) {
		locs = append(locs, Location{ID: TrapID})
	}
	trans := make([]Transition, len(transitions))
	copy(trans, transitions)
	return Automaton{Locations: locs, Transitions: trans, Prefix: prefix}
}

func hasLocation(locs []Location, id string) bool {
	for _, l := range locs {
		if l.ID == id {
			return true
		}
	}
	return false
}

// FindLocation returns the location with the given id, if present.
func (a Automaton) FindLocation(id string) (Location, bool) {
	for _, l := range a.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// Channel is a synchronization channel: Binary (one sender, one receiver) or
// Broadcast (one sender, any number of receivers).
type ChanType int

const (
	Broadcast ChanType = iota
	Binary
)

type Channel struct {
	Type ChanType
	Name string
}

// Globals is the set of clocks, boolean variables, and channels shared
// across all instances of an AutomataSystem.
type Globals struct {
	Clocks   []string
	BoolVars []string
	Channels []Channel
}

// Instance names one automaton within a system.
type Instance struct {
	Automaton Automaton
	Name      string
}

// AutomataSystem is the full network: named automaton instances plus
// globals.
type AutomataSystem struct {
	Instances []Instance
	Globals   Globals
}

// String gives a compact debugging representation; it is not the
// serializer's output format (that lives in internal/xmlenc).
func (a Automaton) String() string {
	return fmt.Sprintf("Automaton(prefix=%s, locs=%d, trans=%d)", a.Prefix, len(a.Locations), len(a.Transitions))
}
