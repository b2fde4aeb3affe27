package cca

// Clock is a named real-valued variable, monotonic between resets. Clocks
// are shared by identity: two Clock values with the same ID denote the same
// physical clock when embedded in different constraints.
type Clock struct {
	ID string
}

// NewClock returns a clock with the given identifier.
func NewClock(id string) Clock {
	return Clock{ID: id}
}
