package types

// Event is something the simulation reports from a step.
type Event interface {
	isEvent()
}

// MergeEvent is reported when a merging pair pops. Result is nil when two
// watermelons merge.
type MergeEvent struct {
	Seat   int
	Rank   int
	Result *Fruit
	Points int
}

// DeathEvent is reported when an active fruit crosses the death line.
type DeathEvent struct {
	Seat int
}

// ContactsEndedEvent is reported for every step in which at least one
// contact ended.
type ContactsEndedEvent struct {
	Count int
}

func (MergeEvent) isEvent()         {}
func (DeathEvent) isEvent()         {}
func (ContactsEndedEvent) isEvent() {}
