package restore

import "fmt"

type State string

const (
	StateIdle      State = "IDLE"
	StateRestoring State = "RESTORING"
	StateReady     State = "READY"
)

// Source records where the last applied selection came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceSession  Source = "session"
	SourceFavorite Source = "favorite"
)

type Event string

const (
	// EventBegin starts applying a payload. From RESTORING it supersedes the
	// restore in flight.
	EventBegin Event = "begin"
	// EventSettle ends a restore, whether the apply succeeded or not.
	EventSettle Event = "settle"
	// EventSkip marks a mount that had nothing to restore.
	EventSkip Event = "skip"
	// EventClear resets the section from any state.
	EventClear Event = "clear"
)

var transitions = map[State]map[Event]State{
	StateIdle: {
		EventBegin: StateRestoring,
		EventSkip:  StateReady,
		EventClear: StateReady,
	},
	StateRestoring: {
		EventBegin:  StateRestoring,
		EventSettle: StateReady,
		EventClear:  StateReady,
	},
	StateReady: {
		EventBegin: StateRestoring,
		EventClear: StateReady,
	},
}

// transition is the only place coordinator state changes are decided.
func transition(from State, ev Event) (State, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}
