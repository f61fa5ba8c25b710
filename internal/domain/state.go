package domain

import "fmt"

// TicketState is the board column a ticket lives in.
type TicketState string

const (
	StateBacklog    TicketState = "backlog"
	StateInProgress TicketState = "inprogress"
	StateReview     TicketState = "review"
	StateFinished   TicketState = "finished"
)

// TicketStates lists every state in board order.
var TicketStates = []TicketState{StateBacklog, StateInProgress, StateReview, StateFinished}

var stateTitles = map[TicketState]string{
	StateBacklog:    "To Do",
	StateInProgress: "In Progress",
	StateReview:     "In Review",
	StateFinished:   "Finished",
}

// Title returns the column heading for the state.
func (s TicketState) Title() string {
	if title, ok := stateTitles[s]; ok {
		return title
	}
	return string(s)
}

// Valid reports whether s is one of the known states.
func (s TicketState) Valid() bool {
	_, ok := stateTitles[s]
	return ok
}

// Index returns the board position of the state, or -1 if unknown.
func (s TicketState) Index() int {
	for i, st := range TicketStates {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseTicketState accepts either the wire value or the column title.
func ParseTicketState(v string) (TicketState, error) {
	for _, st := range TicketStates {
		if string(st) == v || st.Title() == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown ticket state %q", v)
}
