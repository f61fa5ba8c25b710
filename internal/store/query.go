package store

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fishalchemy/reel/internal/domain"
)

// SortKey selects the field tickets are ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortName
	SortNumber
	SortAssignee
	SortDueDate
	SortState
	SortProject
)

// BoardSortKeys are the keys offered on a project board.
var BoardSortKeys = []SortKey{SortName, SortNumber, SortAssignee, SortDueDate}

// ListSortKeys are the keys offered on the cross-project ticket list.
var ListSortKeys = []SortKey{SortName, SortNumber, SortDueDate, SortState, SortProject}

var sortKeyNames = map[SortKey]string{
	SortNone:     "none",
	SortName:     "name",
	SortNumber:   "number",
	SortAssignee: "assignee",
	SortDueDate:  "due date",
	SortState:    "state",
	SortProject:  "project",
}

func (k SortKey) String() string {
	if name, ok := sortKeyNames[k]; ok {
		return name
	}
	return "SortKey(" + strconv.Itoa(int(k)) + ")"
}

// ParseSortKey maps a key name back to its SortKey.
func ParseSortKey(name string) (SortKey, error) {
	for k, n := range sortKeyNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort key %q", name)
}

// SortTickets orders tickets in place. The ascending order is stable;
// the descending order is its exact reverse, so reversing an ascending
// result always matches a descending sort.
func SortTickets(tickets []domain.Ticket, key SortKey, ascending bool) {
	if key == SortNone {
		if !ascending {
			slices.Reverse(tickets)
		}
		return
	}
	slices.SortStableFunc(tickets, compareBy(key))
	if !ascending {
		slices.Reverse(tickets)
	}
}

func compareBy(key SortKey) func(a, b domain.Ticket) int {
	// Collators keep scratch buffers, so each sort gets its own.
	coll := collate.New(language.English, collate.IgnoreCase)
	switch key {
	case SortName:
		return func(a, b domain.Ticket) int { return coll.CompareString(a.Name, b.Name) }
	case SortNumber:
		return func(a, b domain.Ticket) int { return cmp.Compare(a.Number, b.Number) }
	case SortAssignee:
		return func(a, b domain.Ticket) int { return coll.CompareString(a.Assignee(), b.Assignee()) }
	case SortDueDate:
		return func(a, b domain.Ticket) int {
			// Tickets without a due date trail the dated ones.
			switch az, bz := a.DueDate.IsZero(), b.DueDate.IsZero(); {
			case az && bz:
				return 0
			case az:
				return 1
			case bz:
				return -1
			}
			return a.DueDate.Compare(b.DueDate.Time)
		}
	case SortState:
		return func(a, b domain.Ticket) int { return cmp.Compare(a.State.Index(), b.State.Index()) }
	case SortProject:
		return func(a, b domain.Ticket) int { return coll.CompareString(a.ProjectLabel(), b.ProjectLabel()) }
	}
	return func(a, b domain.Ticket) int { return 0 }
}

// Sort orders every bucket by key.
func (s *Store) Sort(key SortKey, ascending bool) {
	s.sortKey = key
	s.ascending = ascending
	for state, ids := range s.buckets {
		tickets := s.Bucket(state)
		SortTickets(tickets, key, ascending)
		for i, t := range tickets {
			ids[i] = t.ID
		}
	}
}

// Reverse flips every bucket in place and toggles the ascending flag.
func (s *Store) Reverse() {
	for _, ids := range s.buckets {
		slices.Reverse(ids)
	}
	s.ascending = !s.ascending
}

// SortOrder returns the last applied key and direction.
func (s *Store) SortOrder() (SortKey, bool) {
	return s.sortKey, s.ascending
}

// MatchTicket reports whether a ticket satisfies a board search query.
// "#12" matches ticket numbers containing 12; anything else is a
// case-insensitive name search. A blank query matches everything.
func MatchTicket(t domain.Ticket, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	if num, ok := strings.CutPrefix(query, "#"); ok {
		return strings.Contains(strconv.Itoa(t.Number), num)
	}
	return strings.Contains(strings.ToLower(t.Name), strings.ToLower(query))
}

// FilterTickets returns the matching tickets in their original order.
// The input is not modified.
func FilterTickets(tickets []domain.Ticket, query string) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if MatchTicket(t, query) {
			out = append(out, t)
		}
	}
	return out
}

// AssignedTo keeps only tickets assigned to username.
func AssignedTo(tickets []domain.Ticket, username string) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Assignee() == username {
			out = append(out, t)
		}
	}
	return out
}

// Filter returns each bucket's matching tickets in board order.
func (s *Store) Filter(query string) map[domain.TicketState][]domain.Ticket {
	out := make(map[domain.TicketState][]domain.Ticket, len(s.buckets))
	for _, state := range domain.TicketStates {
		out[state] = FilterTickets(s.Bucket(state), query)
	}
	return out
}

// FilterByName is the plain case-insensitive search used by member,
// group and project lists.
func FilterByName[T any](items []T, query string, name func(T) string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if query == "" || strings.Contains(strings.ToLower(name(item)), query) {
			out = append(out, item)
		}
	}
	return out
}
