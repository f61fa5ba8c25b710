package store

import (
	"slices"
	"testing"
	"time"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketIDs(tickets []domain.Ticket) []int {
	ids := make([]int, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}

func due(day int) domain.Timestamp {
	return domain.Timestamp{Time: time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC)}
}

func createSortFixture() []domain.Ticket {
	return []domain.Ticket{
		{ID: 1, Name: "beta", Number: 3, State: domain.StateReview, DueDate: due(4), ProjectName: "Nets", User: &domain.UserRef{Username: "zed"}},
		{ID: 2, Name: "Alpha", Number: 1, State: domain.StateBacklog, ProjectName: "Boats"},
		{ID: 3, Name: "alpha", Number: 2, State: domain.StateFinished, DueDate: due(2), ProjectName: "nets", User: &domain.UserRef{Username: "Amy"}},
		{ID: 4, Name: "Gamma", Number: 12, State: domain.StateBacklog, DueDate: due(2), ProjectName: "Boats", User: &domain.UserRef{Username: "amy"}},
		{ID: 5, Name: "beta", Number: 21, State: domain.StateInProgress, ProjectName: "Anchors"},
	}
}

func TestSortTickets(t *testing.T) {
	cases := []struct {
		key  SortKey
		want []int
	}{
		{SortName, []int{2, 3, 1, 5, 4}},
		{SortNumber, []int{2, 3, 1, 4, 5}},
		{SortAssignee, []int{2, 5, 3, 4, 1}},
		{SortDueDate, []int{3, 4, 1, 2, 5}},
		{SortState, []int{2, 4, 5, 1, 3}},
		{SortProject, []int{5, 2, 4, 1, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.key.String(), func(t *testing.T) {
			tickets := createSortFixture()
			SortTickets(tickets, tc.key, true)
			assert.Equal(t, tc.want, ticketIDs(tickets))
		})
	}
}

func TestSortTickets_ReverseEqualsDescending(t *testing.T) {
	for _, key := range append([]SortKey{SortNone}, ListSortKeys...) {
		t.Run(key.String(), func(t *testing.T) {
			asc := createSortFixture()
			SortTickets(asc, key, true)
			slices.Reverse(asc)

			desc := createSortFixture()
			SortTickets(desc, key, false)

			assert.Equal(t, ticketIDs(desc), ticketIDs(asc))
		})
	}
}

func TestSortTickets_Stable(t *testing.T) {
	tickets := createSortFixture()
	SortTickets(tickets, SortName, true)
	// "Alpha"/"alpha" and "beta"/"beta" tie under case-insensitive collation
	// and must keep their input order.
	assert.Equal(t, []int{2, 3}, ticketIDs(tickets[:2]))
	assert.Equal(t, []int{1, 5}, ticketIDs(tickets[2:4]))
}

func TestStoreSortAndReverse(t *testing.T) {
	s := New()
	s.Load(createSortFixture())

	s.Sort(SortNumber, true)
	assert.Equal(t, []int{2, 4}, bucketIDs(s, domain.StateBacklog))

	s.Reverse()
	assert.Equal(t, []int{4, 2}, bucketIDs(s, domain.StateBacklog))
	key, asc := s.SortOrder()
	assert.Equal(t, SortNumber, key)
	assert.False(t, asc)

	s.Sort(SortNumber, false)
	assert.Equal(t, []int{4, 2}, bucketIDs(s, domain.StateBacklog))
}

func TestMatchTicket(t *testing.T) {
	tk := domain.Ticket{Name: "Scale Fish", Number: 127}

	assert.True(t, MatchTicket(tk, ""))
	assert.True(t, MatchTicket(tk, "   "))
	assert.True(t, MatchTicket(tk, "fish"))
	assert.True(t, MatchTicket(tk, "SCALE"))
	assert.False(t, MatchTicket(tk, "gut"))
	assert.True(t, MatchTicket(tk, "#12"))
	assert.True(t, MatchTicket(tk, "#27"))
	assert.True(t, MatchTicket(tk, "#"))
	assert.False(t, MatchTicket(tk, "#3"))
	assert.False(t, MatchTicket(tk, "127"), "numbers need the # prefix")
}

func TestFilterTickets(t *testing.T) {
	tickets := createSortFixture()
	before := ticketIDs(tickets)

	got := FilterTickets(tickets, "BETA")
	assert.Equal(t, []int{1, 5}, ticketIDs(got))
	assert.Equal(t, before, ticketIDs(tickets), "input untouched")

	t.Run("idempotent", func(t *testing.T) {
		for _, q := range []string{"", "a", "#1", "#2", "gamma", "zzz"} {
			once := FilterTickets(tickets, q)
			twice := FilterTickets(once, q)
			assert.Equal(t, ticketIDs(once), ticketIDs(twice), q)
		}
	})

	t.Run("number search", func(t *testing.T) {
		assert.Equal(t, []int{2, 4, 5}, ticketIDs(FilterTickets(tickets, "#1")))
	})
}

func TestStoreFilter(t *testing.T) {
	s := createTestStore()

	got := s.Filter("fish")
	assert.Equal(t, []int{7}, ticketIDs(got[domain.StateBacklog]))
	assert.Equal(t, []int{3}, ticketIDs(got[domain.StateInProgress]))
	assert.Len(t, got, len(domain.TicketStates))
	assert.Equal(t, 6, s.Len())
}

func TestAssignedTo(t *testing.T) {
	got := AssignedTo(createTestTickets(), "ruth")
	assert.Equal(t, []int{1}, ticketIDs(got))
}

func TestFilterByName(t *testing.T) {
	users := []domain.UserRef{{ID: 1, Username: "Ruth"}, {ID: 2, Username: "ann"}, {ID: 3, Username: "Truthful"}}
	got := FilterByName(users, "RUTH", func(u domain.UserRef) string { return u.Username })
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
	assert.Len(t, FilterByName(users, "", func(u domain.UserRef) string { return u.Username }), 3)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("Due Date")
	require.NoError(t, err)
	assert.Equal(t, SortDueDate, k)
	_, err = ParseSortKey("weight")
	assert.Error(t, err)
	assert.Equal(t, "SortKey(42)", SortKey(42).String())
}
