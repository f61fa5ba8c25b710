package drag

import (
	"testing"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBoard() *store.Store {
	s := store.New()
	s.Load([]domain.Ticket{
		{ID: 1, Name: "Cast nets", Number: 1, State: domain.StateBacklog},
		{ID: 7, Name: "Scale fish", Number: 7, State: domain.StateBacklog},
		{ID: 2, Name: "Bait hooks", Number: 2, State: domain.StateBacklog},
		{ID: 3, Name: "Gut fish", Number: 3, State: domain.StateInProgress},
	})
	return s
}

func statePtr(s domain.TicketState) *domain.TicketState { return &s }

func TestStart(t *testing.T) {
	c := New(createTestBoard())

	_, ok := c.Active()
	assert.False(t, ok)

	require.NoError(t, c.Start(7))
	id, ok := c.Active()
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	origin, _ := c.Origin()
	assert.Equal(t, store.Position{State: domain.StateBacklog, Index: 1}, origin)

	assert.Error(t, c.Start(99))
}

func TestOver_PreviewsWithoutMutation(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))

	require.NoError(t, c.Over(domain.StateInProgress))
	assert.Equal(t, []int{3, 7}, board.BucketIDs(domain.StateInProgress))
	tk, _ := board.Ticket(7)
	assert.Equal(t, domain.StateInProgress, tk.State)

	require.NoError(t, c.Over(domain.StateInProgress), "same bucket is a no-op")
	assert.Equal(t, []int{3, 7}, board.BucketIDs(domain.StateInProgress))

	confirmed, _ := board.Authoritative(7)
	assert.Equal(t, domain.StateBacklog, confirmed)
}

func TestEnd_CrossBucketReturnsMutation(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))
	require.NoError(t, c.Over(domain.StateInProgress))

	m, err := c.End(statePtr(domain.StateInProgress))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 7, m.TicketID)
	assert.Equal(t, domain.StateInProgress, m.State)
	assert.Equal(t, store.Position{State: domain.StateBacklog, Index: 1}, m.Origin)

	_, active := c.Active()
	assert.False(t, active)

	// Rejection puts it back exactly.
	board.ReconcileFailure(*m)
	assert.Equal(t, []int{1, 7, 2}, board.BucketIDs(domain.StateBacklog))
}

func TestEnd_DragBackWhileInFlight(t *testing.T) {
	board := createTestBoard()
	c := New(board)

	require.NoError(t, c.Start(7))
	first, err := c.End(statePtr(domain.StateInProgress))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Dragged back before the first move is answered: the server still
	// has to hear about it.
	require.NoError(t, c.Start(7))
	second, err := c.End(statePtr(domain.StateBacklog))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, domain.StateBacklog, second.State)
	assert.Greater(t, second.Version, first.Version)

	outcome := board.ReconcileSuccess(*first, domain.Ticket{ID: 7, Name: "Scale fish", Number: 7, State: domain.StateInProgress})
	assert.Equal(t, store.OutcomeStale, outcome)
	tk, _ := board.Ticket(7)
	assert.Equal(t, domain.StateBacklog, tk.State, "the older answer does not undo the newer drop")

	outcome = board.ReconcileSuccess(*second, domain.Ticket{ID: 7, Name: "Scale fish", Number: 7, State: domain.StateBacklog})
	assert.Equal(t, store.OutcomeApplied, outcome)
	tk, _ = board.Ticket(7)
	assert.Equal(t, domain.StateBacklog, tk.State)
	assert.Equal(t, 0, board.Pending(7))
}

func TestEnd_SameDropWhileInFlightIsNotResent(t *testing.T) {
	board := createTestBoard()
	c := New(board)

	require.NoError(t, c.Start(7))
	first, err := c.End(statePtr(domain.StateInProgress))
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, c.Start(7))
	again, err := c.End(statePtr(domain.StateInProgress))
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, 1, board.Pending(7))
}

func TestEnd_DropWithoutHover(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(1))

	m, err := c.End(statePtr(domain.StateFinished))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []int{1}, board.BucketIDs(domain.StateFinished))
}

func TestEnd_BackToConfirmedBucket(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))
	require.NoError(t, c.Over(domain.StateReview))
	require.NoError(t, c.Over(domain.StateBacklog))

	m, err := c.End(statePtr(domain.StateBacklog))
	require.NoError(t, err)
	assert.Nil(t, m, "no remote call when the bucket matches the confirmed state")
	tk, _ := board.Ticket(7)
	assert.Equal(t, domain.StateBacklog, tk.State)
}

func TestEnd_NilTargetCancels(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))
	require.NoError(t, c.Over(domain.StateFinished))

	m, err := c.End(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, []int{1, 7, 2}, board.BucketIDs(domain.StateBacklog))
	assert.Empty(t, board.BucketIDs(domain.StateFinished))
}

func TestEnd_WithoutStart(t *testing.T) {
	c := New(createTestBoard())
	_, err := c.End(statePtr(domain.StateBacklog))
	assert.ErrorIs(t, err, ErrNoActiveDrag)
	assert.ErrorIs(t, c.Over(domain.StateBacklog), ErrNoActiveDrag)
	assert.ErrorIs(t, c.Reorder(1), ErrNoActiveDrag)
}

func TestReorder(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(1))

	require.NoError(t, c.Reorder(1))
	assert.Equal(t, []int{7, 1, 2}, board.BucketIDs(domain.StateBacklog))
	require.NoError(t, c.Reorder(5))
	assert.Equal(t, []int{7, 2, 1}, board.BucketIDs(domain.StateBacklog))

	m, err := c.End(statePtr(domain.StateBacklog))
	require.NoError(t, err)
	assert.Nil(t, m, "reordering alone is local")
	assert.Equal(t, []int{7, 2, 1}, board.BucketIDs(domain.StateBacklog))
}

func TestStart_CancelsPreviousDrag(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))
	require.NoError(t, c.Over(domain.StateReview))

	require.NoError(t, c.Start(3))
	assert.Equal(t, []int{1, 7, 2}, board.BucketIDs(domain.StateBacklog))
	id, _ := c.Active()
	assert.Equal(t, 3, id)
}

func TestEnd_UnknownTarget(t *testing.T) {
	board := createTestBoard()
	c := New(board)
	require.NoError(t, c.Start(7))
	require.NoError(t, c.Over(domain.StateReview))

	_, err := c.End(statePtr("archived"))
	assert.ErrorIs(t, err, store.ErrUnknownState)
	assert.Equal(t, []int{1, 7, 2}, board.BucketIDs(domain.StateBacklog))
}
