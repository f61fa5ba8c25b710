// Package drag turns pick-up, hover and drop gestures into store moves.
// Hover previews are applied locally right away; only a drop into a bucket
// that differs from the state the server is expected to hold produces a
// mutation to send.
package drag

import (
	"errors"
	"fmt"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/store"
)

// ErrNoActiveDrag is returned by gestures that need a ticket in hand.
var ErrNoActiveDrag = errors.New("no active drag")

// Board is the part of the store the controller drives.
type Board interface {
	Position(id int) (store.Position, error)
	Expected(id int) (domain.TicketState, error)
	ApplyMove(id int, from, to domain.TicketState, position int) error
	Restore(id int, pos store.Position) error
	Begin(id int, origin store.Position) (store.Mutation, error)
	BucketIDs(state domain.TicketState) []int
}

// Controller tracks at most one ticket being dragged.
type Controller struct {
	board  Board
	active bool
	id     int
	origin store.Position
}

// New creates a controller over board.
func New(board Board) *Controller {
	return &Controller{board: board}
}

// Active returns the id of the ticket in hand.
func (c *Controller) Active() (int, bool) {
	return c.id, c.active
}

// Origin returns where the ticket in hand was picked up.
func (c *Controller) Origin() (store.Position, bool) {
	return c.origin, c.active
}

// Start picks up a ticket. A drag already in progress is cancelled first.
func (c *Controller) Start(id int) error {
	if c.active {
		c.Cancel()
	}
	pos, err := c.board.Position(id)
	if err != nil {
		return fmt.Errorf("failed to start drag: %w", err)
	}
	c.active = true
	c.id = id
	c.origin = pos
	return nil
}

// Over previews the ticket at the end of bucket. Hovering the bucket the
// ticket is already in does nothing.
func (c *Controller) Over(bucket domain.TicketState) error {
	if !c.active {
		return ErrNoActiveDrag
	}
	if err := c.over(c.id, bucket); err != nil {
		c.active = false
		return fmt.Errorf("failed to hover: %w", err)
	}
	return nil
}

// Reorder shifts the ticket in hand by delta places within its bucket.
func (c *Controller) Reorder(delta int) error {
	if !c.active {
		return ErrNoActiveDrag
	}
	pos, err := c.board.Position(c.id)
	if err != nil {
		c.active = false
		return fmt.Errorf("failed to reorder: %w", err)
	}
	return c.board.ApplyMove(c.id, pos.State, pos.State, pos.Index+delta)
}

// End drops the ticket. A nil target is a drop outside any bucket and
// restores the ticket to where it was picked up. A drop whose bucket differs
// from what the server will hold once pending moves land returns the
// mutation to persist, so dragging back mid-flight supersedes the first move.
func (c *Controller) End(target *domain.TicketState) (*store.Mutation, error) {
	if !c.active {
		return nil, ErrNoActiveDrag
	}
	if target == nil {
		c.Cancel()
		return nil, nil
	}
	id, origin := c.id, c.origin
	c.active = false

	if err := c.over(id, *target); err != nil {
		_ = c.board.Restore(id, origin)
		return nil, fmt.Errorf("failed to drop: %w", err)
	}
	expected, err := c.board.Expected(id)
	if err != nil {
		return nil, fmt.Errorf("failed to drop: %w", err)
	}
	if expected == *target {
		return nil, nil
	}
	m, err := c.board.Begin(id, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to drop: %w", err)
	}
	return &m, nil
}

// Cancel abandons the drag and puts the ticket back.
func (c *Controller) Cancel() {
	if !c.active {
		return
	}
	c.active = false
	_ = c.board.Restore(c.id, c.origin)
}

func (c *Controller) over(id int, bucket domain.TicketState) error {
	pos, err := c.board.Position(id)
	if err != nil {
		return err
	}
	if pos.State == bucket {
		return nil
	}
	return c.board.ApplyMove(id, pos.State, bucket, len(c.board.BucketIDs(bucket)))
}
