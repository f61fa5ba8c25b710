// Package store holds the client-side mirror of a project's tickets.
// Tickets live in ordered buckets, one per state. Moves are applied
// optimistically and later reconciled against the server's answer using
// per-record versions, so a late response can never undo a newer move.
package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fishalchemy/reel/internal/domain"
)

var (
	// ErrTicketNotFound indicates the requested ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrNotInBucket indicates a move named a source bucket the ticket is not in.
	ErrNotInBucket = errors.New("ticket not in bucket")
	// ErrUnknownState indicates a state outside the four board columns.
	ErrUnknownState = errors.New("unknown ticket state")
)

// Position is a ticket's bucket and index within it.
type Position struct {
	State domain.TicketState
	Index int
}

// Mutation describes one optimistic state change that is waiting on the server.
type Mutation struct {
	TicketID int
	Version  uint64
	Epoch    uint64
	State    domain.TicketState
	Origin   Position
}

// Outcome reports what a reconcile call did.
type Outcome int

const (
	// OutcomeApplied means the response was current and the store was updated.
	OutcomeApplied Outcome = iota
	// OutcomeStale means a newer mutation superseded the response; nothing moved.
	OutcomeStale
	// OutcomeUnknown means the ticket is no longer in the store, or the
	// store was reloaded since the mutation began.
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

type record struct {
	ticket    domain.Ticket
	version   uint64
	acked     uint64
	confirmed domain.TicketState

	// sent is the state of the newest mutation; inflight counts the
	// mutations still waiting on a response.
	sent     domain.TicketState
	inflight int
}

// Store manages the tickets of a single project board.
type Store struct {
	project *domain.Project
	viewer  string

	records map[int]*record
	buckets map[domain.TicketState][]int
	epoch   uint64 // bumped by Clear; versions restart with each epoch

	sortKey   SortKey
	ascending bool
}

// New creates an empty Store.
func New() *Store {
	s := &Store{ascending: true}
	s.Clear()
	return s
}

// SetProject sets the project whose board is mirrored.
func (s *Store) SetProject(project *domain.Project) {
	s.project = project
}

// Project returns the current project, or nil if not set.
func (s *Store) Project() *domain.Project {
	return s.project
}

// SetViewer records the signed-in username for "assigned to me" filtering.
func (s *Store) SetViewer(username string) {
	s.viewer = username
}

// Viewer returns the signed-in username.
func (s *Store) Viewer() string {
	return s.viewer
}

// Load replaces the store contents. Tickets are bucketed by state in input
// order; a state the board does not know lands in the backlog.
func (s *Store) Load(tickets []domain.Ticket) {
	s.Clear()
	for _, t := range tickets {
		s.Add(t)
	}
}

// Add inserts a server-confirmed ticket at the end of its state bucket.
// Adding an id that already exists replaces the record in place.
func (s *Store) Add(t domain.Ticket) {
	if !t.State.Valid() {
		t.State = domain.StateBacklog
	}
	if r, ok := s.records[t.ID]; ok {
		from := r.ticket.State
		r.ticket = t
		r.confirmed = t.State
		if from != t.State {
			s.detach(t.ID, from)
			s.buckets[t.State] = append(s.buckets[t.State], t.ID)
		}
		return
	}
	s.records[t.ID] = &record{ticket: t, confirmed: t.State}
	s.buckets[t.State] = append(s.buckets[t.State], t.ID)
}

// Update overwrites a ticket's fields after a server-confirmed edit. Its
// position is kept unless the state changed.
func (s *Store) Update(t domain.Ticket) error {
	if _, ok := s.records[t.ID]; !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, t.ID)
	}
	s.Add(t)
	return nil
}

// Remove drops a ticket after a server-confirmed delete.
func (s *Store) Remove(id int) error {
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	s.detach(id, r.ticket.State)
	delete(s.records, id)
	return nil
}

// Ticket returns a copy of the ticket with the given id.
func (s *Store) Ticket(id int) (domain.Ticket, error) {
	r, ok := s.records[id]
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	return r.ticket, nil
}

// Len returns the number of tickets in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Bucket returns the tickets of one state in board order.
func (s *Store) Bucket(state domain.TicketState) []domain.Ticket {
	ids := s.buckets[state]
	out := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].ticket)
	}
	return out
}

// BucketIDs returns a copy of one bucket's ticket ids.
func (s *Store) BucketIDs(state domain.TicketState) []int {
	return slices.Clone(s.buckets[state])
}

// Tickets returns every ticket, bucket by bucket in board order.
func (s *Store) Tickets() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(s.records))
	for _, state := range domain.TicketStates {
		out = append(out, s.Bucket(state)...)
	}
	return out
}

// Position returns where a ticket currently sits.
func (s *Store) Position(id int) (Position, error) {
	r, ok := s.records[id]
	if !ok {
		return Position{}, fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	idx := slices.Index(s.buckets[r.ticket.State], id)
	return Position{State: r.ticket.State, Index: idx}, nil
}

// Authoritative returns the last state the server confirmed for a ticket.
func (s *Store) Authoritative(id int) (domain.TicketState, error) {
	r, ok := s.records[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	return r.confirmed, nil
}

// Expected returns the state the server will hold once every mutation in
// flight has landed: the newest sent state, or the confirmed one when
// nothing is outstanding. A drop is only worth sending when it differs.
func (s *Store) Expected(id int) (domain.TicketState, error) {
	r, ok := s.records[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	if r.inflight > 0 {
		return r.sent, nil
	}
	return r.confirmed, nil
}

// Owns reports whether m was begun on the store's current contents.
func (s *Store) Owns(m Mutation) bool {
	return m.Epoch == s.epoch
}

// InFlight counts the mutations across all tickets that await a response.
func (s *Store) InFlight() int {
	n := 0
	for _, r := range s.records {
		n += r.inflight
	}
	return n
}

// Pending reports how many mutations on a ticket await a response.
func (s *Store) Pending(id int) int {
	if r, ok := s.records[id]; ok {
		return r.inflight
	}
	return 0
}

// ApplyMove removes a ticket from one bucket and inserts it into another at
// position, which is clamped to the target bucket's bounds. The ticket's
// state follows the bucket. No version is stamped; see Begin.
func (s *Store) ApplyMove(id int, from, to domain.TicketState, position int) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, to)
	}
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	if r.ticket.State != from || !slices.Contains(s.buckets[from], id) {
		return fmt.Errorf("%w: %d not in %s", ErrNotInBucket, id, from)
	}
	s.place(r, Position{State: to, Index: position})
	return nil
}

// Begin stamps a new version on a ticket whose current bucket is about to be
// sent to the server. Origin is where the ticket sat before the gesture and
// is where a rejection puts it back.
func (s *Store) Begin(id int, origin Position) (Mutation, error) {
	r, ok := s.records[id]
	if !ok {
		return Mutation{}, fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	r.version++
	r.sent = r.ticket.State
	r.inflight++
	return Mutation{
		TicketID: id,
		Version:  r.version,
		Epoch:    s.epoch,
		State:    r.ticket.State,
		Origin:   origin,
	}, nil
}

// ReconcileSuccess applies the server's accepted version of a ticket. Stale
// responses only update the confirmed state; placement is left to the newer
// mutation still in flight.
func (s *Store) ReconcileSuccess(m Mutation, server domain.Ticket) Outcome {
	r, ok := s.records[m.TicketID]
	if !ok || !s.Owns(m) {
		return OutcomeUnknown
	}
	r.settle()
	if server.ID == 0 {
		server = r.ticket
		server.State = m.State
	}
	if !server.State.Valid() {
		server.State = m.State
	}
	if m.Version > r.acked {
		r.acked = m.Version
		r.confirmed = server.State
	}
	if m.Version != r.version {
		return OutcomeStale
	}

	current := r.ticket.State
	idx := slices.Index(s.buckets[current], m.TicketID)
	r.ticket = server
	r.ticket.State = current
	if server.State != current {
		s.place(r, Position{State: server.State, Index: len(s.buckets[server.State])})
	} else if idx < 0 {
		s.buckets[current] = append(s.buckets[current], m.TicketID)
	}
	return OutcomeApplied
}

// ReconcileFailure rolls a rejected mutation back to its origin bucket and
// index. If the server has since confirmed a different state, the ticket
// goes to the head of that bucket instead.
func (s *Store) ReconcileFailure(m Mutation) Outcome {
	r, ok := s.records[m.TicketID]
	if !ok || !s.Owns(m) {
		return OutcomeUnknown
	}
	r.settle()
	if m.Version != r.version {
		return OutcomeStale
	}
	target := m.Origin
	if r.confirmed != target.State {
		target = Position{State: r.confirmed, Index: 0}
	}
	s.place(r, target)
	return OutcomeApplied
}

// Restore puts a ticket back at a position without touching versions. It is
// used to undo local previews that were never sent.
func (s *Store) Restore(id int, pos Position) error {
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, id)
	}
	if !pos.State.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, pos.State)
	}
	s.place(r, pos)
	return nil
}

// Clear empties the store, preserving project and viewer.
func (s *Store) Clear() {
	s.epoch++
	s.records = make(map[int]*record)
	s.buckets = make(map[domain.TicketState][]int, len(domain.TicketStates))
	for _, state := range domain.TicketStates {
		s.buckets[state] = []int{}
	}
}

// Reset returns the store to its initial state.
func (s *Store) Reset() {
	s.project = nil
	s.viewer = ""
	s.sortKey = SortNone
	s.ascending = true
	s.Clear()
}

func (r *record) settle() {
	if r.inflight > 0 {
		r.inflight--
	}
}

// place moves r to pos, clamping the index, and keeps the state field in
// step with the bucket.
func (s *Store) place(r *record, pos Position) {
	id := r.ticket.ID
	s.detach(id, r.ticket.State)
	bucket := s.buckets[pos.State]
	idx := min(max(pos.Index, 0), len(bucket))
	s.buckets[pos.State] = slices.Insert(bucket, idx, id)
	r.ticket.State = pos.State
}

func (s *Store) detach(id int, state domain.TicketState) {
	if i := slices.Index(s.buckets[state], id); i >= 0 {
		s.buckets[state] = slices.Delete(s.buckets[state], i, i+1)
	}
}
