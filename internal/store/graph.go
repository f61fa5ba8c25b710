package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fishalchemy/reel/internal/domain"
)

var (
	// ErrNodeNotFound indicates the requested node does not exist.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeExists indicates the dependency is already present.
	ErrEdgeExists = errors.New("dependency already exists")
	// ErrEdgeNotFound indicates the dependency is not present.
	ErrEdgeNotFound = errors.New("dependency not found")
)

// EdgeMutation is an optimistic connect or disconnect awaiting the server.
type EdgeMutation struct {
	Edge    domain.Edge
	Version uint64
	Added   bool
}

// NodeMutation is an optimistic node removal awaiting the server.
type NodeMutation struct {
	Node  domain.Node
	Index int
	Edges []domain.Edge
}

// GraphStore mirrors one dependency graph: its nodes in load order and the
// edges between them. An edge From -> To means To depends on From.
type GraphStore struct {
	graph *domain.Graph

	order    []int
	nodes    map[int]*domain.Node
	edges    map[domain.Edge]struct{}
	versions map[domain.Edge]uint64

	// Server view of each edge, as of the newest response in acked.
	confirmed map[domain.Edge]bool
	acked     map[domain.Edge]uint64
	inflight  map[domain.Edge]int
}

// NewGraphStore creates an empty GraphStore.
func NewGraphStore() *GraphStore {
	g := &GraphStore{}
	g.Load(nil)
	return g
}

// SetGraph sets the graph being mirrored.
func (g *GraphStore) SetGraph(graph *domain.Graph) {
	g.graph = graph
}

// Graph returns the graph being mirrored, or nil.
func (g *GraphStore) Graph() *domain.Graph {
	return g.graph
}

// Load replaces all nodes and derives edges from each node's dependencies.
// Dependencies on nodes outside the set are dropped.
func (g *GraphStore) Load(nodes []domain.Node) {
	g.order = make([]int, 0, len(nodes))
	g.nodes = make(map[int]*domain.Node, len(nodes))
	g.edges = make(map[domain.Edge]struct{})
	g.versions = make(map[domain.Edge]uint64)
	g.confirmed = make(map[domain.Edge]bool)
	g.acked = make(map[domain.Edge]uint64)
	g.inflight = make(map[domain.Edge]int)
	for _, n := range nodes {
		n := n
		g.nodes[n.ID] = &n
		g.order = append(g.order, n.ID)
	}
	for _, n := range nodes {
		g.addDependencies(n)
	}
}

// AddNode appends a server-confirmed node.
func (g *GraphStore) AddNode(n domain.Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = &n
	g.addDependencies(n)
}

// UpdateNode overwrites a node's name and description, keeping its edges.
func (g *GraphStore) UpdateNode(n domain.Node) error {
	cur, ok := g.nodes[n.ID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, n.ID)
	}
	cur.Name = n.Name
	cur.Description = n.Description
	return nil
}

// Node returns a node with its dependencies derived from the edge set.
func (g *GraphStore) Node(id int) (domain.Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	out := *n
	out.Dependencies = g.Dependencies(id)
	return out, true
}

// Nodes returns every node in load order.
func (g *GraphStore) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(g.order))
	for _, id := range g.order {
		n, _ := g.Node(id)
		out = append(out, n)
	}
	return out
}

// Edges returns every edge ordered by the dependency's, then the dependent's, position.
func (g *GraphStore) Edges() []domain.Edge {
	var out []domain.Edge
	for _, from := range g.order {
		for _, to := range g.order {
			if g.HasEdge(from, to) {
				out = append(out, domain.Edge{From: from, To: to})
			}
		}
	}
	return out
}

// HasEdge reports whether dependent currently depends on dependency.
func (g *GraphStore) HasEdge(dependency, dependent int) bool {
	_, ok := g.edges[domain.Edge{From: dependency, To: dependent}]
	return ok
}

// Dependencies lists the nodes id depends on.
func (g *GraphStore) Dependencies(id int) []domain.NodeRef {
	var out []domain.NodeRef
	for _, other := range g.order {
		if g.HasEdge(other, id) {
			out = append(out, g.ref(other))
		}
	}
	return out
}

// Dependents lists the nodes that depend on id.
func (g *GraphStore) Dependents(id int) []domain.NodeRef {
	var out []domain.NodeRef
	for _, other := range g.order {
		if g.HasEdge(id, other) {
			out = append(out, g.ref(other))
		}
	}
	return out
}

// Connect optimistically records that dependent depends on dependency.
// Self-edges are allowed here; the server rejects them.
func (g *GraphStore) Connect(dependency, dependent int) (EdgeMutation, error) {
	if err := g.requireNodes(dependency, dependent); err != nil {
		return EdgeMutation{}, err
	}
	e := domain.Edge{From: dependency, To: dependent}
	if _, ok := g.edges[e]; ok {
		return EdgeMutation{}, fmt.Errorf("%w: %d -> %d", ErrEdgeExists, dependency, dependent)
	}
	g.edges[e] = struct{}{}
	g.versions[e]++
	g.inflight[e]++
	return EdgeMutation{Edge: e, Version: g.versions[e], Added: true}, nil
}

// Disconnect optimistically removes a dependency.
func (g *GraphStore) Disconnect(dependency, dependent int) (EdgeMutation, error) {
	e := domain.Edge{From: dependency, To: dependent}
	if _, ok := g.edges[e]; !ok {
		return EdgeMutation{}, fmt.Errorf("%w: %d -> %d", ErrEdgeNotFound, dependency, dependent)
	}
	delete(g.edges, e)
	g.versions[e]++
	g.inflight[e]++
	return EdgeMutation{Edge: e, Version: g.versions[e], Added: false}, nil
}

// Confirm acknowledges a successful edge mutation. A stale success still
// updates the server view, so a later rollback lands where the server is.
func (g *GraphStore) Confirm(m EdgeMutation) Outcome {
	g.settle(m.Edge)
	if m.Version > g.acked[m.Edge] {
		g.acked[m.Edge] = m.Version
		g.confirmed[m.Edge] = m.Added
	}
	if g.versions[m.Edge] != m.Version {
		g.resync(m.Edge)
		return OutcomeStale
	}
	return OutcomeApplied
}

// Revert rolls a rejected edge mutation back to the server's last known
// view of the edge, unless a newer mutation superseded it.
func (g *GraphStore) Revert(m EdgeMutation) Outcome {
	g.settle(m.Edge)
	if g.versions[m.Edge] != m.Version {
		g.resync(m.Edge)
		return OutcomeStale
	}
	if g.confirmed[m.Edge] && g.requireNodes(m.Edge.From, m.Edge.To) != nil {
		return OutcomeUnknown
	}
	g.setEdge(m.Edge, g.confirmed[m.Edge])
	return OutcomeApplied
}

// Confirmed reports whether the server is known to hold the edge.
func (g *GraphStore) Confirmed(dependency, dependent int) bool {
	return g.confirmed[domain.Edge{From: dependency, To: dependent}]
}

func (g *GraphStore) settle(e domain.Edge) {
	if g.inflight[e] > 0 {
		g.inflight[e]--
	}
}

// resync follows the server view once nothing is left in flight for e.
func (g *GraphStore) resync(e domain.Edge) {
	if g.inflight[e] > 0 {
		return
	}
	if g.confirmed[e] && g.requireNodes(e.From, e.To) != nil {
		return
	}
	g.setEdge(e, g.confirmed[e])
}

func (g *GraphStore) setEdge(e domain.Edge, present bool) {
	if present {
		g.edges[e] = struct{}{}
	} else {
		delete(g.edges, e)
	}
}

// RemoveNode optimistically deletes a node with its incident edges.
func (g *GraphStore) RemoveNode(id int) (NodeMutation, error) {
	n, ok := g.nodes[id]
	if !ok {
		return NodeMutation{}, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	m := NodeMutation{Node: *n, Index: slices.Index(g.order, id)}
	for e := range g.edges {
		if e.From == id || e.To == id {
			m.Edges = append(m.Edges, e)
		}
	}
	for _, e := range m.Edges {
		delete(g.edges, e)
		g.versions[e]++
	}
	g.order = slices.Delete(g.order, m.Index, m.Index+1)
	delete(g.nodes, id)
	return m, nil
}

// RevertRemove puts a node back where it was, with the edges whose other
// endpoint still exists.
func (g *GraphStore) RevertRemove(m NodeMutation) {
	if _, ok := g.nodes[m.Node.ID]; ok {
		return
	}
	n := m.Node
	g.nodes[n.ID] = &n
	idx := min(max(m.Index, 0), len(g.order))
	g.order = slices.Insert(g.order, idx, n.ID)
	for _, e := range m.Edges {
		if g.requireNodes(e.From, e.To) == nil {
			g.edges[e] = struct{}{}
			g.versions[e]++
		}
	}
}

// WouldCycle reports whether adding dependency -> dependent closes a cycle.
func (g *GraphStore) WouldCycle(dependency, dependent int) bool {
	if dependency == dependent {
		return true
	}
	seen := map[int]bool{dependent: true}
	queue := []int{dependent}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for e := range g.edges {
			if e.From != cur || seen[e.To] {
				continue
			}
			if e.To == dependency {
				return true
			}
			seen[e.To] = true
			queue = append(queue, e.To)
		}
	}
	return false
}

func (g *GraphStore) addDependencies(n domain.Node) {
	for _, dep := range n.Dependencies {
		if _, ok := g.nodes[dep.ID]; ok {
			e := domain.Edge{From: dep.ID, To: n.ID}
			g.edges[e] = struct{}{}
			g.confirmed[e] = true
		}
	}
}

func (g *GraphStore) requireNodes(ids ...int) error {
	for _, id := range ids {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
		}
	}
	return nil
}

func (g *GraphStore) ref(id int) domain.NodeRef {
	n := g.nodes[id]
	return domain.NodeRef{ID: n.ID, Name: n.Name}
}
