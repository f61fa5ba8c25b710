package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/store"
)

type graphMode int

const (
	graphBrowsing graphMode = iota
	graphConnecting
	graphDisconnecting
	graphConfirmDelete
)

var graphPanelStyle = panelStyle.Padding(0, 1)

// GraphModel edits one dependency graph. Edge and node removals apply
// locally first and are reverted when the server rejects them.
type GraphModel struct {
	client *api.Client
	ctx    context.Context
	logger *slog.Logger
	graph  *store.GraphStore

	mode   graphMode
	cursor int // index into the node list
	target int // index of the connect or disconnect candidate
	form   *FormModel

	width  int
	height int
}

// NewGraphModel creates the editor over a loaded graph store.
func NewGraphModel(gs *store.GraphStore, client *api.Client, ctx context.Context, logger *slog.Logger) GraphModel {
	return GraphModel{client: client, ctx: ctx, logger: logger, graph: gs}
}

func (m GraphModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m GraphModel) selectedNode() (domain.Node, bool) {
	nodes := m.graph.Nodes()
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return domain.Node{}, false
	}
	return nodes[m.cursor], true
}

func (m *GraphModel) clamp() {
	n := len(m.graph.Nodes())
	m.cursor = max(0, min(m.cursor, n-1))
}

func (m GraphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case edgeMutatedMsg:
		_, ok := msg.res.Value()
		edge := msg.mutation.Edge
		if msg.err == nil && ok {
			if m.graph.Confirm(msg.mutation) == store.OutcomeStale {
				m.logger.Debug("Superseded dependency change confirmed", "from", edge.From, "to", edge.To)
			}
			return m, nil
		}
		if m.graph.Revert(msg.mutation) == store.OutcomeApplied {
			m.logger.Debug("Reverted dependency change", "from", edge.From, "to", edge.To)
		}
		what := "Could not connect nodes"
		if !msg.mutation.Added {
			what = "Could not disconnect nodes"
		}
		reportFailure(m.logger, what, msg.res.Status(), msg.res.Message(), msg.err)
		return m, nil

	case nodeRemovedMsg:
		_, ok := msg.res.Value()
		if msg.err == nil && ok {
			return m, nil
		}
		m.graph.RevertRemove(msg.mutation)
		reportFailure(m.logger, "Could not delete node", msg.res.Status(), msg.res.Message(), msg.err)
		return m, nil

	case nodeSavedMsg:
		n, ok := msg.res.Value()
		if msg.err != nil || !ok {
			if m.form != nil && msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.form = nil
			reportFailure(m.logger, "Could not save node", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.form = nil
		if msg.created {
			m.graph.AddNode(n)
			m.cursor = len(m.graph.Nodes()) - 1
		} else if err := m.graph.UpdateNode(n); err != nil {
			m.logger.Debug("Renamed node is gone", "node", n.ID)
		}
		return m, nil

	case formSubmittedMsg:
		return m, m.saveNode(msg.id, msg.values)

	case formCancelledMsg:
		m.form = nil
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			form, cmd := m.form.Update(msg)
			m.form = &form
			return m, cmd
		}
		switch m.mode {
		case graphConnecting, graphDisconnecting:
			return m.handlePickKeys(msg)
		case graphConfirmDelete:
			m.mode = graphBrowsing
			if msg.String() == "y" || msg.String() == "Y" {
				cmd := m.removeNode()
				return m, cmd
			}
			return m, nil
		}
		return m.handleKeyPress(msg)
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	return m, nil
}

func (m GraphModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.graph.Nodes())
	switch msg.String() {
	case "esc", "backspace", "q":
		return m, func() tea.Msg { return backMsg{} }
	case "j", "down":
		if m.cursor < count-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, count-1)
	case "n":
		form := NewForm("node:new", "New node",
			FormField{Key: "name", Label: "Name"},
			FormField{Key: "description", Label: "Description"},
		)
		m.form = &form
		return m, form.Init()
	case "e":
		if n, ok := m.selectedNode(); ok {
			form := NewForm(fmt.Sprintf("node:%d", n.ID), "Edit node",
				FormField{Key: "name", Label: "Name", Value: n.Name},
				FormField{Key: "description", Label: "Description", Value: n.Description},
			)
			m.form = &form
			return m, form.Init()
		}
	case "c":
		if count > 1 {
			m.mode = graphConnecting
			m.target = 0
		}
	case "d":
		if n, ok := m.selectedNode(); ok && len(n.Dependencies) > 0 {
			m.mode = graphDisconnecting
			m.target = 0
		}
	case "x":
		if _, ok := m.selectedNode(); ok {
			m.mode = graphConfirmDelete
		}
	}
	return m, nil
}

// candidates lists what the pick modes choose from: every other node when
// connecting, the selected node's dependencies when disconnecting.
func (m GraphModel) candidates() []domain.NodeRef {
	n, ok := m.selectedNode()
	if !ok {
		return nil
	}
	if m.mode == graphDisconnecting {
		return n.Dependencies
	}
	var out []domain.NodeRef
	for _, other := range m.graph.Nodes() {
		if other.ID != n.ID {
			out = append(out, domain.NodeRef{ID: other.ID, Name: other.Name})
		}
	}
	return out
}

func (m GraphModel) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := m.candidates()
	switch msg.String() {
	case "esc":
		m.mode = graphBrowsing
	case "j", "down":
		if m.target < len(options)-1 {
			m.target++
		}
	case "k", "up":
		if m.target > 0 {
			m.target--
		}
	case "enter":
		mode := m.mode
		m.mode = graphBrowsing
		n, ok := m.selectedNode()
		if !ok || m.target >= len(options) {
			return m, nil
		}
		dep := options[m.target]
		if mode == graphConnecting {
			return m, m.connect(dep.ID, n.ID)
		}
		return m, m.disconnect(dep.ID, n.ID)
	}
	return m, nil
}

func (m GraphModel) connect(dependency, dependent int) tea.Cmd {
	if m.graph.WouldCycle(dependency, dependent) {
		m.logger.Warn("This dependency creates a cycle")
	}
	mut, err := m.graph.Connect(dependency, dependent)
	if err != nil {
		m.logger.Warn("Could not connect nodes", "err", err)
		return nil
	}
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.ConnectNodes(ctx, dependent, dependency)
		return edgeMutatedMsg{mutation: mut, res: api.Acknowledged(res), err: err}
	}
}

func (m GraphModel) disconnect(dependency, dependent int) tea.Cmd {
	mut, err := m.graph.Disconnect(dependency, dependent)
	if err != nil {
		m.logger.Warn("Could not disconnect nodes", "err", err)
		return nil
	}
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.DisconnectNodes(ctx, dependent, dependency)
		return edgeMutatedMsg{mutation: mut, res: res, err: err}
	}
}

func (m *GraphModel) removeNode() tea.Cmd {
	n, ok := m.selectedNode()
	if !ok {
		return nil
	}
	mut, err := m.graph.RemoveNode(n.ID)
	if err != nil {
		m.logger.Warn("Could not delete node", "err", err)
		return nil
	}
	m.clamp()
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.DeleteNode(ctx, n.ID)
		return nodeRemovedMsg{mutation: mut, res: res, err: err}
	}
}

func (m GraphModel) saveNode(formID string, values map[string]string) tea.Cmd {
	req := api.NodeRequest{Name: strings.TrimSpace(values["name"]), Description: values["description"]}
	client, ctx := m.client, m.ctx
	if formID == "node:new" {
		g := m.graph.Graph()
		if g == nil {
			return nil
		}
		gid := g.ID
		return func() tea.Msg {
			res, err := client.CreateNode(ctx, gid, req)
			return nodeSavedMsg{created: true, res: res, err: err}
		}
	}
	var id int
	if _, err := fmt.Sscanf(formID, "node:%d", &id); err != nil {
		return nil
	}
	return func() tea.Msg {
		res, err := client.UpdateNode(ctx, id, req)
		return nodeSavedMsg{res: res, err: err}
	}
}

func (m GraphModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	if m.form != nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.form.View(min(60, width)))
	}

	title := "Graph"
	if g := m.graph.Graph(); g != nil {
		title = g.Name
	}
	header := titleStyle.Render(title) + dimStyle.Render(fmt.Sprintf("  %d nodes · %d edges", len(m.graph.Nodes()), len(m.graph.Edges())))

	leftWidth := max(20, width/3)
	rightWidth := max(20, width-leftWidth-6)
	bodyHeight := max(3, height-4)

	left := graphPanelStyle.Width(leftWidth).Height(bodyHeight).Render(m.renderNodes(leftWidth, bodyHeight))
	right := graphPanelStyle.Width(rightWidth).Height(bodyHeight).Render(m.renderSelected(rightWidth))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.footer(),
	)
}

func (m GraphModel) renderNodes(width, height int) string {
	nodes := m.graph.Nodes()
	if len(nodes) == 0 {
		return dimStyle.Render("No nodes yet. Press n to add one.")
	}
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	var lines []string
	for i := start; i < len(nodes) && i < start+height; i++ {
		text := truncate(nodes[i].Name, width-2)
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("> "+text))
		} else {
			lines = append(lines, textStyle.Render("  "+text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m GraphModel) renderSelected(width int) string {
	n, ok := m.selectedNode()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(n.Name))
	b.WriteString("\n")
	if n.Description != "" {
		b.WriteString(n.Description)
		b.WriteString("\n")
	}

	picking := m.mode == graphConnecting || m.mode == graphDisconnecting
	if picking {
		label := "Depend on:"
		if m.mode == graphDisconnecting {
			label = "Stop depending on:"
		}
		b.WriteString("\n" + detailLabelStyle.Render(label) + "\n")
		for i, c := range m.candidates() {
			text := truncate(c.Name, width-4)
			if i == m.target {
				b.WriteString(selectedStyle.Render("> "+text) + "\n")
			} else {
				b.WriteString("  " + text + "\n")
			}
		}
		return b.String()
	}

	b.WriteString("\n" + detailLabelStyle.Render("Depends on:") + "\n")
	b.WriteString(refList(n.Dependencies, width))
	b.WriteString("\n" + detailLabelStyle.Render("Needed by:") + "\n")
	b.WriteString(refList(m.graph.Dependents(n.ID), width))
	return b.String()
}

func refList(refs []domain.NodeRef, width int) string {
	if len(refs) == 0 {
		return dimStyle.Render("  none") + "\n"
	}
	var b strings.Builder
	for _, r := range refs {
		b.WriteString("  • " + truncate(r.Name, width-6) + "\n")
	}
	return b.String()
}

func (m GraphModel) footer() string {
	switch m.mode {
	case graphConnecting, graphDisconnecting:
		return dimStyle.Render("j/k:choose enter:confirm esc:cancel")
	case graphConfirmDelete:
		if n, ok := m.selectedNode(); ok {
			return warningStyle.Render(fmt.Sprintf("Delete %s? [Y]delete [N]cancel", n.Name))
		}
	}
	return dimStyle.Render("j/k:move n:new e:edit c:connect d:disconnect x:delete esc:back")
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}

type (
	edgeMutatedMsg struct {
		mutation store.EdgeMutation
		res      api.Result[bool]
		err      error
	}
	nodeRemovedMsg struct {
		mutation store.NodeMutation
		res      api.Result[bool]
		err      error
	}
	nodeSavedMsg struct {
		created bool
		res     api.Result[domain.Node]
		err     error
	}
)

func (edgeMutatedMsg) screen() AppScreen { return ScreenGraph }
func (nodeRemovedMsg) screen() AppScreen { return ScreenGraph }
func (nodeSavedMsg) screen() AppScreen   { return ScreenGraph }
