package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

// GraphsModel lists a project's dependency graphs and creates, edits and
// deletes them.
type GraphsModel struct {
	client *api.Client
	ctx    context.Context
	logger *slog.Logger

	project domain.Project
	list    list.Model
	form    *FormModel
	confirm *domain.GraphRef // graph awaiting deletion

	width  int
	height int
}

// NewGraphsModel creates the graph list of project.
func NewGraphsModel(project domain.Project, client *api.Client, ctx context.Context, logger *slog.Logger) GraphsModel {
	m := GraphsModel{
		client:  client,
		ctx:     ctx,
		logger:  logger,
		project: project,
		list:    newPicker(project.Name+" · Graphs", nil),
	}
	m.setGraphs(project.Graphs)
	return m
}

func (m *GraphsModel) setGraphs(graphs []domain.GraphRef) {
	m.project.Graphs = graphs
	items := make([]list.Item, len(graphs))
	for i, g := range graphs {
		items[i] = newItem(g, g.Name, fmt.Sprintf("graph %d", g.ID))
	}
	m.list.SetItems(items)
}

func (m GraphsModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m GraphsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-2)
		return m, nil

	case graphSavedMsg:
		g, ok := msg.res.Value()
		if msg.err != nil || !ok {
			if m.form != nil && msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.form = nil
			reportFailure(m.logger, msg.action, msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.form = nil
		m.putGraph(domain.GraphRef{ID: g.ID, Name: g.Name})
		return m, nil

	case graphDeletedMsg:
		if _, ok := msg.res.Value(); msg.err != nil || !ok {
			reportFailure(m.logger, "Could not delete graph", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		kept := slices.DeleteFunc(slices.Clone(m.project.Graphs), func(g domain.GraphRef) bool { return g.ID == msg.id })
		m.setGraphs(kept)
		m.logger.Info("Graph deleted", "graph", msg.id)
		return m, nil

	case formSubmittedMsg:
		return m, m.saveGraph(msg.id, msg.values)

	case graphFetchedMsg:
		// Fills in the description unless the user has started typing it.
		g, ok := msg.res.Value()
		if msg.err != nil || !ok || m.form == nil || m.form.ID() != fmt.Sprintf("graph:%d", g.ID) {
			return m, nil
		}
		if m.form.Value("description") == "" {
			m.form.SetValue("description", g.Description)
		}
		return m, nil

	case formCancelledMsg:
		m.form = nil
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			form, cmd := m.form.Update(msg)
			m.form = &form
			return m, cmd
		}
		if m.confirm != nil {
			g := *m.confirm
			m.confirm = nil
			if msg.String() == "y" || msg.String() == "Y" {
				return m, m.deleteGraph(g.ID)
			}
			return m, nil
		}
		if !filtering(m.list) {
			switch msg.String() {
			case "esc", "backspace", "q":
				return m, func() tea.Msg { return backMsg{} }
			case "n":
				form := NewForm("graph:new", "New graph",
					FormField{Key: "name", Label: "Name"},
					FormField{Key: "description", Label: "Description"},
				)
				m.form = &form
				return m, form.Init()
			case "e":
				if g, ok := selected[domain.GraphRef](m.list); ok {
					return m, m.editGraph(g)
				}
				return m, nil
			case "x":
				if g, ok := selected[domain.GraphRef](m.list); ok {
					m.confirm = &g
				}
				return m, nil
			case "enter":
				if g, ok := selected[domain.GraphRef](m.list); ok {
					return m, func() tea.Msg { return openGraphMsg{graphID: g.ID} }
				}
				return m, nil
			}
		}
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// putGraph replaces the graph with g's id, or appends g.
func (m *GraphsModel) putGraph(g domain.GraphRef) {
	graphs := slices.Clone(m.project.Graphs)
	if i := slices.IndexFunc(graphs, func(cur domain.GraphRef) bool { return cur.ID == g.ID }); i >= 0 {
		graphs[i] = g
	} else {
		graphs = append(graphs, g)
	}
	m.setGraphs(graphs)
}

// editGraph fetches the graph so the form starts from its description,
// which the list does not carry.
func (m *GraphsModel) editGraph(g domain.GraphRef) tea.Cmd {
	form := NewForm(fmt.Sprintf("graph:%d", g.ID), "Edit "+g.Name,
		FormField{Key: "name", Label: "Name", Value: g.Name},
		FormField{Key: "description", Label: "Description"},
	)
	m.form = &form
	client, ctx := m.client, m.ctx
	return tea.Batch(form.Init(), func() tea.Msg {
		res, err := client.GetGraph(ctx, g.ID)
		return graphFetchedMsg{res: res, err: err}
	})
}

// saveGraph creates a graph for the "graph:new" form and updates graph id
// for "graph:<id>".
func (m GraphsModel) saveGraph(formID string, values map[string]string) tea.Cmd {
	client, ctx, pid := m.client, m.ctx, m.project.ID
	req := api.GraphRequest{Name: strings.TrimSpace(values["name"]), Description: values["description"]}
	if formID == "graph:new" {
		return func() tea.Msg {
			res, err := client.CreateGraph(ctx, pid, req)
			return graphSavedMsg{action: "Could not create graph", res: res, err: err}
		}
	}
	var id int
	if _, err := fmt.Sscanf(formID, "graph:%d", &id); err != nil {
		return nil
	}
	return func() tea.Msg {
		res, err := client.UpdateGraph(ctx, id, req)
		return graphSavedMsg{action: "Could not update graph", res: res, err: err}
	}
}

func (m GraphsModel) deleteGraph(id int) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.DeleteGraph(ctx, id)
		return graphDeletedMsg{id: id, res: res, err: err}
	}
}

func (m GraphsModel) View() string {
	if m.form != nil {
		w, h := max(m.width, 40), max(m.height, 10)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.form.View(min(60, w)))
	}
	footer := dimStyle.Render("enter:open n:new graph e:edit x:delete /:search esc:back")
	if m.confirm != nil {
		footer = warningStyle.Render(fmt.Sprintf("Delete %s with all its nodes? [Y]delete [N]cancel", m.confirm.Name))
	}
	return m.list.View() + "\n" + footer
}

type (
	graphSavedMsg struct {
		action string
		res    api.Result[domain.Graph]
		err    error
	}
	graphFetchedMsg struct {
		res api.Result[domain.Graph]
		err error
	}
	graphDeletedMsg struct {
		id  int
		res api.Result[bool]
		err error
	}
)

func (graphSavedMsg) screen() AppScreen   { return ScreenGraphs }
func (graphFetchedMsg) screen() AppScreen { return ScreenGraphs }
func (graphDeletedMsg) screen() AppScreen { return ScreenGraphs }
