package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/access"
	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

type projectMode int

const (
	projectViewing projectMode = iota
	projectEditing
	projectPickingLead
	projectConfirmDelete
)

// ProjectModel shows a project's settings. The lead can edit it, hand it
// to another member or delete it.
type ProjectModel struct {
	client  *api.Client
	ctx     context.Context
	logger  *slog.Logger
	session *session.Session

	project domain.Project
	mode    projectMode
	form    *FormModel
	members list.Model
	loading bool

	width  int
	height int
}

// NewProjectModel creates the settings page of project.
func NewProjectModel(project domain.Project, s *session.Session, client *api.Client, ctx context.Context, logger *slog.Logger) ProjectModel {
	return ProjectModel{
		client:  client,
		ctx:     ctx,
		logger:  logger,
		session: s,
		project: project,
		members: newPicker("New lead", nil),
	}
}

func (m ProjectModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m ProjectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.members.SetSize(msg.Width-2, msg.Height-3)
		return m, nil

	case sessionChangedMsg:
		m.session = msg.session
		return m, nil

	case projectSavedMsg:
		m.loading = false
		p, ok := msg.res.Value()
		if msg.err != nil || !ok {
			if m.mode == projectEditing && m.form != nil && msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.mode, m.form = projectViewing, nil
			reportFailure(m.logger, msg.action, msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.mode, m.form = projectViewing, nil
		m.logger.Info("Project saved", "project", p.ID)
		return m, func() tea.Msg { return projectChangedMsg{project: p} }

	case projectChangedMsg:
		if msg.project.ID == m.project.ID {
			m.project = mergeProject(m.project, msg.project)
		}
		return m, nil

	case leadCandidatesMsg:
		m.loading = false
		users, ok := msg.res.Value()
		if msg.err != nil || !ok {
			m.mode = projectViewing
			reportFailure(m.logger, "Could not load project members", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		items := make([]list.Item, 0, len(users))
		for _, u := range users {
			if m.project.Lead != nil && u.ID == m.project.Lead.ID {
				continue
			}
			items = append(items, newItem(u, u.Username, fmt.Sprintf("user %d", u.ID)))
		}
		cmd := m.members.SetItems(items)
		return m, cmd

	case projectDeletedMsg:
		m.loading = false
		if _, ok := msg.res.Value(); msg.err != nil || !ok {
			reportFailure(m.logger, "Could not delete project", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.logger.Info("Project deleted", "project", m.project.ID)
		id := m.project.ID
		return m, func() tea.Msg { return projectGoneMsg{projectID: id} }

	case formSubmittedMsg:
		return m, m.save(msg.values)

	case formCancelledMsg:
		m.mode, m.form = projectViewing, nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	if m.mode == projectPickingLead {
		var cmd tea.Cmd
		m.members, cmd = m.members.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProjectModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case projectEditing:
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd

	case projectConfirmDelete:
		m.mode = projectViewing
		if msg.String() == "y" || msg.String() == "Y" {
			m.loading = true
			return m, m.delete()
		}
		return m, nil

	case projectPickingLead:
		if !filtering(m.members) {
			switch msg.String() {
			case "esc":
				m.mode = projectViewing
				return m, nil
			case "enter":
				u, ok := selected[domain.UserRef](m.members)
				if !ok {
					return m, nil
				}
				m.mode = projectViewing
				m.loading = true
				return m, m.changeLead(u)
			}
		}
		var cmd tea.Cmd
		m.members, cmd = m.members.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "backspace", "q":
		return m, func() tea.Msg { return backMsg{} }
	case "e", "l", "D":
		if err := access.RequireProjectLead(m.session, m.project); err != nil {
			m.logger.Warn("You are not authorized to perform this action", "reason", err.Error())
			return m, nil
		}
	}
	switch msg.String() {
	case "e":
		p := m.project
		form := NewForm("project:edit", "Edit "+p.Name,
			FormField{Key: "name", Label: "Name", Value: p.Name},
			FormField{Key: "description", Label: "Description", Value: p.Description},
			FormField{Key: "github_url", Label: "GitHub URL", Value: p.GithubURL},
			FormField{Key: "discord_webhook_url", Label: "Discord webhook", Value: p.DiscordWebhookURL},
		)
		m.mode, m.form = projectEditing, &form
		return m, form.Init()
	case "l":
		m.mode = projectPickingLead
		m.loading = true
		m.members.SetItems(nil)
		return m, m.loadMembers()
	case "D":
		m.mode = projectConfirmDelete
	}
	return m, nil
}

func (m ProjectModel) save(values map[string]string) tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.project.ID
	req := api.ProjectRequest{
		Name:              strings.TrimSpace(values["name"]),
		Description:       values["description"],
		GithubURL:         strings.TrimSpace(values["github_url"]),
		DiscordWebhookURL: strings.TrimSpace(values["discord_webhook_url"]),
	}
	return func() tea.Msg {
		res, err := client.UpdateProject(ctx, id, req)
		return projectSavedMsg{action: "Could not update project", res: res, err: err}
	}
}

func (m ProjectModel) changeLead(u domain.UserRef) tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.project.ID
	return func() tea.Msg {
		res, err := client.ChangeProjectLead(ctx, id, u.ID)
		return projectSavedMsg{action: "Could not change lead", res: res, err: err}
	}
}

func (m ProjectModel) loadMembers() tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.project.ID
	return func() tea.Msg {
		res, err := client.ProjectUsers(ctx, id)
		return leadCandidatesMsg{res: res, err: err}
	}
}

func (m ProjectModel) delete() tea.Cmd {
	client, ctx, id := m.client, m.ctx, m.project.ID
	return func() tea.Msg {
		res, err := client.DeleteProject(ctx, id)
		return projectDeletedMsg{res: res, err: err}
	}
}

func (m ProjectModel) View() string {
	w, h := max(m.width, 40), max(m.height, 10)
	switch m.mode {
	case projectEditing:
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.form.View(min(60, w)))
	case projectPickingLead:
		footer := dimStyle.Render("enter:make lead /:search esc:cancel")
		if m.loading {
			footer = dimStyle.Render("Loading members...")
		}
		return m.members.View() + "\n" + footer
	}

	p := m.project
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name) + "\n\n")
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("%-16s", label)) + textStyle.Render(value) + "\n")
	}
	lead := "-"
	if p.Lead != nil {
		lead = p.Lead.Username
	}
	field("Group", p.Group.Name)
	field("Lead", lead)
	field("Tickets", fmt.Sprint(max(p.TicketCount, len(p.Tickets))))
	field("Graphs", fmt.Sprint(len(p.Graphs)))
	field("GitHub", p.GithubURL)
	field("Discord webhook", p.DiscordWebhookURL)
	if p.Description != "" {
		b.WriteString("\n" + textStyle.Render(p.Description) + "\n")
	}

	footer := dimStyle.Render("e:edit l:change lead D:delete project esc:back")
	switch {
	case m.mode == projectConfirmDelete:
		footer = warningStyle.Render(fmt.Sprintf("Delete %s with its tickets and graphs? This cannot be undone. [Y]delete [N]cancel", p.Name))
	case m.loading:
		footer = dimStyle.Render("Saving...")
	}
	return panelStyle.Padding(0, 1).Width(min(w-2, 80)).Render(b.String()) + "\n" + footer
}

// mergeProject applies the settings in next to cur. Tickets and graphs stay
// as cur has them, because settings responses do not always carry them.
func mergeProject(cur, next domain.Project) domain.Project {
	cur.Name = next.Name
	cur.Description = next.Description
	cur.GithubURL = next.GithubURL
	cur.DiscordWebhookURL = next.DiscordWebhookURL
	if next.Lead != nil {
		lead := *next.Lead
		cur.Lead = &lead
	}
	return cur
}

type (
	projectSavedMsg struct {
		action string
		res    api.Result[domain.Project]
		err    error
	}
	projectDeletedMsg struct {
		res api.Result[bool]
		err error
	}
	leadCandidatesMsg struct {
		res api.Result[[]domain.UserRef]
		err error
	}
)

func (projectSavedMsg) screen() AppScreen   { return ScreenProject }
func (projectDeletedMsg) screen() AppScreen { return ScreenProject }
func (leadCandidatesMsg) screen() AppScreen { return ScreenProject }
