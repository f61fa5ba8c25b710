package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

type groupTab int

const (
	groupProjects groupTab = iota
	groupMembers
)

// GroupModel shows a group's projects and members. Tab switches lists.
// The group itself can be renamed or deleted from here.
type GroupModel struct {
	client *api.Client
	ctx    context.Context
	logger *slog.Logger

	group    domain.Group
	projects list.Model
	members  list.Model
	tab      groupTab
	form     *FormModel
	confirm  *domain.UserRef // member awaiting removal
	deleting bool            // group delete awaiting confirmation

	width  int
	height int
}

// NewGroupModel creates the page for a loaded group.
func NewGroupModel(g domain.Group, client *api.Client, ctx context.Context, logger *slog.Logger) GroupModel {
	m := GroupModel{
		client:   client,
		ctx:      ctx,
		logger:   logger,
		projects: newPicker("Projects", nil),
		members:  newPicker("Members", nil),
	}
	m.setGroup(g)
	return m
}

func (m *GroupModel) setGroup(g domain.Group) {
	m.group = g
	projects := make([]list.Item, len(g.Projects))
	for i, p := range g.Projects {
		projects[i] = newItem(p, p.Name, fmt.Sprintf("project %d", p.ID))
	}
	m.projects.SetItems(projects)
	m.projects.Title = g.Name + " · Projects"

	members := make([]list.Item, len(g.Users))
	for i, u := range g.Users {
		desc := fmt.Sprintf("user %d", u.ID)
		if u.ID == g.CreatorID {
			desc += " · creator"
		}
		members[i] = newItem(u, u.Username, desc)
	}
	m.members.SetItems(members)
	m.members.Title = g.Name + " · Members"
}

func (m *GroupModel) active() *list.Model {
	if m.tab == groupMembers {
		return &m.members
	}
	return &m.projects
}

func (m GroupModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m GroupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.projects.SetSize(msg.Width-2, msg.Height-3)
		m.members.SetSize(msg.Width-2, msg.Height-3)
		return m, nil

	case groupUpdatedMsg:
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
		renamed := g.Name != m.group.Name
		m.setGroup(g)
		if renamed {
			m.logger.Info("Group renamed", "group", g.ID)
			ref := g.Ref()
			return m, func() tea.Msg { return groupRenamedMsg{group: ref} }
		}
		return m, nil

	case groupDeletedMsg:
		if _, ok := msg.res.Value(); msg.err != nil || !ok {
			reportFailure(m.logger, "Could not delete group", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.logger.Info("Group deleted", "group", m.group.ID)
		id := m.group.ID
		return m, func() tea.Msg { return groupGoneMsg{groupID: id} }

	case projectChangedMsg:
		g := m.group
		g.Projects = slices.Clone(g.Projects)
		for i, p := range g.Projects {
			if p.ID == msg.project.ID {
				g.Projects[i] = msg.project.Ref()
			}
		}
		m.setGroup(g)
		return m, nil

	case projectGoneMsg:
		g := m.group
		g.Projects = slices.DeleteFunc(slices.Clone(g.Projects), func(p domain.ProjectRef) bool { return p.ID == msg.projectID })
		m.setGroup(g)
		return m, nil

	case projectCreatedMsg:
		p, ok := msg.res.Value()
		if msg.err != nil || !ok {
			if m.form != nil && msg.err == nil {
				m.form.SetErrors(msg.res.Errors())
				return m, nil
			}
			m.form = nil
			reportFailure(m.logger, "Could not create project", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.form = nil
		g := m.group
		g.Projects = append(g.Projects, p.Ref())
		m.setGroup(g)
		m.logger.Info("Project created", "project", p.ID)
		return m, nil

	case formSubmittedMsg:
		switch msg.id {
		case "project":
			return m, m.createProject(msg.values)
		case "rename":
			req := api.GroupRequest{Name: strings.TrimSpace(msg.values["name"])}
			return m, m.mutate("Could not rename group", func(ctx context.Context, c *api.Client, gid int) (api.Result[domain.Group], error) {
				return c.RenameGroup(ctx, gid, req)
			})
		case "member":
			id, err := strconv.Atoi(strings.TrimSpace(msg.values["user_id"]))
			if err != nil || id <= 0 {
				if m.form != nil {
					m.form.SetErrors([]api.FieldError{{Property: "user_id", Message: "Enter a user id."}})
				}
				return m, nil
			}
			return m, m.mutate("Could not add member", func(ctx context.Context, c *api.Client, gid int) (api.Result[domain.Group], error) {
				return c.AddGroupMember(ctx, gid, id)
			})
		}
		return m, nil

	case formCancelledMsg:
		m.form = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	var cmd tea.Cmd
	l := m.active()
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m GroupModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	if m.confirm != nil {
		u := *m.confirm
		m.confirm = nil
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.mutate("Could not remove member", func(ctx context.Context, c *api.Client, gid int) (api.Result[domain.Group], error) {
				return c.RemoveGroupMember(ctx, gid, u.ID)
			})
		}
		return m, nil
	}
	if m.deleting {
		m.deleting = false
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.deleteGroup()
		}
		return m, nil
	}

	l := m.active()
	if !filtering(*l) {
		switch msg.String() {
		case "esc", "backspace", "q":
			return m, func() tea.Msg { return backMsg{} }
		case "tab":
			m.tab = 1 - m.tab
			return m, nil
		case "n":
			form := NewForm("project", "New project",
				FormField{Key: "name", Label: "Name"},
				FormField{Key: "description", Label: "Description"},
				FormField{Key: "github_url", Label: "GitHub URL"},
				FormField{Key: "discord_webhook_url", Label: "Discord webhook"},
			)
			m.form = &form
			return m, form.Init()
		case "r":
			form := NewForm("rename", "Rename group", FormField{Key: "name", Label: "Name", Value: m.group.Name})
			m.form = &form
			return m, form.Init()
		case "D":
			m.deleting = true
			return m, nil
		case "a":
			form := NewForm("member", "Add member", FormField{Key: "user_id", Label: "User id"})
			m.form = &form
			return m, form.Init()
		case "x":
			if m.tab == groupMembers {
				if u, ok := selected[domain.UserRef](m.members); ok {
					m.confirm = &u
				}
			}
			return m, nil
		case "enter":
			if m.tab == groupProjects {
				if p, ok := selected[domain.ProjectRef](m.projects); ok {
					return m, func() tea.Msg { return openBoardMsg{projectID: p.ID} }
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m GroupModel) createProject(values map[string]string) tea.Cmd {
	client, ctx, gid := m.client, m.ctx, m.group.ID
	req := api.ProjectRequest{
		Name:              strings.TrimSpace(values["name"]),
		Description:       values["description"],
		GithubURL:         strings.TrimSpace(values["github_url"]),
		DiscordWebhookURL: strings.TrimSpace(values["discord_webhook_url"]),
	}
	return func() tea.Msg {
		res, err := client.CreateProject(ctx, gid, req)
		return projectCreatedMsg{res: res, err: err}
	}
}

func (m GroupModel) mutate(action string, call func(context.Context, *api.Client, int) (api.Result[domain.Group], error)) tea.Cmd {
	client, ctx, gid := m.client, m.ctx, m.group.ID
	return func() tea.Msg {
		res, err := call(ctx, client, gid)
		return groupUpdatedMsg{action: action, res: res, err: err}
	}
}

func (m GroupModel) deleteGroup() tea.Cmd {
	client, ctx, gid := m.client, m.ctx, m.group.ID
	return func() tea.Msg {
		res, err := client.DeleteGroup(ctx, gid)
		return groupDeletedMsg{res: res, err: err}
	}
}

func (m GroupModel) View() string {
	if m.form != nil {
		w, h := max(m.width, 40), max(m.height, 10)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.form.View(min(60, w)))
	}
	tabs := []string{"Projects", "Members"}
	for i := range tabs {
		if groupTab(i) == m.tab {
			tabs[i] = selectedStyle.Render("[" + tabs[i] + "]")
		} else {
			tabs[i] = dimStyle.Render(" " + tabs[i] + " ")
		}
	}
	var footer string
	switch {
	case m.deleting:
		footer = warningStyle.Render(fmt.Sprintf("Delete %s with all its projects? This cannot be undone. [Y]delete [N]cancel", m.group.Name))
	case m.confirm != nil:
		footer = warningStyle.Render(fmt.Sprintf("Remove %s from %s? [Y]remove [N]cancel", m.confirm.Username, m.group.Name))
	case m.tab == groupMembers:
		footer = dimStyle.Render("tab:projects a:add member x:remove /:search esc:back")
	default:
		footer = dimStyle.Render("tab:members enter:board n:new project r:rename D:delete group /:search esc:back")
	}
	return strings.Join(tabs, " ") + "\n" + m.active().View() + "\n" + footer
}

type (
	groupUpdatedMsg struct {
		action string
		res    api.Result[domain.Group]
		err    error
	}
	groupDeletedMsg struct {
		res api.Result[bool]
		err error
	}
	projectCreatedMsg struct {
		res api.Result[domain.Project]
		err error
	}
)

func (groupUpdatedMsg) screen() AppScreen   { return ScreenGroup }
func (groupDeletedMsg) screen() AppScreen   { return ScreenGroup }
func (projectCreatedMsg) screen() AppScreen { return ScreenGroup }
