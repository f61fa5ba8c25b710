package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

// AdminModel lists every user and lets an admin create, rename and delete
// accounts.
type AdminModel struct {
	client *api.Client
	ctx    context.Context
	logger *slog.Logger

	users   []domain.User
	list    list.Model
	form    *FormModel
	confirm *domain.User

	width  int
	height int
}

// NewAdminModel creates the user list.
func NewAdminModel(users []domain.User, client *api.Client, ctx context.Context, logger *slog.Logger) AdminModel {
	m := AdminModel{client: client, ctx: ctx, logger: logger, list: newPicker("Users", nil)}
	m.setUsers(users)
	return m
}

func (m *AdminModel) setUsers(users []domain.User) {
	m.users = users
	items := make([]list.Item, len(users))
	for i, u := range users {
		role := u.Role
		if role == "" {
			role = domain.RoleUser
		}
		items[i] = newItem(u, u.Username, fmt.Sprintf("user %d · %s", u.ID, role))
	}
	m.list.SetItems(items)
}

// putUser replaces the user with u's id, or appends u.
func (m *AdminModel) putUser(u domain.User) {
	users := make([]domain.User, 0, len(m.users)+1)
	found := false
	for _, cur := range m.users {
		if cur.ID == u.ID {
			cur, found = u, true
		}
		users = append(users, cur)
	}
	if !found {
		users = append(users, u)
	}
	m.setUsers(users)
}

func (m AdminModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m AdminModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-2)
		return m, nil

	case userDeletedMsg:
		if _, ok := msg.res.Value(); msg.err != nil || !ok {
			reportFailure(m.logger, "Could not delete user", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		kept := make([]domain.User, 0, len(m.users))
		for _, u := range m.users {
			if u.ID != msg.id {
				kept = append(kept, u)
			}
		}
		m.setUsers(kept)
		m.logger.Info("User deleted", "user", msg.id)
		return m, nil

	case userSavedMsg:
		u, ok := msg.res.Value()
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
		m.putUser(u)
		m.logger.Info("User saved", "user", u.ID)
		return m, nil

	case formSubmittedMsg:
		return m, m.saveUser(msg.id, msg.values)

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
			u := *m.confirm
			m.confirm = nil
			if msg.String() == "y" || msg.String() == "Y" {
				return m, m.deleteUser(u.ID)
			}
			return m, nil
		}
		if !filtering(m.list) {
			switch msg.String() {
			case "esc", "backspace", "q":
				return m, func() tea.Msg { return backMsg{} }
			case "x":
				if u, ok := selected[domain.User](m.list); ok {
					m.confirm = &u
				}
				return m, nil
			case "n":
				form := NewForm("user:new", "New user",
					FormField{Key: "username", Label: "Username"},
					FormField{Key: "email", Label: "Email"},
					FormField{Key: "password", Label: "Password", Password: true},
				)
				m.form = &form
				return m, form.Init()
			case "r":
				if u, ok := selected[domain.User](m.list); ok {
					form := NewForm(fmt.Sprintf("user:%d", u.ID), "Rename "+u.Username,
						FormField{Key: "username", Label: "Username", Value: u.Username},
					)
					m.form = &form
					return m, form.Init()
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

// saveUser creates a user for the "user:new" form and renames user id for
// "user:<id>".
func (m AdminModel) saveUser(formID string, values map[string]string) tea.Cmd {
	client, ctx := m.client, m.ctx
	if formID == "user:new" {
		req := api.CreateUserRequest{
			Username: strings.TrimSpace(values["username"]),
			Email:    strings.TrimSpace(values["email"]),
			Password: values["password"],
		}
		return func() tea.Msg {
			res, err := client.CreateUser(ctx, req)
			return userSavedMsg{action: "Could not create user", res: res, err: err}
		}
	}
	var id int
	if _, err := fmt.Sscanf(formID, "user:%d", &id); err != nil {
		return nil
	}
	req := api.RenameUserRequest{Username: strings.TrimSpace(values["username"])}
	return func() tea.Msg {
		res, err := client.RenameUser(ctx, id, req)
		return userSavedMsg{action: "Could not rename user", res: res, err: err}
	}
}

func (m AdminModel) deleteUser(id int) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.DeleteUser(ctx, id)
		return userDeletedMsg{id: id, res: res, err: err}
	}
}

func (m AdminModel) View() string {
	if m.form != nil {
		w, h := max(m.width, 40), max(m.height, 10)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.form.View(min(60, w)))
	}
	footer := dimStyle.Render("n:new user r:rename x:delete user /:search esc:back")
	if m.confirm != nil {
		footer = warningStyle.Render(fmt.Sprintf("Delete %s? This cannot be undone. [Y]delete [N]cancel", m.confirm.Username))
	}
	return m.list.View() + "\n" + footer
}

type (
	userDeletedMsg struct {
		id  int
		res api.Result[bool]
		err error
	}
	userSavedMsg struct {
		action string
		res    api.Result[domain.User]
		err    error
	}
)

func (userDeletedMsg) screen() AppScreen { return ScreenAdmin }
func (userSavedMsg) screen() AppScreen   { return ScreenAdmin }
