package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/session"
)

// LoginModel asks for a username and password.
type LoginModel struct {
	sessions *session.Manager
	ctx      context.Context
	form     FormModel
	server   string

	width  int
	height int
}

// NewLoginModel creates the login screen. notice is shown above the form,
// e.g. after the server ended the session.
func NewLoginModel(sessions *session.Manager, ctx context.Context, server, notice string) LoginModel {
	form := NewForm("login", "Sign in",
		FormField{Key: "username", Label: "Username"},
		FormField{Key: "password", Label: "Password", Password: true},
	)
	if notice != "" {
		form.SetErrors([]api.FieldError{{Message: notice}})
	}
	return LoginModel{sessions: sessions, ctx: ctx, form: form, server: server}
}

func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), tea.WindowSize())
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case formSubmittedMsg:
		return m, m.login(msg.values["username"], msg.values["password"])

	case formCancelledMsg:
		return m, func() tea.Msg { return QuitMsg{} }

	case loginFailedMsg:
		var rej *api.RejectedError
		if errors.As(msg.err, &rej) {
			m.form.SetErrors(rej.Errors)
			return m, nil
		}
		m.form.SetErrors([]api.FieldError{{Message: msg.err.Error()}})
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m LoginModel) login(username, password string) tea.Cmd {
	sessions, ctx := m.sessions, m.ctx
	username = strings.TrimSpace(username)
	return func() tea.Msg {
		s, err := sessions.Login(ctx, username, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return signedInMsg{session: s}
	}
}

func (m LoginModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.form.View(min(50, width)),
		dimStyle.Render(m.server),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

type (
	loginFailedMsg struct{ err error }
	signedInMsg    struct{ session *session.Session }
)

func (loginFailedMsg) screen() AppScreen { return ScreenLogin }
