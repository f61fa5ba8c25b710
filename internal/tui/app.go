package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/fishalchemy/reel/internal/access"
	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
	"github.com/fishalchemy/reel/internal/store"
)

// AppScreen identifies a page of the application.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenLogin
	ScreenHome
	ScreenGroup
	ScreenBoard
	ScreenProject
	ScreenDetail
	ScreenGraphs
	ScreenGraph
	ScreenMyTickets
	ScreenAdmin
)

var screenNames = map[AppScreen]string{
	ScreenLoading:   "loading",
	ScreenLogin:     "login",
	ScreenHome:      "home",
	ScreenGroup:     "group",
	ScreenBoard:     "board",
	ScreenProject:   "project",
	ScreenDetail:    "detail",
	ScreenGraphs:    "graphs",
	ScreenGraph:     "graph",
	ScreenMyTickets: "my tickets",
	ScreenAdmin:     "admin",
}

func (s AppScreen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AppScreen(%d)", int(s))
}

const sessionEndedNotice = "Your session has ended. Sign in again."

type screenEntry struct {
	screen AppScreen
	model  tea.Model
}

// AppModel is the root Bubble Tea model. It owns the session, keeps a stack
// of open screens and runs the access guards before a screen is pushed.
type AppModel struct {
	client   *api.Client
	sessions *session.Manager
	store    *store.Store
	ctx      context.Context
	logger   *slog.Logger

	// Pre-selected by flags, consumed on the first landing.
	groupFlag   int
	projectFlag int

	session *session.Session
	current screenEntry
	history []screenEntry

	toast   toastState
	loading string

	width  int
	height int
}

// NewAppModel creates the root model. Pass 0 to skip a pre-selection.
func NewAppModel(client *api.Client, sessions *session.Manager, s *store.Store, ctx context.Context, logger *slog.Logger, groupFlag, projectFlag int) AppModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return AppModel{
		client:      client,
		sessions:    sessions,
		store:       s,
		ctx:         ctx,
		logger:      logger,
		groupFlag:   groupFlag,
		projectFlag: projectFlag,
		current:     screenEntry{screen: ScreenLoading},
		loading:     "Connecting to " + client.BaseURL() + "...",
	}
}

// Init verifies the session with the server.
func (m AppModel) Init() tea.Cmd {
	sessions, ctx := m.sessions, m.ctx
	return func() tea.Msg {
		s, err := sessions.Resolve(ctx)
		return sessionResolvedMsg{session: s, err: err}
	}
}

// Screen reports the current screen.
func (m AppModel) Screen() AppScreen {
	return m.current.screen
}

// Depth reports how many screens are open, the current one included.
func (m AppModel) Depth() int {
	if m.current.model == nil {
		return len(m.history)
	}
	return len(m.history) + 1
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, cmd
}

func (m *AppModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(1, msg.Height-1)}
		return m.updateAll(inner)

	case toastMsg:
		return m.toast.show(msg)

	case toastFadeMsg:
		m.toast.fade(msg)
		return nil

	case QuitMsg:
		return tea.Quit

	case sessionResolvedMsg:
		if msg.err != nil {
			reportFailure(m.logger, "Could not verify the session", 0, "", msg.err)
			return m.showLogin("Could not reach the server.")
		}
		if msg.session == nil {
			return m.showLogin("")
		}
		return m.land(msg.session)

	case signedInMsg:
		return m.land(msg.session)

	case UnauthorizedMsg:
		if m.current.screen == ScreenLogin || m.current.screen == ScreenLoading {
			return nil
		}
		m.sessions.Invalidate()
		return m.showLogin(sessionEndedNotice)

	case sessionChangedMsg:
		m.session = msg.session
		m.sessions.Replace(msg.session)
		return m.updateAll(msg)

	case logoutMsg:
		sessions, ctx := m.sessions, m.ctx
		return func() tea.Msg {
			return loggedOutMsg{err: sessions.Logout(ctx)}
		}

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("Signed out locally", "err", msg.err)
		} else {
			m.logger.Info("Signed out")
		}
		return m.showLogin("")

	case openHomeMsg:
		return m.popTo(ScreenHome)

	case openGroupMsg:
		if err := access.RequireInGroup(m.session, msg.groupID); err != nil {
			return m.deny(err)
		}
		m.loading = "Loading group..."
		return m.loadGroup(msg.groupID)

	case openBoardMsg:
		if err := access.RequireSession(m.session); err != nil {
			return m.deny(err)
		}
		m.loading = "Loading board..."
		return m.loadProject(msg.projectID)

	case openProjectMsg:
		return m.push(ScreenProject, NewProjectModel(msg.project, m.session, m.client, m.ctx, m.logger))

	case groupRenamedMsg:
		return m.update(sessionChangedMsg{session: m.session.WithGroup(msg.group)})

	case groupGoneMsg:
		cmd := m.update(sessionChangedMsg{session: m.session.WithoutGroup(msg.groupID)})
		return tea.Batch(cmd, m.popTo(ScreenHome))

	case projectGoneMsg:
		cmd := m.updateAll(msg)
		if p := m.store.Project(); p != nil && p.ID == msg.projectID {
			m.store.SetProject(nil)
			m.store.Clear()
		}
		target := ScreenHome
		if m.isOpen(ScreenGroup) {
			target = ScreenGroup
		}
		return tea.Batch(cmd, m.popTo(target))

	case openDetailMsg:
		return m.push(ScreenDetail, NewDetailModel(msg.ticket, m.client, m.ctx, m.logger))

	case openGraphsMsg:
		return m.push(ScreenGraphs, NewGraphsModel(msg.project, m.client, m.ctx, m.logger))

	case openGraphMsg:
		if err := access.RequireSession(m.session); err != nil {
			return m.deny(err)
		}
		m.loading = "Loading graph..."
		return m.loadGraph(msg.graphID)

	case openMyTicketsMsg:
		if err := access.RequireSession(m.session); err != nil {
			return m.deny(err)
		}
		m.loading = "Loading your tickets..."
		return m.loadMyTickets()

	case openAdminMsg:
		if err := access.RequireAdmin(m.session); err != nil {
			return m.deny(err)
		}
		m.loading = "Loading users..."
		return m.loadUsers()

	case groupLoadedMsg:
		m.loading = ""
		return m.push(ScreenGroup, NewGroupModel(msg.group, m.client, m.ctx, m.logger))

	case projectLoadedMsg:
		m.loading = ""
		p := msg.project
		m.store.SetProject(&p)
		m.store.Load(p.Tickets)
		m.store.SetViewer(m.session.Username())
		return m.push(ScreenBoard, NewBoardModel(m.store, m.client, m.ctx, m.logger))

	case graphLoadedMsg:
		m.loading = ""
		gs := store.NewGraphStore()
		g := msg.graph
		gs.SetGraph(&g)
		gs.Load(msg.nodes)
		return m.push(ScreenGraph, NewGraphModel(gs, m.client, m.ctx, m.logger))

	case myTicketsLoadedMsg:
		m.loading = ""
		return m.push(ScreenMyTickets, NewMyTicketsModel(msg.tickets, m.logger))

	case usersLoadedMsg:
		m.loading = ""
		return m.push(ScreenAdmin, NewAdminModel(msg.users, m.client, m.ctx, m.logger))

	case openFailedMsg:
		m.loading = ""
		if errors.Is(msg.err, access.ErrForbidden) {
			return m.deny(msg.err)
		}
		reportFailure(m.logger, msg.what, msg.status, msg.message, msg.err)
		return nil

	case backMsg:
		return m.pop()

	case broadcastMsg:
		return m.updateAll(msg)

	case routedMsg:
		return m.route(msg)
	}

	return m.updateCurrent(msg)
}

// land shows the home screen for a fresh session, then opens the group or
// project picked by flags.
func (m *AppModel) land(s *session.Session) tea.Cmd {
	m.session = s
	m.store.Reset()
	m.store.SetViewer(s.Username())
	m.history = nil
	m.current = screenEntry{screen: ScreenHome, model: NewHomeModel(s, m.client, m.ctx, m.logger)}
	cmds := []tea.Cmd{m.current.model.Init(), m.sizeCurrent()}

	switch {
	case m.projectFlag > 0:
		id := m.projectFlag
		cmds = append(cmds, func() tea.Msg { return openBoardMsg{projectID: id} })
	case m.groupFlag > 0:
		id := m.groupFlag
		cmds = append(cmds, func() tea.Msg { return openGroupMsg{groupID: id} })
	}
	m.projectFlag, m.groupFlag = 0, 0
	return tea.Batch(cmds...)
}

// showLogin drops every open screen and asks for credentials.
func (m *AppModel) showLogin(notice string) tea.Cmd {
	m.session = nil
	m.store.Reset()
	m.history = nil
	m.loading = ""
	m.current = screenEntry{screen: ScreenLogin, model: NewLoginModel(m.sessions, m.ctx, m.client.BaseURL(), notice)}
	return tea.Batch(m.current.model.Init(), m.sizeCurrent())
}

func (m *AppModel) deny(err error) tea.Cmd {
	m.loading = ""
	if errors.Is(err, session.ErrNoSession) {
		return m.showLogin("Sign in to continue.")
	}
	m.logger.Warn("You are not authorized to view this page", "reason", err.Error())
	return nil
}

func (m *AppModel) push(screen AppScreen, model tea.Model) tea.Cmd {
	if m.current.model != nil {
		m.history = append(m.history, m.current)
	}
	m.current = screenEntry{screen: screen, model: model}
	m.logger.Debug("Opened screen", "screen", screen.String(), "depth", len(m.history)+1)
	return tea.Batch(model.Init(), m.sizeCurrent())
}

func (m *AppModel) pop() tea.Cmd {
	if len(m.history) == 0 {
		return nil
	}
	m.current = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return tea.Batch(m.updateCurrent(resumedMsg{}), m.sizeCurrent())
}

// popTo closes screens until screen is current. Nothing happens when it is not open.
func (m *AppModel) popTo(screen AppScreen) tea.Cmd {
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].screen == screen {
			m.current = m.history[i]
			m.history = m.history[:i]
			return tea.Batch(m.updateCurrent(resumedMsg{}), m.sizeCurrent())
		}
	}
	return nil
}

// isOpen reports whether screen is somewhere below the current one.
func (m *AppModel) isOpen(screen AppScreen) bool {
	for _, e := range m.history {
		if e.screen == screen {
			return true
		}
	}
	return false
}

// sizeCurrent hands the current screen the space above the status line.
func (m *AppModel) sizeCurrent() tea.Cmd {
	if m.width == 0 || m.current.model == nil {
		return nil
	}
	return m.updateCurrent(tea.WindowSizeMsg{Width: m.width, Height: max(1, m.height-1)})
}

func (m *AppModel) updateCurrent(msg tea.Msg) tea.Cmd {
	if m.current.model == nil {
		return nil
	}
	var cmd tea.Cmd
	m.current.model, cmd = m.current.model.Update(msg)
	return cmd
}

func (m *AppModel) updateAll(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.history)+1)
	for i := range m.history {
		var cmd tea.Cmd
		m.history[i].model, cmd = m.history[i].model.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.updateCurrent(msg))
	return tea.Batch(cmds...)
}

// route delivers a response to the newest open screen it belongs to.
// Responses for closed screens are dropped.
func (m *AppModel) route(msg routedMsg) tea.Cmd {
	target := msg.screen()
	if m.current.screen == target {
		return m.updateCurrent(msg)
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].screen == target {
			var cmd tea.Cmd
			m.history[i].model, cmd = m.history[i].model.Update(msg)
			return cmd
		}
	}
	m.logger.Debug("Dropped response for a closed screen", "screen", target.String())
	return nil
}

func (m AppModel) loadGroup(id int) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.GetGroup(ctx, id)
		g, ok := res.Value()
		if err != nil || !ok {
			return failedToOpen("Could not load group", res, err)
		}
		return groupLoadedMsg{group: g}
	}
}

func (m AppModel) loadProject(id int) tea.Cmd {
	client, ctx, s := m.client, m.ctx, m.session
	return func() tea.Msg {
		p, err := access.RequireProjectAccess(ctx, client, s, id)
		if err != nil {
			return openFailedMsg{what: "Could not open board", err: err}
		}
		return projectLoadedMsg{project: p}
	}
}

// loadGraph checks access, then fetches the graph and its nodes together.
func (m AppModel) loadGraph(id int) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if err := access.RequireGraphAccess(ctx, client, id); err != nil {
			return openFailedMsg{what: "Could not open graph", err: err}
		}
		var (
			graph domain.Graph
			nodes []domain.Node
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			res, err := client.GetGraph(gctx, id)
			if err != nil {
				return err
			}
			graph, err = res.Unwrap()
			return err
		})
		g.Go(func() error {
			res, err := client.GraphNodes(gctx, id)
			if err != nil {
				return err
			}
			nodes, err = res.Unwrap()
			return err
		})
		if err := g.Wait(); err != nil {
			return openFailedMsg{what: "Could not load graph", err: err}
		}
		return graphLoadedMsg{graph: graph, nodes: nodes}
	}
}

func (m AppModel) loadMyTickets() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.CurrentUser(ctx)
		u, ok := res.Value()
		if err != nil || !ok {
			return failedToOpen("Could not load your tickets", res, err)
		}
		return myTicketsLoadedMsg{tickets: u.Tickets}
	}
}

func (m AppModel) loadUsers() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.ListUsers(ctx)
		users, ok := res.Value()
		if err != nil || !ok {
			return failedToOpen("Could not load users", res, err)
		}
		return usersLoadedMsg{users: users}
	}
}

func failedToOpen[T any](what string, res api.Result[T], err error) openFailedMsg {
	return openFailedMsg{what: what, status: res.Status(), message: res.Message(), err: err}
}

// View renders the current screen above a one-line status bar.
func (m AppModel) View() string {
	body := m.loading
	if m.current.model != nil {
		body = m.current.model.View()
	}
	return body + "\n" + m.status()
}

func (m AppModel) status() string {
	if s := m.toast.view(m.width); s != "" {
		return s
	}
	if m.loading != "" && m.current.model != nil {
		return dimStyle.Render(m.loading)
	}
	return ""
}

// reportFailure logs a failed request unless the client already did. The
// client reports transport failures and 5xx itself, along with 401, 403
// and 404; what is left are rejections the user should see.
func reportFailure(logger *slog.Logger, what string, status int, message string, err error) {
	if errors.Is(err, api.ErrServer) {
		return
	}
	if err != nil {
		var rej *api.RejectedError
		if !errors.As(err, &rej) {
			logger.Error(what, "err", err)
			return
		}
		status, message = rej.Status, joinMessages(rej.Errors)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return
	}
	logger.Error(what, "reason", message)
}

func joinMessages(errs []api.FieldError) string {
	return api.Fail[struct{}](0, errs...).Message()
}

type (
	sessionResolvedMsg struct {
		session *session.Session
		err     error
	}
	loggedOutMsg       struct{ err error }
	groupLoadedMsg     struct{ group domain.Group }
	projectLoadedMsg   struct{ project domain.Project }
	myTicketsLoadedMsg struct{ tickets []domain.Ticket }
	usersLoadedMsg     struct{ users []domain.User }
	graphLoadedMsg     struct {
		graph domain.Graph
		nodes []domain.Node
	}
	openFailedMsg struct {
		what    string
		status  int
		message string
		err     error
	}
)
