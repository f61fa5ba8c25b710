package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/access"
	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
	"github.com/fishalchemy/reel/internal/store"
)

func testUser() domain.User {
	return domain.User{
		ID:       7,
		Username: "ruth",
		Role:     domain.RoleUser,
		Groups:   []domain.GroupRef{{ID: 3, Name: "Anglers", CreatorID: 7}},
	}
}

func newTestApp(t *testing.T, projectFlag int) (AppModel, *recordingHandler) {
	t.Helper()
	client, err := api.New("http://localhost:8000")
	require.NoError(t, err)
	logs := &recordingHandler{}
	sessions := session.NewManager(client, session.NewCache(t.TempDir()), logs.logger())
	m := NewAppModel(client, sessions, store.New(), context.Background(), logs.logger(), 0, projectFlag)
	return m, logs
}

// signedIn lands a fresh app on the home screen.
func signedIn(t *testing.T) (AppModel, *recordingHandler) {
	t.Helper()
	m, logs := newTestApp(t, 0)
	m = step(m, sessionResolvedMsg{session: session.New(testUser())})
	require.Equal(t, ScreenHome, m.Screen())
	return m, logs
}

func step(m AppModel, msg tea.Msg) AppModel {
	model, _ := m.Update(msg)
	return model.(AppModel)
}

// collect runs cmd and any batch it expands to, returning every message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestAppModel_StartsLoading(t *testing.T) {
	m, _ := newTestApp(t, 0)

	assert.Equal(t, ScreenLoading, m.Screen())
	assert.Contains(t, m.View(), "Connecting to http://localhost:8000")
	assert.Equal(t, 0, m.Depth())
}

func TestAppModel_NoSessionShowsLogin(t *testing.T) {
	m, _ := newTestApp(t, 0)

	m = step(m, sessionResolvedMsg{})
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Equal(t, 1, m.Depth())
}

func TestAppModel_ResolveFailureShowsLogin(t *testing.T) {
	m, logs := newTestApp(t, 0)

	m = step(m, sessionResolvedMsg{err: errors.New("dial tcp: connection refused")})
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Could not reach the server.")
	assert.Contains(t, logs.messages(), "Could not verify the session")
}

func TestAppModel_ScreenStack(t *testing.T) {
	m, _ := signedIn(t)

	group := domain.Group{ID: 3, Name: "Anglers", CreatorID: 7, Users: []domain.UserRef{{ID: 7, Username: "ruth"}}}
	m = step(m, groupLoadedMsg{group: group})
	assert.Equal(t, ScreenGroup, m.Screen())

	m = step(m, openDetailMsg{ticket: domain.Ticket{ID: 1, Name: "Mend nets"}})
	assert.Equal(t, ScreenDetail, m.Screen())
	assert.Equal(t, 3, m.Depth())

	m = step(m, backMsg{})
	assert.Equal(t, ScreenGroup, m.Screen())

	m = step(m, openHomeMsg{})
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Equal(t, 1, m.Depth())

	m = step(m, backMsg{})
	assert.Equal(t, ScreenHome, m.Screen(), "the root screen stays")
}

func TestAppModel_RoutesToScreenInHistory(t *testing.T) {
	m, logs := signedIn(t)
	m = step(m, groupLoadedMsg{group: domain.Group{ID: 3, Name: "Anglers"}})
	m = step(m, openDetailMsg{ticket: domain.Ticket{ID: 1, Name: "Mend nets"}})

	p := domain.Project{ID: 5, Name: "Nets"}
	m = step(m, projectCreatedMsg{res: api.Ok(p)})
	assert.Equal(t, ScreenDetail, m.Screen())

	require.Len(t, m.history, 2)
	g := m.history[1].model.(GroupModel)
	assert.Equal(t, []domain.ProjectRef{{ID: 5, Name: "Nets"}}, g.group.Projects)
	assert.Contains(t, logs.messages(), "Project created")
}

func TestAppModel_DropsResponseForClosedScreen(t *testing.T) {
	m, logs := signedIn(t)

	m = step(m, projectCreatedMsg{res: api.Ok(domain.Project{ID: 5})})
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Contains(t, logs.messages(), "Dropped response for a closed screen")
}

func TestAppModel_BroadcastReachesEveryScreen(t *testing.T) {
	m, _ := signedIn(t)
	ticket := domain.Ticket{ID: 1, Number: 1, Name: "Mend nets", State: domain.StateBacklog}
	m = step(m, myTicketsLoadedMsg{tickets: []domain.Ticket{ticket}})
	m = step(m, openDetailMsg{ticket: ticket})

	ticket.Name = "Mend the big net"
	m = step(m, ticketChangedMsg{ticket: ticket})

	list := m.history[1].model.(MyTicketsModel)
	require.Len(t, list.visible, 1)
	assert.Equal(t, "Mend the big net", list.visible[0].Name)
}

func TestAppModel_UnauthorizedReturnsToLogin(t *testing.T) {
	m, _ := signedIn(t)
	m = step(m, groupLoadedMsg{group: domain.Group{ID: 3, Name: "Anglers"}})

	m = step(m, UnauthorizedMsg{})
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Equal(t, 1, m.Depth())
	assert.Contains(t, m.View(), sessionEndedNotice)
	assert.Nil(t, m.sessions.Current())

	m = step(m, UnauthorizedMsg{})
	assert.Equal(t, ScreenLogin, m.Screen())
}

func TestAppModel_Guards(t *testing.T) {
	m, logs := signedIn(t)

	m = step(m, openAdminMsg{})
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Contains(t, logs.messages(), "You are not authorized to view this page")

	model, cmd := m.Update(openGroupMsg{groupID: 99})
	m = model.(AppModel)
	assert.Nil(t, cmd, "no request is sent for a group the user is not in")
	assert.Equal(t, ScreenHome, m.Screen())

	_, cmd = m.Update(openGroupMsg{groupID: 3})
	assert.NotNil(t, cmd)
}

func TestAppModel_GuardWithoutSession(t *testing.T) {
	m, _ := newTestApp(t, 0)
	m = step(m, sessionResolvedMsg{})

	m = step(m, openBoardMsg{projectID: 5})
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Sign in to continue.")
}

func TestAppModel_ProjectFlagOpensBoard(t *testing.T) {
	m, _ := newTestApp(t, 5)

	model, cmd := m.Update(sessionResolvedMsg{session: session.New(testUser())})
	m = model.(AppModel)
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Contains(t, collect(cmd), tea.Msg(openBoardMsg{projectID: 5}))

	// Flags apply to the first landing only.
	_, cmd = m.Update(signedInMsg{session: session.New(testUser())})
	assert.NotContains(t, collect(cmd), tea.Msg(openBoardMsg{projectID: 5}))
}

func TestAppModel_ProjectLoadedFillsStore(t *testing.T) {
	m, _ := signedIn(t)

	p := domain.Project{
		ID:    5,
		Name:  "Nets",
		Group: domain.GroupRef{ID: 3, Name: "Anglers"},
		Tickets: []domain.Ticket{
			{ID: 1, Number: 1, Name: "Mend nets", State: domain.StateBacklog},
			{ID: 2, Number: 2, Name: "Dry nets", State: domain.StateFinished},
		},
	}
	m = step(m, projectLoadedMsg{project: p})
	assert.Equal(t, ScreenBoard, m.Screen())
	require.NotNil(t, m.store.Project())
	assert.Equal(t, "Nets", m.store.Project().Name)
	assert.Len(t, m.store.Tickets(), 2)
	assert.Equal(t, "ruth", m.store.Viewer())
}

func TestAppModel_GraphLoaded(t *testing.T) {
	m, _ := signedIn(t)

	nodes := []domain.Node{{ID: 1, Name: "Catch"}, {ID: 2, Name: "Gut", Dependencies: []domain.NodeRef{{ID: 1}}}}
	m = step(m, graphLoadedMsg{graph: domain.Graph{ID: 8, Name: "Harvest"}, nodes: nodes})
	assert.Equal(t, ScreenGraph, m.Screen())

	g := m.current.model.(GraphModel)
	assert.True(t, g.graph.HasEdge(1, 2))
}

func TestAppModel_ProjectSettings(t *testing.T) {
	m, _ := signedIn(t)
	m = step(m, groupLoadedMsg{group: domain.Group{ID: 3, Name: "Anglers", Projects: []domain.ProjectRef{{ID: 5, Name: "Nets"}}}})
	p := domain.Project{ID: 5, Name: "Nets", Group: domain.GroupRef{ID: 3, Name: "Anglers"}, Lead: &domain.UserRef{ID: 7}}
	m = step(m, projectLoadedMsg{project: p})
	m = step(m, openProjectMsg{project: p})
	assert.Equal(t, ScreenProject, m.Screen())

	p.Name = "Big nets"
	m = step(m, projectChangedMsg{project: p})
	assert.Equal(t, "Big nets", m.store.Project().Name)
	g := m.history[1].model.(GroupModel)
	assert.Equal(t, "Big nets", g.group.Projects[0].Name)

	m = step(m, projectGoneMsg{projectID: 5})
	assert.Equal(t, ScreenGroup, m.Screen(), "the board of a deleted project closes")
	assert.Nil(t, m.store.Project())
	assert.Empty(t, m.current.model.(GroupModel).group.Projects)
}

func TestAppModel_ProjectGoneWithoutGroupScreen(t *testing.T) {
	m, _ := signedIn(t)
	m = step(m, projectLoadedMsg{project: domain.Project{ID: 5, Name: "Nets", Group: domain.GroupRef{ID: 3}}})

	m = step(m, projectGoneMsg{projectID: 5})
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Equal(t, 1, m.Depth())
}

func TestAppModel_GroupLifecycle(t *testing.T) {
	m, _ := signedIn(t)
	m = step(m, groupLoadedMsg{group: domain.Group{ID: 3, Name: "Anglers"}})

	m = step(m, groupRenamedMsg{group: domain.GroupRef{ID: 3, Name: "Deep anglers", CreatorID: 7}})
	require.Len(t, m.session.Groups(), 1)
	assert.Equal(t, "Deep anglers", m.session.Groups()[0].Name)
	assert.Equal(t, ScreenGroup, m.Screen())

	m = step(m, groupGoneMsg{groupID: 3})
	assert.Equal(t, ScreenHome, m.Screen())
	assert.Empty(t, m.session.Groups())
	assert.False(t, m.sessions.Current().InGroup(3))
}

func TestAppModel_OpenFailed(t *testing.T) {
	m, logs := signedIn(t)

	m = step(m, openFailedMsg{what: "Could not open board", err: fmt.Errorf("%w: not a member of group 4", access.ErrForbidden)})
	assert.Contains(t, logs.messages(), "You are not authorized to view this page")

	m = step(m, openFailedMsg{what: "Could not load users", status: 422, message: "bad filter"})
	assert.Contains(t, logs.messages(), "Could not load users")
	assert.Equal(t, ScreenHome, m.Screen())
}

func TestReportFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		err     error
		want    bool
	}{
		{name: "not found is logged by the client", status: 404, message: "Not Found"},
		{name: "validation failure", status: 422, message: "name is required", want: true},
		{name: "server error", err: fmt.Errorf("GET /api/users: %w", api.ErrServer)},
		{name: "transport failure", err: errors.New("connection reset"), want: true},
		{name: "rejected forbidden", err: &api.RejectedError{Status: 403, Errors: []api.FieldError{{Message: "Forbidden"}}}},
		{name: "rejected business rule", err: &api.RejectedError{Status: 400, Errors: []api.FieldError{{Message: "Invalid state"}}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &recordingHandler{}
			reportFailure(logs.logger(), "Could not save", tt.status, tt.message, tt.err)
			if !tt.want {
				assert.Empty(t, logs.messages())
				return
			}
			assert.Equal(t, []string{"Could not save"}, logs.messages())
			assert.Equal(t, []slog.Level{slog.LevelError}, logs.levels())
		})
	}
}

func TestAppScreen_String(t *testing.T) {
	assert.Equal(t, "my tickets", ScreenMyTickets.String())
	assert.Equal(t, "AppScreen(42)", AppScreen(42).String())
}
