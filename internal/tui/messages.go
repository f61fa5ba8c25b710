// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import (
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// UnauthorizedMsg is sent by the API client's 401 hook. The app drops the
// session and returns to the login screen.
type UnauthorizedMsg struct{}

// Navigation requests. Screens emit them and the app resolves guards and
// loads data before switching.
type (
	openHomeMsg      struct{}
	openGroupMsg     struct{ groupID int }
	openBoardMsg     struct{ projectID int }
	openProjectMsg   struct{ project domain.Project }
	openDetailMsg    struct{ ticket domain.Ticket }
	openGraphsMsg    struct{ project domain.Project }
	openGraphMsg     struct{ graphID int }
	openMyTicketsMsg struct{}
	openAdminMsg     struct{}
	backMsg          struct{}
	logoutMsg        struct{}
)

// sessionChangedMsg reports a new session, e.g. after login or group creation.
type sessionChangedMsg struct {
	session *session.Session
}

// resumedMsg is delivered to a screen when it becomes current again.
type resumedMsg struct{}

// routedMsg is a response that belongs to a specific screen even when the
// user has navigated away from it.
type routedMsg interface {
	screen() AppScreen
}

// broadcastMsg is delivered to every open screen, e.g. a ticket edit that
// the board, the list it was opened from and the detail view all show.
type broadcastMsg interface {
	broadcast()
}

type (
	ticketChangedMsg struct{ ticket domain.Ticket }
	ticketDeletedMsg struct{ id int }
)

// Group and project lifecycle notices. The app updates the session and the
// screen stack; projectChangedMsg is also seen by every open screen.
type (
	groupRenamedMsg   struct{ group domain.GroupRef }
	groupGoneMsg      struct{ groupID int }
	projectChangedMsg struct{ project domain.Project }
	projectGoneMsg    struct{ projectID int }
)

func (projectChangedMsg) broadcast() {}
func (ticketChangedMsg) broadcast()  {}
func (ticketDeletedMsg) broadcast() {}
