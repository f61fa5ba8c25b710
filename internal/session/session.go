// Package session tracks who is signed in. A Session is an immutable
// snapshot handed to screens and guards explicitly; the Manager replaces it
// on login, refresh and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("not signed in")

// Session is the signed-in user. A nil *Session means signed out and every
// accessor handles it.
type Session struct {
	user domain.User
}

// New snapshots u into a Session.
func New(u domain.User) *Session {
	u.Groups = slices.Clone(u.Groups)
	u.Tickets = slices.Clone(u.Tickets)
	return &Session{user: u}
}

// User returns a copy of the signed-in user.
func (s *Session) User() domain.User {
	if s == nil {
		return domain.User{}
	}
	u := s.user
	u.Groups = slices.Clone(u.Groups)
	u.Tickets = slices.Clone(u.Tickets)
	return u
}

func (s *Session) UserID() int {
	if s == nil {
		return 0
	}
	return s.user.ID
}

func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.user.Username
}

// Role defaults to user when the server leaves it out.
func (s *Session) Role() domain.Role {
	if s == nil {
		return ""
	}
	if s.user.Role == "" {
		return domain.RoleUser
	}
	return s.user.Role
}

func (s *Session) IsAdmin() bool {
	return s.Role() == domain.RoleAdmin
}

// Groups returns the groups the user belongs to.
func (s *Session) Groups() []domain.GroupRef {
	if s == nil {
		return nil
	}
	return slices.Clone(s.user.Groups)
}

// InGroup reports membership of groupID.
func (s *Session) InGroup(groupID int) bool {
	if s == nil {
		return false
	}
	return slices.ContainsFunc(s.user.Groups, func(g domain.GroupRef) bool { return g.ID == groupID })
}

// Created reports whether the user created groupID, as far as the
// session's group list shows.
func (s *Session) Created(groupID int) bool {
	if s == nil {
		return false
	}
	return slices.ContainsFunc(s.user.Groups, func(g domain.GroupRef) bool {
		return g.ID == groupID && g.CreatorID == s.user.ID
	})
}

// WithGroup returns a new Session that also lists g, used after the user
// creates, joins or renames a group. A listed group is replaced in place.
func (s *Session) WithGroup(g domain.GroupRef) *Session {
	if s == nil {
		return nil
	}
	u := s.User()
	if i := slices.IndexFunc(u.Groups, func(x domain.GroupRef) bool { return x.ID == g.ID }); i >= 0 {
		u.Groups[i] = g
	} else {
		u.Groups = append(u.Groups, g)
	}
	return &Session{user: u}
}

// WithoutGroup returns a new Session that no longer lists groupID.
func (s *Session) WithoutGroup(groupID int) *Session {
	if s == nil {
		return nil
	}
	u := s.User()
	u.Groups = slices.DeleteFunc(u.Groups, func(g domain.GroupRef) bool { return g.ID == groupID })
	return &Session{user: u}
}

// WithUsername returns a new Session after a rename.
func (s *Session) WithUsername(name string) *Session {
	if s == nil {
		return nil
	}
	u := s.User()
	u.Username = name
	return &Session{user: u}
}

// Client is the part of the API client the Manager needs.
type Client interface {
	Login(ctx context.Context, req api.LoginRequest) (api.Result[api.Message], error)
	Logout(ctx context.Context) (api.Result[api.Message], error)
	CurrentUser(ctx context.Context) (api.Result[domain.User], error)
	SessionToken() string
	SetSessionToken(token string)
}

// Manager resolves, caches and ends sessions.
type Manager struct {
	client Client
	cache  *Cache
	logger *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewManager creates a manager. cache may be nil to disable persistence.
func NewManager(client Client, cache *Cache, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{client: client, cache: cache, logger: logger}
}

// Current returns the last resolved session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Restore loads the cached cookie and user from disk. The user is shown
// until Resolve confirms or replaces it.
func (m *Manager) Restore() *Session {
	token, user, err := m.cache.Load()
	if err != nil {
		m.logger.Debug("Ignoring unreadable session cache", "err", err)
		return nil
	}
	if token == "" || user == nil {
		return nil
	}
	m.client.SetSessionToken(token)
	s := New(*user)
	m.set(s)
	return s
}

// Resolve asks the server who owns the cookie. A signed-out client gets
// (nil, nil); transport failures are returned as errors.
func (m *Manager) Resolve(ctx context.Context) (*Session, error) {
	res, err := m.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	user, ok := res.Value()
	if !ok {
		if res.Status() == http.StatusUnauthorized || res.Status() == http.StatusNotFound {
			m.Invalidate()
			return nil, nil
		}
		_, err := res.Unwrap()
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return m.adopt(user), nil
}

// Login signs in and resolves the resulting session. A rejected login
// returns an *api.RejectedError.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	res, err := m.client.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if _, err := res.Unwrap(); err != nil {
		return nil, err
	}
	s, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("failed to log in: %w", ErrNoSession)
	}
	m.logger.Info("Signed in", "username", s.Username())
	return s, nil
}

// Logout ends the server session. Local state is cleared even when the
// server cannot be reached.
func (m *Manager) Logout(ctx context.Context) error {
	_, err := m.client.Logout(ctx)
	m.Invalidate()
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Invalidate forgets the session locally, used when the server answers 401.
func (m *Manager) Invalidate() {
	m.set(nil)
	if err := m.cache.Clear(); err != nil {
		m.logger.Warn("Could not clear the session cache", "err", err)
	}
}

// Replace swaps the current session, e.g. after joining a group.
func (m *Manager) Replace(s *Session) {
	m.set(s)
	if s != nil {
		m.save(s.User())
	}
}

func (m *Manager) adopt(user domain.User) *Session {
	s := New(user)
	m.set(s)
	m.save(user)
	return s
}

func (m *Manager) save(user domain.User) {
	if err := m.cache.Save(m.client.SessionToken(), user); err != nil {
		m.logger.Warn("Could not write the session cache", "err", err)
	}
}
