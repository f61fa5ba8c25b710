// Package access holds the guards screens check before they open.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

// ErrForbidden is wrapped by every denial.
var ErrForbidden = errors.New("you are not authorized to view this page")

// ProjectFetcher loads a project to find its group.
type ProjectFetcher interface {
	GetProject(ctx context.Context, id int) (api.Result[domain.Project], error)
}

// GraphAuthorizer asks the server about graph access.
type GraphAuthorizer interface {
	GraphAccess(ctx context.Context, id int) (api.Result[bool], error)
}

// RequireSession denies signed-out users.
func RequireSession(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("%w: %w", ErrForbidden, session.ErrNoSession)
	}
	return nil
}

// RequireAdmin allows only the admin role.
func RequireAdmin(s *session.Session) error {
	if err := RequireSession(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// RequireInGroup allows members of the group and its creator.
func RequireInGroup(s *session.Session, groupID int) error {
	if err := RequireSession(s); err != nil {
		return err
	}
	if s.InGroup(groupID) || s.Created(groupID) {
		return nil
	}
	return fmt.Errorf("%w: not a member of group %d", ErrForbidden, groupID)
}

// RequireProjectAccess fetches the project and checks membership of its group.
// The fetched project is returned so the caller need not load it again.
func RequireProjectAccess(ctx context.Context, projects ProjectFetcher, s *session.Session, projectID int) (domain.Project, error) {
	if err := RequireSession(s); err != nil {
		return domain.Project{}, err
	}
	res, err := projects.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to check project access: %w", err)
	}
	project, ok := res.Value()
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: %s", ErrForbidden, res.Message())
	}
	if err := RequireInGroup(s, project.Group.ID); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// RequireGraphAccess defers to the server's graph access check.
func RequireGraphAccess(ctx context.Context, graphs GraphAuthorizer, graphID int) error {
	res, err := graphs.GraphAccess(ctx, graphID)
	if err != nil {
		return fmt.Errorf("failed to check graph access: %w", err)
	}
	allowed, ok := res.Value()
	if !ok {
		return fmt.Errorf("%w: %s", ErrForbidden, res.Message())
	}
	if !allowed {
		return fmt.Errorf("%w: graph %d", ErrForbidden, graphID)
	}
	return nil
}

// RequireProjectLead allows only the project's lead, who alone may edit,
// hand over or delete it.
func RequireProjectLead(s *session.Session, project domain.Project) error {
	if err := RequireSession(s); err != nil {
		return err
	}
	if project.Lead == nil || project.Lead.ID != s.UserID() {
		return fmt.Errorf("%w: only the lead can change project %d", ErrForbidden, project.ID)
	}
	return nil
}
