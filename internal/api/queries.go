package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fishalchemy/reel/internal/domain"
)

// CurrentUser returns the user owning the session cookie. A logged-out
// client gets a failed result with status 401.
func (c *Client) CurrentUser(ctx context.Context) (Result[domain.User], error) {
	return Do[domain.User](ctx, c, http.MethodGet, "/auth/get-current-user", nil)
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) (Result[[]domain.User], error) {
	return Do[[]domain.User](ctx, c, http.MethodGet, "/api/users", nil)
}

// GetUser returns one user with groups and tickets.
func (c *Client) GetUser(ctx context.Context, id int) (Result[domain.User], error) {
	return Do[domain.User](ctx, c, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil)
}

// ListGroups returns every group.
func (c *Client) ListGroups(ctx context.Context) (Result[[]domain.Group], error) {
	return Do[[]domain.Group](ctx, c, http.MethodGet, "/api/groups", nil)
}

// GetGroup returns one group with its users and projects.
func (c *Client) GetGroup(ctx context.Context, id int) (Result[domain.Group], error) {
	return Do[domain.Group](ctx, c, http.MethodGet, fmt.Sprintf("/api/groups/%d", id), nil)
}

// ListProjects returns every project.
func (c *Client) ListProjects(ctx context.Context) (Result[[]domain.Project], error) {
	return Do[[]domain.Project](ctx, c, http.MethodGet, "/api/projects", nil)
}

// GetProject returns one project with its tickets and graphs.
func (c *Client) GetProject(ctx context.Context, id int) (Result[domain.Project], error) {
	return Do[domain.Project](ctx, c, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil)
}

// ProjectUsers returns the members who can be assigned project tickets.
func (c *Client) ProjectUsers(ctx context.Context, id int) (Result[[]domain.UserRef], error) {
	return Do[[]domain.UserRef](ctx, c, http.MethodGet, fmt.Sprintf("/api/projects/%d/users", id), nil)
}

// GetTicket returns one ticket.
func (c *Client) GetTicket(ctx context.Context, id int) (Result[domain.Ticket], error) {
	return Do[domain.Ticket](ctx, c, http.MethodGet, fmt.Sprintf("/api/tickets/%d", id), nil)
}

// GetGraph returns one graph with shallow nodes.
func (c *Client) GetGraph(ctx context.Context, id int) (Result[domain.Graph], error) {
	return Do[domain.Graph](ctx, c, http.MethodGet, fmt.Sprintf("/api/graphs/%d", id), nil)
}

// GraphAccess asks the server whether the session may open a graph.
func (c *Client) GraphAccess(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodGet, fmt.Sprintf("/api/graphs/%d/auth", id), nil)
}

// GraphNodes returns a graph's nodes with their dependencies.
func (c *Client) GraphNodes(ctx context.Context, graphID int) (Result[[]domain.Node], error) {
	return Do[[]domain.Node](ctx, c, http.MethodGet, fmt.Sprintf("/api/nodes/graph/%d", graphID), nil)
}
