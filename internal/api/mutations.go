package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fishalchemy/reel/internal/domain"
)

// Login exchanges credentials for a session cookie, which the client's jar keeps.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Result[Message], error) {
	return submit[Message](ctx, c, http.MethodPost, loginPath, req)
}

// Logout ends the server session and forgets the local cookie either way.
func (c *Client) Logout(ctx context.Context) (Result[Message], error) {
	defer c.ClearSession()
	return Do[Message](ctx, c, http.MethodPost, "/auth/logout", nil)
}

// CreateUser registers an account.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (Result[domain.User], error) {
	return submit[domain.User](ctx, c, http.MethodPost, "/api/users", req)
}

// RenameUser changes a user's name.
func (c *Client) RenameUser(ctx context.Context, id int, req RenameUserRequest) (Result[domain.User], error) {
	return submit[domain.User](ctx, c, http.MethodPatch, fmt.Sprintf("/api/users/%d/username", id), req)
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil)
}

// CreateGroup creates a group owned by the session user.
func (c *Client) CreateGroup(ctx context.Context, req GroupRequest) (Result[domain.Group], error) {
	return submit[domain.Group](ctx, c, http.MethodPost, "/api/groups", req)
}

// RenameGroup changes a group's name.
func (c *Client) RenameGroup(ctx context.Context, id int, req GroupRequest) (Result[domain.Group], error) {
	return submit[domain.Group](ctx, c, http.MethodPut, fmt.Sprintf("/api/groups/%d/name", id), req)
}

// AddGroupMember adds a user to a group.
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID int) (Result[domain.Group], error) {
	return submit[domain.Group](ctx, c, http.MethodPost, fmt.Sprintf("/api/groups/%d/user/%d", groupID, userID), noBody{})
}

// RemoveGroupMember removes a user from a group. The server refuses to
// empty a group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID int) (Result[domain.Group], error) {
	return Do[domain.Group](ctx, c, http.MethodDelete, fmt.Sprintf("/api/groups/%d/user/%d", groupID, userID), nil)
}

// DeleteGroup removes a group.
func (c *Client) DeleteGroup(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/groups/%d", id), nil)
}

// CreateProject creates a project in a group with the session user as lead.
func (c *Client) CreateProject(ctx context.Context, groupID int, req ProjectRequest) (Result[domain.Project], error) {
	return submit[domain.Project](ctx, c, http.MethodPost, fmt.Sprintf("/api/projects/groupid/%d", groupID), req)
}

// UpdateProject edits a project. Lead only.
func (c *Client) UpdateProject(ctx context.Context, id int, req ProjectRequest) (Result[domain.Project], error) {
	return submit[domain.Project](ctx, c, http.MethodPatch, fmt.Sprintf("/api/projects/%d", id), req)
}

// ChangeProjectLead hands the project to another member.
func (c *Client) ChangeProjectLead(ctx context.Context, projectID, userID int) (Result[domain.Project], error) {
	return submit[domain.Project](ctx, c, http.MethodPatch, fmt.Sprintf("/api/projects/%d/user/%d", projectID, userID), noBody{})
}

// DeleteProject removes a project with its tickets and graphs. Lead only.
func (c *Client) DeleteProject(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil)
}

// CreateTicket adds a ticket to a project's backlog. Lead only.
func (c *Client) CreateTicket(ctx context.Context, projectID int, req TicketRequest) (Result[domain.Ticket], error) {
	return submit[domain.Ticket](ctx, c, http.MethodPost, fmt.Sprintf("/api/tickets/project/%d", projectID), req)
}

// UpdateTicket edits a ticket's name, description and link.
func (c *Client) UpdateTicket(ctx context.Context, id int, req TicketRequest) (Result[domain.Ticket], error) {
	return submit[domain.Ticket](ctx, c, http.MethodPatch, fmt.Sprintf("/api/tickets/%d", id), req)
}

// ChangeTicketState moves a ticket to another column. Lead or assignee only.
func (c *Client) ChangeTicketState(ctx context.Context, id int, state domain.TicketState) (Result[domain.Ticket], error) {
	return submit[domain.Ticket](ctx, c, http.MethodPatch, fmt.Sprintf("/api/tickets/%d/state", id), StateRequest{State: state})
}

// ChangeTicketDueDate sets a due date, which the server requires to be in the future.
func (c *Client) ChangeTicketDueDate(ctx context.Context, id int, req DueDateRequest) (Result[domain.Ticket], error) {
	return submit[domain.Ticket](ctx, c, http.MethodPatch, fmt.Sprintf("/api/tickets/%d/duedate", id), req)
}

// AssignTicket assigns a ticket to a user.
func (c *Client) AssignTicket(ctx context.Context, ticketID, userID int) (Result[domain.Ticket], error) {
	return submit[domain.Ticket](ctx, c, http.MethodPatch, fmt.Sprintf("/api/tickets/%d/user/%d", ticketID, userID), noBody{})
}

// DeleteTicket removes a ticket.
func (c *Client) DeleteTicket(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/tickets/%d", id), nil)
}

// CreateGraph adds a dependency graph to a project.
func (c *Client) CreateGraph(ctx context.Context, projectID int, req GraphRequest) (Result[domain.Graph], error) {
	return submit[domain.Graph](ctx, c, http.MethodPost, fmt.Sprintf("/api/graphs/project/%d", projectID), req)
}

// UpdateGraph edits a graph's name and description.
func (c *Client) UpdateGraph(ctx context.Context, id int, req GraphRequest) (Result[domain.Graph], error) {
	return submit[domain.Graph](ctx, c, http.MethodPatch, fmt.Sprintf("/api/graphs/%d", id), req)
}

// DeleteGraph removes a graph and its nodes.
func (c *Client) DeleteGraph(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/graphs/%d", id), nil)
}

// CreateNode adds a node to a graph.
func (c *Client) CreateNode(ctx context.Context, graphID int, req NodeRequest) (Result[domain.Node], error) {
	return submit[domain.Node](ctx, c, http.MethodPost, fmt.Sprintf("/api/nodes/graph/%d", graphID), req)
}

// UpdateNode edits a node's name and description.
func (c *Client) UpdateNode(ctx context.Context, id int, req NodeRequest) (Result[domain.Node], error) {
	return submit[domain.Node](ctx, c, http.MethodPatch, fmt.Sprintf("/api/nodes/%d", id), req)
}

// DeleteNode removes a node and its edges.
func (c *Client) DeleteNode(ctx context.Context, id int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/nodes/%d", id), nil)
}

// ConnectNodes records that dependent depends on dependency.
func (c *Client) ConnectNodes(ctx context.Context, dependent, dependency int) (Result[domain.Node], error) {
	return submit[domain.Node](ctx, c, http.MethodPost, fmt.Sprintf("/api/nodes/dependent/%d/dependency/%d", dependent, dependency), noBody{})
}

// DisconnectNodes removes a dependency.
func (c *Client) DisconnectNodes(ctx context.Context, dependent, dependency int) (Result[bool], error) {
	return Do[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/nodes/dependent/%d/dependency/%d", dependent, dependency), nil)
}
