// Package domain defines the entities exchanged with the Fish Alchemy API.
// The JSON tags follow the server's DTOs; shallow reference types are used
// wherever the server embeds a summary of a related entity.
package domain

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UserRef is the shallow form of a user embedded in other entities.
type UserRef struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	PfpPath    string `json:"pfp_path,omitempty"`
	BannerPath string `json:"banner_path,omitempty"`
}

// User is the full user record returned by /api/users/{id} and the current-user endpoint.
type User struct {
	ID         int        `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	PfpPath    string     `json:"pfp_path,omitempty"`
	BannerPath string     `json:"banner_path,omitempty"`
	Role       Role       `json:"role,omitempty"`
	Groups     []GroupRef `json:"groups,omitempty"`
	Tickets    []Ticket   `json:"tickets,omitempty"`
}

// Ref returns the shallow form of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, PfpPath: u.PfpPath, BannerPath: u.BannerPath}
}

// GroupRef is the shallow form of a group.
type GroupRef struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatorID int    `json:"creatorid,omitempty"`
	LogoPath  string `json:"logo_path,omitempty"`
}

// Group is a set of users that share projects.
type Group struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	CreatorID  int          `json:"creatorid"`
	LogoPath   string       `json:"logo_path,omitempty"`
	BannerPath string       `json:"banner_path,omitempty"`
	Users      []UserRef    `json:"users,omitempty"`
	Projects   []ProjectRef `json:"projects,omitempty"`
}

// Ref returns the shallow form of the group.
func (g Group) Ref() GroupRef {
	return GroupRef{ID: g.ID, Name: g.Name, CreatorID: g.CreatorID, LogoPath: g.LogoPath}
}

// HasMember reports whether userID is listed among the group's users.
func (g Group) HasMember(userID int) bool {
	for _, u := range g.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// ProjectRef is the shallow form of a project.
type ProjectRef struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logo_path,omitempty"`
}

// Project groups tickets and graphs under a single lead.
type Project struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	TicketCount       int        `json:"ticket_count"`
	DiscordWebhookURL string     `json:"discord_webhook_url,omitempty"`
	GithubURL         string     `json:"github_url,omitempty"`
	LogoPath          string     `json:"logo_path,omitempty"`
	BannerPath        string     `json:"banner_path,omitempty"`
	Group             GroupRef   `json:"group"`
	Lead              *UserRef   `json:"lead,omitempty"`
	Tickets           []Ticket   `json:"tickets,omitempty"`
	Graphs            []GraphRef `json:"graphs,omitempty"`
}

// Ref returns the shallow form of the project.
func (p Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name, LogoPath: p.LogoPath}
}

// Ticket is a unit of work on a project's board.
type Ticket struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Number      int         `json:"ticketnum"`
	State       TicketState `json:"state"`
	GithubURL   string      `json:"github_url,omitempty"`
	CreatedAt   Timestamp   `json:"created_at"`
	DueDate     Timestamp   `json:"duedate"`
	User        *UserRef    `json:"user,omitempty"`

	// Shallow DTOs flatten the project, full DTOs nest it.
	ProjectID   int         `json:"projectid,omitempty"`
	ProjectName string      `json:"projectname,omitempty"`
	Project     *ProjectRef `json:"project,omitempty"`
}

// ProjectRefID returns the owning project's id from whichever form the server sent.
func (t Ticket) ProjectRefID() int {
	if t.Project != nil {
		return t.Project.ID
	}
	return t.ProjectID
}

// ProjectLabel returns the owning project's name from whichever form the server sent.
func (t Ticket) ProjectLabel() string {
	if t.Project != nil {
		return t.Project.Name
	}
	return t.ProjectName
}

// Assignee returns the assigned user's name, or "" when unassigned.
func (t Ticket) Assignee() string {
	if t.User == nil {
		return ""
	}
	return t.User.Username
}

// GraphRef is the shallow form of a dependency graph.
type GraphRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Graph is a named set of nodes with dependency edges.
type Graph struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Project     ProjectRef `json:"project"`
	Nodes       []NodeRef  `json:"nodes,omitempty"`
}

// NodeRef is the shallow form of a graph node.
type NodeRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Node is a graph vertex. Dependencies lists the nodes this node depends on.
type Node struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Graph        GraphRef  `json:"graph"`
	Dependencies []NodeRef `json:"dependencies,omitempty"`
}

// Edge points from a dependency to its dependent: "To depends on From".
type Edge struct {
	From int
	To   int
}
