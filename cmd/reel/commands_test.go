package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

func member() *session.Session {
	return session.New(domain.User{ID: 7, Username: "ruth", Role: domain.RoleUser, Groups: []domain.GroupRef{{ID: 3, Name: "Anglers"}}})
}

func TestVisibleGroups(t *testing.T) {
	groups := []domain.Group{{ID: 3, Name: "Anglers"}, {ID: 4, Name: "Trawlers"}}

	assert.Equal(t, []domain.Group{{ID: 3, Name: "Anglers"}}, visibleGroups(member(), groups))
	assert.Len(t, groups, 2)

	admin := session.New(domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin})
	assert.Len(t, visibleGroups(admin, groups), 2)
}

func TestVisibleProjects(t *testing.T) {
	projects := []domain.Project{
		{ID: 5, Name: "Nets", Group: domain.GroupRef{ID: 3}},
		{ID: 6, Name: "Boats", Group: domain.GroupRef{ID: 4}},
	}

	got := visibleProjects(member(), projects)
	if assert.Len(t, got, 1) {
		assert.Equal(t, 5, got[0].ID)
	}
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	printProjects(&buf, []domain.Project{
		{ID: 5, Name: "Nets", Group: domain.GroupRef{Name: "Anglers"}, Lead: &domain.UserRef{Username: "ruth"}, TicketCount: 4},
		{ID: 6, Name: "Boats", Group: domain.GroupRef{Name: "Anglers"}},
	})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `5\s+Nets\s+Anglers\s+ruth\s+4`, out)
	assert.Regexp(t, `6\s+Boats\s+Anglers\s+-\s+0`, out)
}

func TestPrintGroupsAndProfile(t *testing.T) {
	var buf bytes.Buffer
	printGroups(&buf, []domain.Group{{ID: 3, Name: "Anglers", Users: []domain.UserRef{{ID: 7}}, Projects: []domain.ProjectRef{{ID: 5}, {ID: 6}}}})
	assert.Regexp(t, `3\s+Anglers\s+1\s+2`, buf.String())

	buf.Reset()
	printProfile(&buf, domain.User{ID: 9, Username: "otto", Email: "otto@example.com", Groups: []domain.GroupRef{{ID: 3, Name: "Anglers"}}})
	out := buf.String()
	assert.Regexp(t, `User:\s+otto \(id 9\)`, out)
	assert.Contains(t, out, "otto@example.com")
	assert.Contains(t, out, "Anglers (id 3)")
	assert.NotContains(t, out, "Role:")
}
