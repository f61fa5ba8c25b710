package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
)

func testProject(leadID int) domain.Project {
	return domain.Project{
		ID:          5,
		Name:        "Nets",
		Description: "Keep the nets whole",
		GithubURL:   "https://github.com/fishalchemy/nets",
		Group:       domain.GroupRef{ID: 3, Name: "Anglers"},
		Lead:        &domain.UserRef{ID: leadID, Username: "lead"},
		Graphs:      []domain.GraphRef{{ID: 8, Name: "Harvest"}},
	}
}

func newTestProject(t *testing.T, leadID int) (ProjectModel, *recordingHandler) {
	t.Helper()
	logs := &recordingHandler{}
	m := NewProjectModel(testProject(leadID), session.New(testUser()), nil, context.Background(), logs.logger())
	m.width, m.height = 100, 30
	return m, logs
}

func TestProjectModel_View(t *testing.T) {
	m, _ := newTestProject(t, 7)

	view := m.View()
	assert.Contains(t, view, "Nets")
	assert.Contains(t, view, "Anglers")
	assert.Contains(t, view, "Keep the nets whole")
	assert.Contains(t, view, "e:edit l:change lead D:delete project")
}

func TestProjectModel_EditPrefillsForm(t *testing.T) {
	m, _ := newTestProject(t, 7)

	model, cmd := press(m, "e")
	m = model.(ProjectModel)
	assert.NotNil(t, cmd)
	require.NotNil(t, m.form)
	assert.Equal(t, projectEditing, m.mode)
	assert.Equal(t, "Nets", m.form.Value("name"))
	assert.Equal(t, "https://github.com/fishalchemy/nets", m.form.Value("github_url"))

	model, _ = press(m, "esc")
	model, _ = model.Update(formCancelledMsg{id: "project:edit"})
	m = model.(ProjectModel)
	assert.Equal(t, projectViewing, m.mode)
	assert.Nil(t, m.form)
}

func TestProjectModel_OnlyLeadChangesSettings(t *testing.T) {
	for _, key := range []string{"e", "l", "D"} {
		t.Run(key, func(t *testing.T) {
			m, logs := newTestProject(t, 9)

			model, cmd := press(m, key)
			m = model.(ProjectModel)
			assert.Nil(t, cmd)
			assert.Equal(t, projectViewing, m.mode)
			assert.Contains(t, logs.messages(), "You are not authorized to perform this action")
		})
	}
}

func TestProjectModel_LeadPickerSkipsCurrentLead(t *testing.T) {
	m, _ := newTestProject(t, 7)

	model, cmd := press(m, "l")
	m = model.(ProjectModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, projectPickingLead, m.mode)

	users := []domain.UserRef{{ID: 7, Username: "ruth"}, {ID: 9, Username: "otto"}}
	model, _ = m.Update(leadCandidatesMsg{res: api.Ok(users)})
	m = model.(ProjectModel)
	require.Len(t, m.members.Items(), 1)
	u, ok := selected[domain.UserRef](m.members)
	require.True(t, ok)
	assert.Equal(t, 9, u.ID)

	model, cmd = press(m, "enter")
	m = model.(ProjectModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, projectViewing, m.mode)
	assert.True(t, m.loading)
}

func TestProjectModel_Saved(t *testing.T) {
	m, logs := newTestProject(t, 7)

	model, _ := press(m, "e")
	m = model.(ProjectModel)
	res := api.Fail[domain.Project](422, api.FieldError{Property: "name", Message: "Name is required"})
	model, _ = m.Update(projectSavedMsg{action: "Could not update project", res: res})
	m = model.(ProjectModel)
	require.NotNil(t, m.form, "field errors keep the form open")
	assert.Equal(t, "Name is required", m.form.Error("name"))

	saved := testProject(9)
	saved.Name = "Big nets"
	model, cmd := m.Update(projectSavedMsg{res: api.Ok(saved)})
	m = model.(ProjectModel)
	assert.Nil(t, m.form)
	assert.Contains(t, logs.messages(), "Project saved")
	require.NotNil(t, cmd)
	msg := cmd()
	changed, ok := msg.(projectChangedMsg)
	require.True(t, ok)
	assert.Equal(t, "Big nets", changed.project.Name)

	model, _ = m.Update(msg)
	m = model.(ProjectModel)
	assert.Equal(t, "Big nets", m.project.Name)
	assert.Equal(t, 9, m.project.Lead.ID)
}

func TestProjectModel_Delete(t *testing.T) {
	m, logs := newTestProject(t, 7)

	model, _ := press(m, "D")
	m = model.(ProjectModel)
	assert.Contains(t, m.View(), "Delete Nets with its tickets and graphs?")

	model, cmd := press(m, "n")
	m = model.(ProjectModel)
	assert.Nil(t, cmd)
	assert.Equal(t, projectViewing, m.mode)

	model, _ = m.Update(projectDeletedMsg{res: api.Fail[bool](422, api.FieldError{Message: "Project has open tickets"})})
	assert.Contains(t, logs.messages(), "Could not delete project")

	_, cmd = model.Update(projectDeletedMsg{res: api.Ok(true)})
	require.NotNil(t, cmd)
	assert.Equal(t, projectGoneMsg{projectID: 5}, cmd())
	assert.Contains(t, logs.messages(), "Project deleted")
}

func TestMergeProject(t *testing.T) {
	cur := testProject(7)
	cur.Tickets = []domain.Ticket{{ID: 1, Name: "Mend nets"}}

	next := domain.Project{ID: 5, Name: "Big nets", DiscordWebhookURL: "https://discord.example/hook"}
	got := mergeProject(cur, next)

	assert.Equal(t, "Big nets", got.Name)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.GithubURL)
	assert.Equal(t, "https://discord.example/hook", got.DiscordWebhookURL)
	assert.Equal(t, 7, got.Lead.ID, "a response without a lead keeps the current one")
	assert.Len(t, got.Tickets, 1)
	assert.Len(t, got.Graphs, 1)
}
