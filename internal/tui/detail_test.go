package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

func newTestDetail(t *testing.T, ticket domain.Ticket) (DetailModel, *recordingHandler) {
	t.Helper()
	logs := &recordingHandler{}
	m := NewDetailModel(ticket, nil, context.Background(), logs.logger())
	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(DetailModel), logs
}

func testTicket() domain.Ticket {
	return domain.Ticket{
		ID:          4,
		Number:      104,
		Name:        "Mend nets",
		Description: "The big net has a hole near the float line.",
		State:       domain.StateReview,
		ProjectID:   1,
		ProjectName: "Test Project",
	}
}

func TestDetailModel_InvalidDueDateKeepsForm(t *testing.T) {
	m, _ := newTestDetail(t, testTicket())

	model, _ := press(m, "d", "soon")
	model, cmd := press(model, "enter")
	require.NotNil(t, cmd)
	submitted, ok := cmd().(formSubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, "soon", submitted.values["date"])

	model, cmd = model.Update(submitted)
	m = model.(DetailModel)
	assert.Nil(t, cmd, "nothing is sent for a bad date")
	assert.Equal(t, detailDueDate, m.mode)
	assert.False(t, m.form.Busy())
	assert.Contains(t, m.View(), "Enter a valid date.")
}

func TestDetailModel_RejectedEditShowsFieldErrors(t *testing.T) {
	m, logs := newTestDetail(t, testTicket())

	model, _ := press(m, "e")
	m = model.(DetailModel)
	require.Equal(t, detailEditing, m.mode)

	res := api.Fail[domain.Ticket](400, api.FieldError{Property: "name", Message: "Name is required"})
	model, _ = m.Update(detailFailedMsg{action: "Could not update ticket", res: res})
	m = model.(DetailModel)
	assert.Equal(t, detailEditing, m.mode)
	assert.Contains(t, m.View(), "Name is required")
	assert.Empty(t, logs.messages(), "field errors stay on the form")
}

func TestDetailModel_TicketChanged(t *testing.T) {
	m, _ := newTestDetail(t, testTicket())

	other := testTicket()
	other.ID, other.Name = 99, "Other"
	model, _ := m.Update(ticketChangedMsg{ticket: other})
	m = model.(DetailModel)
	assert.Equal(t, "Mend nets", m.ticket.Name)

	changed := testTicket()
	changed.Name = "Mend the big net"
	model, _ = m.Update(ticketChangedMsg{ticket: changed})
	m = model.(DetailModel)
	assert.Equal(t, "Mend the big net", m.ticket.Name)
	assert.Contains(t, m.View(), "Mend the big net")
}

func TestDetailModel_DeleteFlow(t *testing.T) {
	m, _ := newTestDetail(t, testTicket())

	model, _ := press(m, "x")
	m = model.(DetailModel)
	assert.Equal(t, detailConfirmDelete, m.mode)

	model, _ = press(m, "n")
	m = model.(DetailModel)
	assert.Equal(t, detailViewing, m.mode)

	_, cmd := press(m, "x", "y")
	assert.NotNil(t, cmd)

	_, cmd = m.Update(ticketDeletedMsg{id: 4})
	require.NotNil(t, cmd)
	assert.IsType(t, backMsg{}, cmd())
}

func TestDetailModel_NoLinkWarns(t *testing.T) {
	m, logs := newTestDetail(t, testTicket())

	_, cmd := press(m, "o")
	assert.Nil(t, cmd)
	assert.Contains(t, logs.messages(), "No GitHub link for this ticket")
}

func TestDetailModel_AssignNeedsProject(t *testing.T) {
	ticket := testTicket()
	ticket.ProjectID = 0
	m, logs := newTestDetail(t, ticket)

	model, cmd := press(m, "a")
	assert.Nil(t, cmd)
	assert.Equal(t, detailViewing, model.(DetailModel).mode)
	assert.Contains(t, logs.messages(), "This ticket has no project to pick members from")
}
