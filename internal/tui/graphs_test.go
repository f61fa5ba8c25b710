package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
)

func newTestGraphs(t *testing.T) (GraphsModel, *recordingHandler) {
	t.Helper()
	logs := &recordingHandler{}
	p := domain.Project{ID: 5, Name: "Nets", Graphs: []domain.GraphRef{{ID: 8, Name: "Harvest"}, {ID: 9, Name: "Repairs"}}}
	m := NewGraphsModel(p, nil, context.Background(), logs.logger())
	m.width, m.height = 100, 30
	return m, logs
}

func TestGraphsModel_Open(t *testing.T) {
	m, _ := newTestGraphs(t)

	_, cmd := press(m, "j", "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, openGraphMsg{graphID: 9}, cmd())
}

func TestGraphsModel_Create(t *testing.T) {
	m, _ := newTestGraphs(t)

	model, _ := press(m, "n")
	m = model.(GraphsModel)
	require.NotNil(t, m.form)
	assert.Equal(t, "graph:new", m.form.ID())

	model, _ = m.Update(graphSavedMsg{res: api.Ok(domain.Graph{ID: 10, Name: "Smoking"})})
	m = model.(GraphsModel)
	assert.Nil(t, m.form)
	require.Len(t, m.project.Graphs, 3)
	assert.Equal(t, "Smoking", m.project.Graphs[2].Name)
}

func TestGraphsModel_Edit(t *testing.T) {
	m, logs := newTestGraphs(t)

	model, cmd := press(m, "e")
	m = model.(GraphsModel)
	assert.NotNil(t, cmd)
	require.NotNil(t, m.form)
	assert.Equal(t, "graph:8", m.form.ID())
	assert.Equal(t, "Harvest", m.form.Value("name"))

	model, _ = m.Update(graphFetchedMsg{res: api.Ok(domain.Graph{ID: 8, Name: "Harvest", Description: "Catch to market"})})
	m = model.(GraphsModel)
	assert.Equal(t, "Catch to market", m.form.Value("description"))

	res := api.Fail[domain.Graph](422, api.FieldError{Property: "name", Message: "Name is required"})
	model, _ = m.Update(graphSavedMsg{action: "Could not update graph", res: res})
	m = model.(GraphsModel)
	require.NotNil(t, m.form)
	assert.Equal(t, "Name is required", m.form.Error("name"))

	model, _ = m.Update(graphSavedMsg{res: api.Ok(domain.Graph{ID: 8, Name: "Big harvest"})})
	m = model.(GraphsModel)
	assert.Nil(t, m.form)
	require.Len(t, m.project.Graphs, 2)
	assert.Equal(t, "Big harvest", m.project.Graphs[0].Name, "renamed in place")
	assert.Empty(t, logs.messages())
}

func TestGraphsModel_FetchedGraphKeepsTypedDescription(t *testing.T) {
	m, _ := newTestGraphs(t)

	model, _ := press(m, "e", "tab", "h", "i")
	model, _ = model.Update(graphFetchedMsg{res: api.Ok(domain.Graph{ID: 8, Description: "Catch to market"})})
	assert.Equal(t, "hi", model.(GraphsModel).form.Value("description"))
}

func TestGraphsModel_SaveRequests(t *testing.T) {
	m, _ := newTestGraphs(t)

	assert.NotNil(t, m.saveGraph("graph:new", map[string]string{"name": "Smoking"}))
	assert.NotNil(t, m.saveGraph("graph:8", map[string]string{"name": "Big harvest"}))
	assert.Nil(t, m.saveGraph("graph:bogus", nil))
}

func TestGraphsModel_Delete(t *testing.T) {
	m, logs := newTestGraphs(t)

	model, cmd := press(m, "x")
	m = model.(GraphsModel)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Delete Harvest with all its nodes?")

	model, cmd = press(m, "n")
	m = model.(GraphsModel)
	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)

	_, cmd = press(m, "x", "y")
	assert.NotNil(t, cmd)

	model, _ = m.Update(graphDeletedMsg{id: 8, res: api.Fail[bool](403)})
	m = model.(GraphsModel)
	assert.Len(t, m.project.Graphs, 2)

	model, _ = m.Update(graphDeletedMsg{id: 8, res: api.Ok(true)})
	m = model.(GraphsModel)
	assert.Equal(t, []domain.GraphRef{{ID: 9, Name: "Repairs"}}, m.project.Graphs)
	assert.Contains(t, logs.messages(), "Graph deleted")
}
