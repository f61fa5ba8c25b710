package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/domain"
)

func TestNameFilter(t *testing.T) {
	ranks := nameFilter("NET", []string{"Nets", "Lines", "Bonnet"})

	require.Len(t, ranks, 2)
	assert.Equal(t, 0, ranks[0].Index)
	assert.Equal(t, 2, ranks[1].Index)

	assert.Len(t, nameFilter("", []string{"a", "b"}), 2)
	assert.Empty(t, nameFilter("zzz", []string{"a", "b"}))
}

func TestSelected(t *testing.T) {
	l := newPicker("Groups", []list.Item{
		newItem(domain.GroupRef{ID: 3, Name: "Anglers"}, "Anglers", "member"),
		newItem(domain.GroupRef{ID: 4, Name: "Trawlers"}, "Trawlers", "member"),
	})

	g, ok := selected[domain.GroupRef](l)
	require.True(t, ok)
	assert.Equal(t, 3, g.ID)

	_, ok = selected[domain.UserRef](l)
	assert.False(t, ok, "the item holds a different type")

	_, ok = selected[domain.GroupRef](newPicker("Empty", nil))
	assert.False(t, ok)
	assert.False(t, filtering(l))
}
