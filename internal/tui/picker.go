package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fishalchemy/reel/internal/store"
)

// pickerItem wraps a value for use in bubbles/list.
type pickerItem[T any] struct {
	value T
	title string
	desc  string
}

func (i pickerItem[T]) FilterValue() string { return i.title }
func (i pickerItem[T]) Title() string       { return i.title }
func (i pickerItem[T]) Description() string { return i.desc }

func newItem[T any](value T, title, desc string) list.Item {
	return pickerItem[T]{value: value, title: title, desc: desc}
}

// titled is what pickerDelegate can render.
type titled interface {
	Title() string
	Description() string
}

// pickerDelegate renders two-line numbered items.
type pickerDelegate struct{}

func (d pickerDelegate) Height() int                             { return 2 }
func (d pickerDelegate) Spacing() int                            { return 1 }
func (d pickerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d pickerDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	i, ok := li.(titled)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.Title())
	desc := i.Description()

	if index == m.Index() {
		fmt.Fprint(w, selectedStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+textStyle.Render(desc))
	} else {
		fmt.Fprint(w, textStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+dimStyle.Render(desc))
	}
}

// newPicker builds a filterable list with the shared look.
func newPicker(title string, items []list.Item) list.Model {
	l := list.New(items, pickerDelegate{}, 80, 20)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Filter = nameFilter
	l.Styles.Title = listTitleStyle
	l.DisableQuitKeybindings()
	return l
}

// nameFilter replaces the list's fuzzy match with the plain substring
// search the rest of the app uses.
func nameFilter(term string, targets []string) []list.Rank {
	idx := make([]int, len(targets))
	for i := range targets {
		idx[i] = i
	}
	matched := store.FilterByName(idx, term, func(i int) string { return targets[i] })
	ranks := make([]list.Rank, len(matched))
	for i, m := range matched {
		ranks[i] = list.Rank{Index: m}
	}
	return ranks
}

// selected returns the highlighted item's value.
func selected[T any](l list.Model) (T, bool) {
	i, ok := l.SelectedItem().(pickerItem[T])
	if !ok {
		var zero T
		return zero, false
	}
	return i.value, true
}

// filtering reports whether the list's filter input has the keyboard.
func filtering(l list.Model) bool {
	return l.FilterState() == list.Filtering
}
