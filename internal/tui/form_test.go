package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishalchemy/reel/internal/api"
)

func typeInto(f FormModel, text string) FormModel {
	for _, r := range text {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func newLoginForm() FormModel {
	return NewForm("login", "Sign in",
		FormField{Key: "username", Label: "Username"},
		FormField{Key: "password", Label: "Password", Password: true},
	)
}

func TestForm_SubmitOnLastField(t *testing.T) {
	f := newLoginForm()

	f = typeInto(f, "ruth")
	f, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "enter on the first field moves focus")
	f = typeInto(f, "hunter2")

	f, cmd = f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(formSubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, "login", msg.id)
	assert.Equal(t, map[string]string{"username": "ruth", "password": "hunter2"}, msg.values)
	assert.True(t, f.Busy())
}

func TestForm_FocusWraps(t *testing.T) {
	f := newLoginForm()

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	f = typeInto(f, "x")
	assert.Equal(t, "x", f.Value("password"))
	assert.Empty(t, f.Value("username"))
}

func TestForm_Cancel(t *testing.T) {
	f := newLoginForm()

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	msg, ok := cmd().(formCancelledMsg)
	require.True(t, ok)
	assert.Equal(t, "login", msg.id)
}

func TestForm_SetErrors(t *testing.T) {
	f := newLoginForm()
	f.SetBusy(true)

	f.SetErrors([]api.FieldError{
		{Property: "username", Message: "username is required"},
		{Property: "username", Message: "too short"},
		{Property: "captcha", Message: "bad captcha"},
		{Message: "Invalid credentials"},
	})

	assert.False(t, f.Busy())
	assert.Equal(t, "username is required; too short", f.Error("username"))
	assert.Empty(t, f.Error("password"))
	assert.Equal(t, "bad captcha; Invalid credentials", f.Error(""))

	view := f.View(50)
	assert.Contains(t, view, "too short")
	assert.Contains(t, view, "Invalid credentials")
}

func TestForm_BusyIgnoresTyping(t *testing.T) {
	f := newLoginForm()
	f.SetBusy(true)

	f = typeInto(f, "abc")
	assert.Empty(t, f.Value("username"))

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd, "esc still cancels")
}

func TestForm_PasswordIsMasked(t *testing.T) {
	f := newLoginForm()
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyTab})
	f = typeInto(f, "secret")

	assert.NotContains(t, f.View(50), "secret")
	assert.Equal(t, "secret", f.Values()["password"])
}
