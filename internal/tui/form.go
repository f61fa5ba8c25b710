package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fishalchemy/reel/internal/api"
)

// FormField describes one input of a form. Key matches the request's json
// name so server field errors land on the right input.
type FormField struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
	Password    bool
}

// FormModel is a vertical stack of text inputs with per-field errors.
type FormModel struct {
	id      string
	title   string
	keys    []string
	labels  []string
	inputs  []textinput.Model
	focus   int
	errors  map[string]string
	general string
	busy    bool
}

// Form results are emitted as messages so the owning screen handles them in
// its own Update.
type (
	formSubmittedMsg struct {
		id     string
		values map[string]string
	}
	formCancelledMsg struct{ id string }
)

var (
	formErrorStyle = lipgloss.NewStyle().Foreground(colorCoral)
	formBoxStyle   = focusedPanelStyle.Padding(0, 1)
)

// NewForm builds a form. The first field is focused.
func NewForm(id, title string, fields ...FormField) FormModel {
	f := FormModel{id: id, title: title, errors: map[string]string{}}
	for _, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.SetValue(field.Value)
		ti.Prompt = ""
		ti.CharLimit = 500
		if field.Password {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.keys = append(f.keys, field.Key)
		f.labels = append(f.labels, field.Label)
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// ID names the form in its result messages.
func (f FormModel) ID() string { return f.id }

// Value returns the current text of the field with key.
func (f FormModel) Value(key string) string {
	for i, k := range f.keys {
		if k == key {
			return f.inputs[i].Value()
		}
	}
	return ""
}

// SetValue replaces the text of the field with key.
func (f *FormModel) SetValue(key, value string) {
	for i, k := range f.keys {
		if k == key {
			f.inputs[i].SetValue(value)
		}
	}
}

// Values returns every field's text keyed by field key.
func (f FormModel) Values() map[string]string {
	out := make(map[string]string, len(f.keys))
	for i, k := range f.keys {
		out[k] = f.inputs[i].Value()
	}
	return out
}

// SetErrors shows the server's or the validator's errors. Errors for
// properties the form has no input for are shown above the fields.
func (f *FormModel) SetErrors(errs []api.FieldError) {
	f.busy = false
	f.errors = map[string]string{}
	var general []string
	for _, e := range errs {
		if f.has(e.Property) {
			if prev, ok := f.errors[e.Property]; ok {
				f.errors[e.Property] = prev + "; " + e.Message
			} else {
				f.errors[e.Property] = e.Message
			}
			continue
		}
		general = append(general, e.Message)
	}
	f.general = strings.Join(general, "; ")
}

// Error returns the message shown for key, or "" when the field is fine.
// The empty key returns the form-level message.
func (f FormModel) Error(key string) string {
	if key == "" {
		return f.general
	}
	return f.errors[key]
}

// Busy reports whether a submission is waiting on the server.
func (f FormModel) Busy() bool { return f.busy }

// SetBusy blocks input while a submission is in flight.
func (f *FormModel) SetBusy(busy bool) { f.busy = busy }

func (f FormModel) has(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range f.keys {
		if k == key {
			return true
		}
	}
	return false
}

func (f FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation between fields, submit and cancel.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateFocused(msg)
	}
	if f.busy {
		if key.String() == "esc" {
			return f, f.cancel()
		}
		return f, nil
	}

	switch key.String() {
	case "esc":
		return f, f.cancel()
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return f, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return f, nil
	case "ctrl+s":
		cmd := f.submit()
		return f, cmd
	case "enter":
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return f, nil
		}
		cmd := f.submit()
		return f, cmd
	}
	return f.updateFocused(msg)
}

func (f FormModel) updateFocused(msg tea.Msg) (FormModel, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *FormModel) setFocus(i int) {
	n := len(f.inputs)
	if n == 0 {
		return
	}
	i = (i%n + n) % n
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *FormModel) submit() tea.Cmd {
	f.busy = true
	id, values := f.id, f.Values()
	return func() tea.Msg { return formSubmittedMsg{id: id, values: values} }
}

func (f FormModel) cancel() tea.Cmd {
	id := f.id
	return func() tea.Msg { return formCancelledMsg{id: id} }
}

// View renders the form inside a box of the given width.
func (f FormModel) View(width int) string {
	if width < 30 {
		width = 30
	}
	inner := width - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n")
	if f.general != "" {
		b.WriteString(formErrorStyle.Render(f.general))
		b.WriteString("\n")
	}
	for i := range f.inputs {
		b.WriteString("\n")
		label := f.labels[i]
		if i == f.focus {
			label = selectedStyle.Render("> " + label)
		} else {
			label = dimStyle.Render("  " + label)
		}
		b.WriteString(label)
		b.WriteString("\n  ")
		in := f.inputs[i]
		in.Width = inner - 4
		b.WriteString(in.View())
		if msg := f.errors[f.keys[i]]; msg != "" {
			b.WriteString("\n  ")
			b.WriteString(formErrorStyle.Render(msg))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if f.busy {
		b.WriteString(dimStyle.Render("Saving..."))
	} else {
		b.WriteString(dimStyle.Render("tab:next enter:submit esc:cancel"))
	}
	return formBoxStyle.Width(inner).Render(b.String())
}
