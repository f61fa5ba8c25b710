package tui

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastFadeDelay is how long a toast stays in the status line.
const toastFadeDelay = 5 * time.Second

// toastMsg carries one log record into the program's status line.
type toastMsg struct {
	Text  string
	Level slog.Level
}

// toastFadeMsg clears the toast it was scheduled for. A newer toast bumps
// seq so older fades are ignored.
type toastFadeMsg struct {
	seq int
}

// ToastHandler is a slog.Handler that turns records into toasts. Records
// are dropped until SetProgram is called. Handlers derived through
// WithAttrs and WithGroup share the program pointer.
type ToastHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewToastHandler creates a handler for records at or above level.
func NewToastHandler(level slog.Leveler) *ToastHandler {
	return &ToastHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram enables delivery. Safe to call from any goroutine.
func (h *ToastHandler) SetProgram(p *tea.Program) {
	h.program.Store(p)
}

func (h *ToastHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record without blocking. Records are often logged from
// inside Update, where a synchronous Send would wait on the loop itself.
func (h *ToastHandler) Handle(_ context.Context, r slog.Record) error {
	p := h.program.Load()
	if p == nil {
		return nil
	}
	msg := toastMsg{Text: h.summary(r), Level: r.Level}
	go p.Send(msg)
	return nil
}

func (h *ToastHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ToastHandler{
		level:   h.level,
		program: h.program,
		attrs:   append(slices.Clone(h.attrs), attrs...),
		groups:  slices.Clone(h.groups),
	}
}

func (h *ToastHandler) WithGroup(name string) slog.Handler {
	return &ToastHandler{
		level:   h.level,
		program: h.program,
		attrs:   slices.Clone(h.attrs),
		groups:  append(slices.Clone(h.groups), name),
	}
}

// summary renders "message (key=value, ...)". Only "err" and "reason"
// attrs are shown; request plumbing like paths stays in the log file.
func (h *ToastHandler) summary(r slog.Record) string {
	var parts []string
	add := func(a slog.Attr) {
		if a.Key == "err" || a.Key == "reason" {
			parts = append(parts, a.Value.String())
		}
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})
	if len(parts) == 0 {
		return r.Message
	}
	return r.Message + ": " + strings.Join(parts, "; ")
}

// toastState is the app's view of the current toast.
type toastState struct {
	text  string
	level slog.Level
	seq   int
}

// show replaces the toast and returns the command that fades it.
func (t *toastState) show(msg toastMsg) tea.Cmd {
	t.text = msg.Text
	t.level = msg.Level
	t.seq++
	seq := t.seq
	return tea.Tick(toastFadeDelay, func(time.Time) tea.Msg {
		return toastFadeMsg{seq: seq}
	})
}

func (t *toastState) fade(msg toastFadeMsg) {
	if msg.seq == t.seq {
		t.text = ""
	}
}

func (t toastState) view(width int) string {
	if t.text == "" {
		return ""
	}
	style := successStyle
	switch {
	case t.level >= slog.LevelError:
		style = errorStyle
	case t.level >= slog.LevelWarn:
		style = warningStyle
	}
	text := t.text
	if width > 4 && len(text) > width-2 {
		text = text[:width-3] + "…"
	}
	return style.Render(text)
}
