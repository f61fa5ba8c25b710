package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToastHandler_Level(t *testing.T) {
	h := NewToastHandler(slog.LevelWarn)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestToastHandler_DropsWithoutProgram(t *testing.T) {
	logger := slog.New(NewToastHandler(slog.LevelInfo))
	require.NotPanics(t, func() {
		logger.Error("Could not move ticket", "err", errors.New("boom"))
	})
}

func TestToastHandler_Summary(t *testing.T) {
	h := NewToastHandler(slog.LevelInfo)

	r := slog.NewRecord(time.Now(), slog.LevelError, "Could not move ticket", 0)
	r.AddAttrs(slog.String("path", "/api/tickets/1/state"), slog.String("reason", "invalid transition"))
	assert.Equal(t, "Could not move ticket: invalid transition", h.summary(r))

	derived := h.WithAttrs([]slog.Attr{slog.Any("err", errors.New("timeout"))}).(*ToastHandler)
	r = slog.NewRecord(time.Now(), slog.LevelError, "Could not load board", 0)
	assert.Equal(t, "Could not load board: timeout", derived.summary(r))

	r = slog.NewRecord(time.Now(), slog.LevelWarn, "Signed out", 0)
	r.AddAttrs(slog.Int("status", 401))
	assert.Equal(t, "Signed out", h.summary(r))
}

func TestToastHandler_DerivedShareProgram(t *testing.T) {
	h := NewToastHandler(slog.LevelInfo)
	derived := h.WithGroup("api").(*ToastHandler)

	assert.Same(t, h.program, derived.program)
	assert.Equal(t, []string{"api"}, derived.groups)
	assert.Empty(t, h.groups)
}

func TestToastState_FadesOnlyLatest(t *testing.T) {
	var ts toastState

	cmd := ts.show(toastMsg{Text: "first", Level: slog.LevelWarn})
	require.NotNil(t, cmd)
	ts.show(toastMsg{Text: "second", Level: slog.LevelError})
	assert.Equal(t, 2, ts.seq)

	ts.fade(toastFadeMsg{seq: 1})
	assert.Contains(t, ts.view(80), "second", "a stale fade leaves the newer toast")

	ts.fade(toastFadeMsg{seq: 2})
	assert.Empty(t, ts.view(80))
}

func TestToastState_Truncates(t *testing.T) {
	ts := toastState{text: strings.Repeat("x", 100), level: slog.LevelError}

	view := ts.view(20)
	assert.Contains(t, view, "…")
	assert.NotContains(t, view, strings.Repeat("x", 20))
}
