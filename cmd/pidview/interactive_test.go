package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/internal/pidtest"
	"github.com/wippyai/pidview/session"
)

func newTestViewer(t *testing.T, path string) *viewerModel {
	t.Helper()
	ctx := context.Background()
	dec, err := session.New(ctx, session.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { dec.Close(ctx) })

	m := newViewerModel(dec, path, zap.NewNop())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestViewer_Load(t *testing.T) {
	in := writePID(t, "grad.pid", pidtest.New(4, 3, pidtest.Gradient(4, 3)).Bytes())
	m := newTestViewer(t, in)

	m.Update(m.Init()())
	require.Nil(t, m.err)
	require.NotNil(t, m.header)
	w, h := m.canvas.Size()
	require.Equal(t, uint32(4), w)
	require.Equal(t, uint32(3), h)
	require.True(t, strings.Contains(m.View(), "shown 4x3"))
}

func TestViewer_OpenErrorReplacesPrevious(t *testing.T) {
	data := pidtest.New(16, 16, pidtest.Gradient(16, 16)).Bytes()
	short := writePID(t, "short.pid", data[:40])
	good := writePID(t, "good.pid", pidtest.New(4, 3, pidtest.Gradient(4, 3)).Bytes())
	m := newTestViewer(t, short)

	m.Update(m.Init()())
	require.True(t, strings.Contains(m.View(), "file is truncated or malformed"))

	missing := filepath.Join(t.TempDir(), "gone.pid")
	m.Update(m.load(missing)())
	require.NotNil(t, m.err)
	require.Nil(t, m.header)
	require.Equal(t, errors.UserMessage(m.err), m.canvas.Message())
	require.False(t, strings.Contains(m.View(), "file is truncated or malformed"))

	// A failed open after a good image clears the surface.
	m.Update(m.load(good)())
	require.Nil(t, m.err)
	m.Update(m.load(filepath.Join(t.TempDir(), "image.png"))())
	w, h := m.canvas.Size()
	require.Equal(t, uint32(0), w)
	require.Equal(t, uint32(0), h)
	require.True(t, strings.Contains(m.View(), "failed to decode image"))
}
