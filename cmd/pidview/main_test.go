package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/pidview/internal/pidtest"
)

func writePID(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_WritesPNG(t *testing.T) {
	in := writePID(t, "grad.pid", pidtest.New(4, 3, pidtest.Gradient(4, 3)).Bytes())
	out := filepath.Join(t.TempDir(), "grad.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", out, in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.True(t, strings.Contains(stdout.String(), "wrote "+out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 3, img.Bounds().Dy())
}

func TestRun_Terminal(t *testing.T) {
	in := writePID(t, "grad.pid", pidtest.New(4, 4, pidtest.Gradient(4, 4)).Bytes())

	var stdout, stderr bytes.Buffer
	code := run([]string{in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.True(t, strings.Contains(stdout.String(), "▀"))
}

func TestRun_Info(t *testing.T) {
	img := pidtest.New(7, 5, make([]byte, 35))
	img.ID = 42
	in := writePID(t, "info.pid", img.Bytes())

	var stdout, stderr bytes.Buffer
	code := run([]string{"--info", in}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.True(t, strings.Contains(stdout.String(), "7x5"))
	require.True(t, strings.Contains(stdout.String(), "42"))
	require.True(t, strings.Contains(stdout.String(), "palette"))
}

func TestRun_TruncatedFailsPNG(t *testing.T) {
	data := pidtest.New(16, 16, pidtest.Gradient(16, 16)).Bytes()
	in := writePID(t, "short.pid", data[:40])
	out := filepath.Join(t.TempDir(), "short.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", out, in}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.True(t, strings.Contains(stderr.String(), "failed to decode image"))

	_, err := os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no args", nil, 2},
		{"two files", []string{"a.pid", "b.pid"}, 2},
		{"help", []string{"--help"}, 0},
		{"bad flag", []string{"--nope"}, 2},
		{"wrong extension", []string{"image.png"}, 1},
		{"missing file", []string{filepath.Join(os.TempDir(), "pidview-missing.pid")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.Equal(t, tt.code, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRun_TruncatedFailsTerminal(t *testing.T) {
	data := pidtest.New(16, 16, pidtest.Gradient(16, 16)).Bytes()
	in := writePID(t, "short.pid", data[:40])

	var stdout, stderr bytes.Buffer
	code := run([]string{in}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Equal(t, "", stdout.String())
	require.True(t, strings.Contains(stderr.String(), "failed to decode image: file is truncated or malformed"))
}
