package blade

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// views builds a template filesystem from dotted names.
func views(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[strings.ReplaceAll(name, ".", "/")+".blade.html"] = &fstest.MapFile{
			Data:    []byte(body),
			ModTime: time.Now().Add(-time.Hour),
		}
	}
	return fsys
}

func newTestEngine(files map[string]string, opts ...Option) *Engine {
	return NewFS(views(files), append([]Option{WithLogger(quiet)}, opts...)...)
}

func renderString(t *testing.T, e *Engine, src string, data any) string {
	t.Helper()
	out, err := e.RenderString(src, data)
	require.NoError(t, err)
	return out
}

func renderView(t *testing.T, e *Engine, name string, data any) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, e.Render(&b, name, data))
	return b.String()
}
