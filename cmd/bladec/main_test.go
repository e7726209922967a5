package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blade "github.com/dangdungcntt/go-blade/v2"
)

func writeViews(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "home.blade.html"),
		[]byte("Hello {{ $name }}@if($admin) (admin)@endif"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.blade.html"), []byte("index"), 0o644))
	return dir
}

func run(t *testing.T, argv ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(argv)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := writeViews(t)
	out, err := run(t, "render", "pages.home", "--views", dir, "--var", "name=<John>", "--var", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Hello &lt;John&gt; (admin)", out)
}

func TestRenderCommandDataFile(t *testing.T) {
	dir := writeViews(t)
	data := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(data, []byte("name: Ann\nadmin: false\n"), 0o644))
	out, err := run(t, "render", "pages.home", "--views", dir, "--data", data)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann", out)
}

func TestRenderCommandMissingTemplate(t *testing.T) {
	dir := writeViews(t)
	_, err := run(t, "render", "pages.nope", "--views", dir)
	assert.ErrorIs(t, err, blade.ErrTemplateNotFound)
}

func TestCompileCommand(t *testing.T) {
	dir := writeViews(t)
	compiled := t.TempDir()
	out, err := run(t, "compile", "--views", dir, "--compiled", compiled)
	require.NoError(t, err)
	assert.Equal(t, "index\npages.home\n", out)

	entries, err := os.ReadDir(compiled)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out, err = run(t, "compile", "pages.home", "--views", dir, "--print")
	require.NoError(t, err)
	assert.Contains(t, out, `$.Echo "name"`)
}

func TestParseVars(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "1", "b": "x, y", "c": true},
		parseVars([]string{"a=1", `b="x, y"`, "c"}))
}

func TestRouter(t *testing.T) {
	dir := writeViews(t)
	e := blade.New(dir)
	reg := prometheus.NewRegistry()
	r := newRouter(e, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/home?name=Bo&admin=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello Bo (admin)", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "index", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
