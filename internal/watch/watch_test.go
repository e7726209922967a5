package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))

	var mu sync.Mutex
	var seen []string
	w, err := New(".blade.html", 20*time.Millisecond, func(files []string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, files...)
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	home := filepath.Join(dir, "pages", "home.blade.html")
	require.NoError(t, os.WriteFile(home, []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Contains(t, seen, home)
	assert.NotContains(t, seen, filepath.Join(dir, "notes.txt"))
	mu.Unlock()

	cancel()
	assert.NoError(t, <-done)
}
