package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorFind(t *testing.T) {
	first := fstest.MapFS{
		"pages/home.blade.html": {Data: []byte("first")},
	}
	second := fstest.MapFS{
		"pages/home.blade.html":  {Data: []byte("second")},
		"layouts/app.blade.html": {Data: []byte("layout")},
		"raw/file.txt":           {Data: []byte("literal")},
	}
	l := NewLocator(".blade.html", Root{Label: "views", FS: first}, Root{Label: "shared", FS: second})

	src, err := l.Find("pages.home")
	require.NoError(t, err)
	raw, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, "first", raw)
	assert.Equal(t, "views", src.Root)

	src, err = l.Find("layouts.app")
	require.NoError(t, err)
	assert.Equal(t, "layouts/app.blade.html", src.Path)

	src, err = l.Find("raw/file.txt")
	require.NoError(t, err)
	raw, err = src.Read()
	require.NoError(t, err)
	assert.Equal(t, "literal", raw)

	assert.True(t, l.Exists("layouts.app"))
	assert.False(t, l.Exists("missing"))
}

func TestLocatorNotFoundListsEveryPath(t *testing.T) {
	l := NewLocator(".blade.html",
		Root{Label: "a", FS: fstest.MapFS{}},
		Root{Label: "b", FS: fstest.MapFS{}},
	)
	_, err := l.Find("x.y")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"a/x/y.blade.html", "b/x/y.blade.html"}, nf.Tried)
	assert.Contains(t, err.Error(), "a/x/y.blade.html, b/x/y.blade.html")
}

func TestLocatorWalk(t *testing.T) {
	l := NewLocator(".blade.html",
		Root{Label: "a", FS: fstest.MapFS{
			"index.blade.html":  {},
			"notes.txt":         {},
			"p/card.blade.html": {},
		}},
		Root{Label: "b", FS: fstest.MapFS{
			"index.blade.html": {},
			"q/x.blade.html":   {},
		}},
	)
	var names []string
	require.NoError(t, l.Walk(func(src Source) error {
		names = append(names, src.Name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"index", "p.card", "q.x"}, names)
}

func TestNameFromFile(t *testing.T) {
	dir := filepath.Join("srv", "views")
	l := NewLocator(".blade.html", Root{Label: dir, FS: fstest.MapFS{}})

	name, ok := l.NameFromFile(filepath.Join(dir, "pages", "home.blade.html"))
	assert.True(t, ok)
	assert.Equal(t, "pages.home", name)

	_, ok = l.NameFromFile(filepath.Join("elsewhere", "home.blade.html"))
	assert.False(t, ok)

	_, ok = l.NameFromFile(filepath.Join(dir, "notes.txt"))
	assert.False(t, ok)
}

func TestStoreNaming(t *testing.T) {
	fs := afero.NewMemMapFs()
	sha := sha1.Sum([]byte("pages.home"))
	md := md5.Sum([]byte("pages.home"))
	tests := []struct {
		naming Naming
		want   string
	}{
		{NamingNormal, filepath.Join("cache", "pages.home.bladec")},
		{NamingSHA1, filepath.Join("cache", hex.EncodeToString(sha[:])+".bladec")},
		{NamingAuto, filepath.Join("cache", hex.EncodeToString(sha[:])+".bladec")},
		{NamingMD5, filepath.Join("cache", hex.EncodeToString(md[:])+".bladec")},
	}
	for _, tt := range tests {
		t.Run(string(tt.naming), func(t *testing.T) {
			s := NewStore(fs, "cache", ".bladec", tt.naming)
			assert.Equal(t, tt.want, s.Path("pages.home"))
		})
	}
}

func TestStoreReadWriteStale(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "cache", ".bladec", NamingNormal)

	assert.True(t, s.Stale("page", time.Now()))
	_, err := s.Read("page")
	assert.Error(t, err)

	require.NoError(t, s.Write("page", "compiled"))
	out, err := s.Read("page")
	require.NoError(t, err)
	assert.Equal(t, "compiled", out)

	written, ok := s.ModTime("page")
	require.True(t, ok)
	assert.False(t, s.Stale("page", written))
	assert.False(t, s.Stale("page", written.Add(-time.Hour)))
	assert.True(t, s.Stale("page", written.Add(time.Hour)))

	require.NoError(t, s.Write("nested/page", "deep"))
	out, err = s.Read("nested/page")
	require.NoError(t, err)
	assert.Equal(t, "deep", out)

	require.NoError(t, s.Remove("page"))
	require.NoError(t, s.Remove("page"))
	assert.True(t, s.Stale("page", written))
}

func TestStoreWriteFailure(t *testing.T) {
	s := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "cache", ".bladec", NamingSHA1)
	assert.Error(t, s.Write("page", "compiled"))
}
