package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Naming selects how artifact file names are derived from template names.
type Naming string

const (
	NamingAuto   Naming = "auto"
	NamingNormal Naming = "normal"
	NamingSHA1   Naming = "sha1"
	NamingMD5    Naming = "md5"
)

// Store reads and writes compiled artifacts. It does no locking: two
// processes recompiling the same template may both write it.
type Store struct {
	fs     afero.Fs
	dir    string
	ext    string
	naming Naming
}

// NewStore returns a store rooted at dir on fsys.
func NewStore(fsys afero.Fs, dir, ext string, naming Naming) *Store {
	return &Store{fs: fsys, dir: dir, ext: ext, naming: naming}
}

// Path returns the artifact path for a template name.
func (s *Store) Path(name string) string {
	var file string
	switch s.naming {
	case NamingNormal:
		file = name
	case NamingMD5:
		sum := md5.Sum([]byte(name))
		file = hex.EncodeToString(sum[:])
	default:
		sum := sha1.Sum([]byte(name))
		file = hex.EncodeToString(sum[:])
	}
	return filepath.Join(s.dir, file+s.ext)
}

// ModTime returns when the artifact was last written.
func (s *Store) ModTime(name string) (time.Time, bool) {
	info, err := s.fs.Stat(s.Path(name))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Stale reports whether the artifact is missing or older than the source.
func (s *Store) Stale(name string, source time.Time) bool {
	mt, ok := s.ModTime(name)
	return !ok || mt.Before(source)
}

// Read returns the artifact content.
func (s *Store) Read(name string) (string, error) {
	raw, err := afero.ReadFile(s.fs, s.Path(name))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Write stores content, creating parent directories as needed.
func (s *Store) Write(name, content string) error {
	p := s.Path(name)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, []byte(content), 0o644)
}

// Remove deletes the artifact if present.
func (s *Store) Remove(name string) error {
	err := s.fs.Remove(s.Path(name))
	if err != nil {
		if exists, _ := afero.Exists(s.fs, s.Path(name)); !exists {
			return nil
		}
	}
	return err
}
