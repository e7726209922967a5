// Package cache resolves template names to source files and keeps compiled
// artifacts on an afero filesystem.
package cache

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Root is one template directory.
type Root struct {
	Label string
	FS    fs.FS
}

// Source is a resolved template file.
type Source struct {
	Name    string
	Path    string
	Root    string
	ModTime time.Time
	fsys    fs.FS
}

// Read returns the raw template text.
func (s Source) Read() (string, error) {
	raw, err := fs.ReadFile(s.fsys, s.Path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// NotFoundError lists every path tried for a template name.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found, tried: %s", e.Name, strings.Join(e.Tried, ", "))
}

// Locator searches an ordered list of roots. First match wins.
type Locator struct {
	roots []Root
	ext   string
}

// NewLocator returns a locator appending ext to dotted names.
func NewLocator(ext string, roots ...Root) *Locator {
	return &Locator{roots: roots, ext: ext}
}

// Roots returns the configured roots.
func (l *Locator) Roots() []Root {
	return l.roots
}

// RelPath maps a.b.c to a/b/c<ext>. Names containing a slash are literal.
func (l *Locator) RelPath(name string) string {
	if strings.Contains(name, "/") {
		return strings.TrimPrefix(name, "/")
	}
	return strings.ReplaceAll(name, ".", "/") + l.ext
}

// Find resolves name against every root in order.
func (l *Locator) Find(name string) (Source, error) {
	rel := l.RelPath(name)
	tried := make([]string, 0, len(l.roots))
	for _, r := range l.roots {
		info, err := fs.Stat(r.FS, rel)
		if err == nil && !info.IsDir() {
			return Source{Name: name, Path: rel, Root: r.Label, ModTime: info.ModTime(), fsys: r.FS}, nil
		}
		tried = append(tried, path.Join(r.Label, rel))
	}
	return Source{}, &NotFoundError{Name: name, Tried: tried}
}

// Exists reports whether name resolves in any root.
func (l *Locator) Exists(name string) bool {
	_, err := l.Find(name)
	return err == nil
}

// Walk calls fn for every template in every root. A name found in an
// earlier root hides the same name in later roots.
func (l *Locator) Walk(fn func(src Source) error) error {
	seen := map[string]struct{}{}
	for _, r := range l.roots {
		err := fs.WalkDir(r.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(p, l.ext) {
				return nil
			}
			name := NameFromPath(p, l.ext)
			if _, ok := seen[name]; ok {
				return nil
			}
			seen[name] = struct{}{}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return fn(Source{Name: name, Path: p, Root: r.Label, ModTime: info.ModTime(), fsys: r.FS})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NameFromFile maps a file on disk back to its template name using the
// labels of directory roots.
func (l *Locator) NameFromFile(file string) (string, bool) {
	if !strings.HasSuffix(file, l.ext) {
		return "", false
	}
	for _, r := range l.roots {
		rel, err := filepath.Rel(r.Label, file)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return NameFromPath(rel, l.ext), true
	}
	return "", false
}

// NameFromPath converts a relative file path to a dotted template name.
func NameFromPath(p, ext string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimSuffix(p, ext)
	return strings.ReplaceAll(p, "/", ".")
}
