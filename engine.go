package blade

import (
	"errors"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/dangdungcntt/go-blade/v2/internal/cache"
)

// compiled is a parsed template ready to execute.
type compiled struct {
	name    string
	tmpl    *template.Template
	modTime time.Time
}

// Load compiles every template found in the roots, so later renders in
// fast mode never touch the sources.
func (e *Engine) Load() error {
	if m := e.Mode(); m.conflicting() {
		return modeError(m)
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	return e.locator.Walk(func(src cache.Source) error {
		_, err := e.compileSource(src)
		return err
	})
}

// Render executes the template identified by name (e.g. "pages.home") into
// w with data.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	out, err := e.NewView().Run(name, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderString compiles src without caching it and renders it with data.
func (e *Engine) RenderString(src string, data any) (string, error) {
	return e.NewView().RunString(src, data)
}

// GetDebugTemplates returns the compiled text of every loaded template.
func (e *Engine) GetDebugTemplates() map[string]string {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	out := make(map[string]string, len(e.debugTemplates))
	for k, v := range e.debugTemplates {
		out[k] = v
	}
	return out
}

// Forget marks a template for recompilation on its next render.
func (e *Engine) Forget(name string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.dirty[normalizeName(name)] = true
}

// Exists reports whether a template resolves in any root.
func (e *Engine) Exists(name string) bool {
	return e.locator.Exists(normalizeName(name))
}

func modeError(m Mode) error {
	return newError(ErrModeConflict, "Mode", "", true, nil, "mode %d is both slow and fast", int(m))
}

// template returns the compiled form of name. In fast mode the last known
// artifact is used without checking anything; in slow mode the source is
// always recompiled; otherwise it is recompiled when missing or stale.
func (e *Engine) template(name string) (*compiled, error) {
	m := e.Mode()
	if m.conflicting() {
		return nil, modeError(m)
	}
	name = normalizeName(name)

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if m.fast() {
		if c, ok := e.templates[name]; ok {
			e.metrics.Lookup("memory")
			return c, nil
		}
		if e.store != nil {
			if text, err := e.store.Read(name); err == nil {
				e.metrics.Lookup("artifact")
				return e.install(name, text, time.Time{})
			}
		}
	}

	src, err := e.locator.Find(name)
	if err != nil {
		var nf *cache.NotFoundError
		if errors.As(err, &nf) {
			return nil, newError(ErrTemplateNotFound, "Template", name, true, nil,
				"template not found, tried %s", strings.Join(nf.Tried, ", "))
		}
		return nil, newError(ErrTemplateNotFound, "Template", name, true, err, "cannot resolve template")
	}

	if !m.forced() && !e.dirty[name] {
		if c, ok := e.templates[name]; ok && !src.ModTime.After(c.modTime) {
			e.metrics.Lookup("memory")
			return c, nil
		}
		if e.store != nil && !e.store.Stale(name, src.ModTime) {
			if text, err := e.store.Read(name); err == nil {
				e.metrics.Lookup("artifact")
				return e.install(name, text, src.ModTime)
			}
		}
	}
	return e.compileSource(src)
}

// compileSource compiles a template file, writes its artifact and installs
// it. The caller holds cacheMu.
func (e *Engine) compileSource(src cache.Source) (*compiled, error) {
	e.metrics.Lookup("compile")
	start := time.Now()
	c, err := e.compileAndStore(src)
	e.metrics.Compiled(src.Name, time.Since(start), err)
	if err != nil {
		e.logger.Error("compile failed", slog.String("template", src.Name), slog.Any("error", err))
		return nil, err
	}
	e.logger.Debug("compiled template",
		slog.String("template", src.Name),
		slog.String("path", src.Path),
		slog.Duration("took", time.Since(start)))
	return c, nil
}

func (e *Engine) compileAndStore(src cache.Source) (*compiled, error) {
	raw, err := src.Read()
	if err != nil {
		return nil, newError(ErrTemplateNotFound, "Template", src.Name, true, err, "cannot read %s", src.Path)
	}
	text, err := e.compile(src.Name, raw)
	if err != nil {
		return nil, err
	}
	if e.store != nil {
		if err := e.store.Write(src.Name, text); err != nil {
			return nil, newError(ErrArtifactWrite, "Compile", src.Name, true, err,
				"cannot write %s", e.store.Path(src.Name))
		}
	}
	return e.install(src.Name, text, src.ModTime)
}

// install parses compiled text and caches it under name.
func (e *Engine) install(name, text string, modTime time.Time) (*compiled, error) {
	tmpl, err := parseTemplate(name, text)
	if err != nil {
		return nil, err
	}
	c := &compiled{name: name, tmpl: tmpl, modTime: modTime}
	e.templates[name] = c
	e.debugTemplates[name] = text
	delete(e.dirty, name)
	return c, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Delims(ActionOpen, ActionClose).Parse(text)
	if err != nil {
		return nil, newError(ErrParse, "Parse", name, true, err, "compiled template does not parse")
	}
	return tmpl, nil
}

// normalizeName strips quotes, spaces and a template extension. Slashed
// names become dotted unless the last segment names a file, as in
// "assets/app.txt".
func normalizeName(n string) string {
	n = strings.Trim(strings.TrimSpace(n), `"' `)
	n = filepath.ToSlash(n)
	for _, ext := range []string{".blade.html", ".blade.php", ".blade", ".tmpl", ".gohtml"} {
		if strings.HasSuffix(n, ext) {
			n = strings.TrimSuffix(n, ext)
			break
		}
	}
	if !strings.Contains(path.Base(n), ".") {
		n = strings.ReplaceAll(strings.Trim(n, "/"), "/", ".")
	}
	return n
}

// NameFromFile maps a template file under a directory root back to its
// name, for watchers.
func (e *Engine) NameFromFile(file string) (string, bool) {
	return e.locator.NameFromFile(file)
}
