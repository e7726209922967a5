// Package blade compiles Blade templates into Go text/template programs and
// renders them. Directives such as @if, @foreach, @section, @push and
// @component are rewritten into calls on a *View, which holds the state of
// one render: capture buffers, sections, stacks, loop frames and components.
package blade

import (
	"html"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/dangdungcntt/go-blade/v2/internal/cache"
	"github.com/dangdungcntt/go-blade/v2/internal/expression"
	"github.com/dangdungcntt/go-blade/v2/internal/metrics"
)

// HTML is text that echo tags print without escaping.
type HTML = expression.HTML

// Engine holds the configuration, the directive registry and the compiled
// template cache. It is safe for concurrent use; registration calls are
// expected before or between renders.
type Engine struct {
	cfg        Config
	roots      []cache.Root
	locator    *cache.Locator
	store      *cache.Store
	artifactFs afero.Fs
	logger     *slog.Logger
	metrics    *metrics.Recorder
	eval       *expression.Evaluator

	mu           sync.RWMutex
	directives   map[string]directive
	conditions   map[string]ConditionFunc
	aliases      map[string]string
	statics      map[string]StaticFunc
	funcs        map[string]any
	shared       map[string]any
	composers    []composer
	extensions   []func(string) string
	afterCompile []func(compiled, name string) string
	services     map[string]func() any
	tags         [3]tagFamily
	can          AuthFunc
	canAny       AnyAuthFunc
	errorFn      ErrorFunc
	resolver     InjectResolver
	translator   Translator
	csrf         CSRFFunc
	escape       func(string) string

	cacheMu        sync.Mutex
	templates      map[string]*compiled
	debugTemplates map[string]string
	dirty          map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the engine settings. Template paths in cfg are added
// as roots after the ones given to the constructor.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		for _, dir := range cfg.TemplatePaths {
			e.roots = append(e.roots, cache.Root{Label: dir, FS: os.DirFS(dir)})
		}
	}
}

// WithMode sets the compile mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.cfg.Mode = m }
}

// WithCompiledPath stores compiled artifacts under dir.
func WithCompiledPath(dir string) Option {
	return func(e *Engine) { e.cfg.CompiledPath = dir }
}

// WithArtifactFs sets the filesystem compiled artifacts are written to.
func WithArtifactFs(fsys afero.Fs) Option {
	return func(e *Engine) { e.artifactFs = fsys }
}

// WithRoot adds a template root searched after the existing ones.
func WithRoot(label string, fsys fs.FS) Option {
	return func(e *Engine) { e.roots = append(e.roots, cache.Root{Label: label, FS: fsys}) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRegisterer exports compile and render metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = metrics.New(reg) }
}

// New creates a new engine reading templates from dir.
func New(dir string, opts ...Option) *Engine {
	return newEngine([]cache.Root{{Label: dir, FS: os.DirFS(dir)}}, opts)
}

// NewFS creates a new engine reading templates from fsys. When using
// embed.FS, pass fs.Sub of the embedded folder.
func NewFS(fsys fs.FS, opts ...Option) *Engine {
	return newEngine([]cache.Root{{Label: ".", FS: fsys}}, opts)
}

// NewFromConfig creates an engine from cfg, using cfg.TemplatePaths as roots.
func NewFromConfig(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := newEngine(nil, append([]Option{WithConfig(cfg)}, opts...))
	return e, nil
}

func newEngine(roots []cache.Root, opts []Option) *Engine {
	e := &Engine{
		cfg:            DefaultConfig(),
		roots:          roots,
		logger:         slog.Default(),
		eval:           expression.NewEvaluator(),
		directives:     map[string]directive{},
		conditions:     map[string]ConditionFunc{},
		aliases:        map[string]string{},
		statics:        map[string]StaticFunc{},
		shared:         map[string]any{},
		services:       map[string]func() any{},
		escape:         html.EscapeString,
		templates:      map[string]*compiled{},
		debugTemplates: map[string]string{},
		dirty:          map[string]bool{},
	}
	e.can = defaultCan
	e.canAny = defaultCanAny
	e.errorFn = func(*View, string) string { return "" }
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "blade"))
	e.locator = cache.NewLocator(e.cfg.FileExtension, e.roots...)
	e.resetStore()
	e.funcs = defaultFuncs(e)
	e.eval.Shadow(slices.Collect(maps.Keys(e.funcs))...)
	for name, gen := range builtinDirectives {
		e.directives[name] = directive{gen: gen}
	}
	e.tags = [3]tagFamily{
		newTagFamily(echoRaw, e.cfg.RawTags),
		newTagFamily(echoEscaped, e.cfg.EscapedTags),
		newTagFamily(echoRegular, e.cfg.ContentTags),
	}
	return e
}

func (e *Engine) resetStore() {
	if e.cfg.CompiledPath == "" {
		e.store = nil
		return
	}
	if e.artifactFs == nil {
		e.artifactFs = afero.NewOsFs()
	}
	e.store = cache.NewStore(e.artifactFs, e.cfg.CompiledPath, e.cfg.CompiledExtension, e.cfg.naming())
}

// Config returns a copy of the engine settings.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Mode returns the compile mode.
func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Mode
}

// SetMode changes the compile mode. A conflicting mode is reported by the
// next render, before anything is compiled.
func (e *Engine) SetMode(m Mode) {
	e.mu.Lock()
	e.cfg.Mode = m
	e.mu.Unlock()
	e.cacheMu.Lock()
	e.resetStore()
	e.cacheMu.Unlock()
}

// SetOptimize toggles whitespace compaction of literal text.
func (e *Engine) SetOptimize(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Optimize = on
}

// SetPipes toggles pipe filter chains in echo tags.
func (e *Engine) SetPipes(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Pipes = on
}

// SetIncludeScope toggles restoring variables after child renders.
func (e *Engine) SetIncludeScope(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.IncludeScope = on
}

// SetThrowOnError toggles returning non-critical errors instead of
// rendering them inline.
func (e *Engine) SetThrowOnError(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.ThrowOnError = on
}

// SetStrict toggles rejecting unknown directives.
func (e *Engine) SetStrict(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Strict = on
}

// SetContentTags changes the {{ }} delimiters.
func (e *Engine) SetContentTags(open, close string) {
	e.setTags(echoRegular, Tags{Open: open, Close: close})
}

// SetEscapedContentTags changes the {{{ }}} delimiters.
func (e *Engine) SetEscapedContentTags(open, close string) {
	e.setTags(echoEscaped, Tags{Open: open, Close: close})
}

// SetRawTags changes the {!! !!} delimiters.
func (e *Engine) SetRawTags(open, close string) {
	e.setTags(echoRaw, Tags{Open: open, Close: close})
}

func (e *Engine) setTags(kind echoKind, t Tags) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tags[kind] = newTagFamily(kind, t)
	switch kind {
	case echoRaw:
		e.cfg.RawTags = t
	case echoEscaped:
		e.cfg.EscapedTags = t
	default:
		e.cfg.ContentTags = t
	}
}

// SetEscaper replaces the function used by escaped echo tags.
func (e *Engine) SetEscaper(fn func(string) string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.escape = fn
}
