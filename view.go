package blade

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cast"

	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

type captureKind int

const (
	captureRender captureKind = iota
	captureSection
	capturePush
	captureComponent
	captureSlot
)

func (k captureKind) String() string {
	return [...]string{"render", "section", "push", "component", "slot"}[k]
}

type capture struct {
	kind captureKind
	buf  strings.Builder
}

// hooks are the engine callbacks captured when the View is created.
type hooks struct {
	escape     func(string) string
	can        AuthFunc
	canAny     AnyAuthFunc
	errorFn    ErrorFunc
	translator Translator
	csrf       CSRFFunc
}

// frame is one executing template.
type frame struct {
	name    string
	pass    int
	env     map[string]any
	extends map[int]bool
}

// View is the state of one render. Compiled templates call its exported
// methods; it is not safe for concurrent use. A View can run several
// templates in sequence: sections are reset by each Run, stacks are kept.
type View struct {
	engine *Engine
	cfg    Config
	funcs  map[string]any
	hooks  hooks
	logger *slog.Logger

	// variables is the scope handed to child renders
	variables map[string]any
	frames    []*frame
	captures  []*capture
	pass      int
	deferred  error

	sections     map[string]string
	sectionStack []string

	pushStack []pushEntry
	pushes    map[string][]fragment
	once      map[string]bool
	seq       int

	loops      []*LoopFrame
	components []*componentFrame

	user        any
	role        string
	permissions []string
	csrfToken   string
}

// NewView returns a View over a snapshot of the engine settings, functions
// and shared variables.
func (e *Engine) NewView() *View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v := &View{
		engine:    e,
		cfg:       e.cfg,
		logger:    e.logger,
		variables: maps.Clone(e.shared),
		sections:  map[string]string{},
		pushes:    map[string][]fragment{},
		once:      map[string]bool{},
	}
	v.hooks = hooks{
		escape:     e.escape,
		can:        e.can,
		canAny:     e.canAny,
		errorFn:    e.errorFn,
		translator: e.translator,
		csrf:       e.csrf,
	}
	v.funcs = maps.Clone(e.funcs)
	v.funcs["__view"] = v.viewFilter
	v.funcs["__directive"] = v.runtimeFilter
	return v
}

// SetAuth sets the user, role and permissions seen by @auth, @guest and @can.
func (v *View) SetAuth(user any, role string, permissions ...string) *View {
	v.user, v.role, v.permissions = user, role, permissions
	return v
}

// SetCSRFToken sets the token printed by @csrf.
func (v *View) SetCSRFToken(token string) *View {
	v.csrfToken = token
	return v
}

// Set binds a variable in the running template and in the scope of later
// child renders. Composers use it to add data.
func (v *View) Set(name string, value any) {
	v.variables[name] = value
	if f := v.frame(); f != nil {
		f.env[name] = value
	}
}

// Get returns a variable of the running template.
func (v *View) Get(name string) (any, bool) {
	if f := v.frame(); f != nil {
		val, ok := f.env[name]
		return val, ok
	}
	val, ok := v.variables[name]
	return val, ok
}

// Name returns the template being executed.
func (v *View) Name() string {
	if f := v.frame(); f != nil {
		return f.name
	}
	return ""
}

// Run renders a template. Per-call data wins over shared variables.
func (v *View) Run(name string, data any) (string, error) {
	start := time.Now()
	out, err := v.run(data, func() (string, error) {
		return v.runInternal(name, v.variables)
	})
	v.engine.metrics.Rendered(normalizeName(name), time.Since(start), err)
	return out, err
}

// RunString compiles src on the fly and renders it.
func (v *View) RunString(src string, data any) (string, error) {
	return v.run(data, func() (string, error) {
		text, err := v.engine.compile("", src)
		if err != nil {
			return v.tolerated(err)
		}
		tmpl, err := parseTemplate("string", text)
		if err != nil {
			return "", err
		}
		return v.execute("", tmpl, v.variables)
	})
}

func (v *View) run(data any, fn func() (string, error)) (string, error) {
	vars, err := toVars(data)
	if err != nil {
		return "", err
	}
	maps.Copy(v.variables, vars)
	v.sections = map[string]string{}
	v.sectionStack = nil
	out, err := fn()
	if err != nil {
		return "", err
	}
	return strings.TrimLeft(out, " \t\n\r\x00\x0b"), nil
}

// runInternal loads and executes a template with vars.
func (v *View) runInternal(name string, vars map[string]any) (string, error) {
	c, err := v.engine.template(name)
	if err != nil {
		return v.tolerated(err)
	}
	return v.execute(c.name, c.tmpl, vars)
}

// runChild renders a nested template. Without IncludeScope the variables
// passed in stay visible to later children.
func (v *View) runChild(name string, vars map[string]any, isolate bool) (string, error) {
	saved := v.variables
	merged := maps.Clone(v.variables)
	maps.Copy(merged, vars)
	v.variables = merged
	out, err := v.runInternal(name, merged)
	if isolate || v.cfg.IncludeScope {
		v.variables = saved
	}
	return out, err
}

func (v *View) execute(name string, tmpl *template.Template, vars map[string]any) (string, error) {
	v.pass++
	env := make(map[string]any, len(vars))
	maps.Copy(env, vars)
	f := &frame{name: name, pass: v.pass, env: env, extends: map[int]bool{}}
	v.frames = append(v.frames, f)
	depth := len(v.captures)
	v.pushCapture(captureRender)
	defer func() { v.frames = v.frames[:len(v.frames)-1] }()

	for _, fn := range v.engine.composersFor(name) {
		fn(v)
	}

	err := tmpl.Execute(captureWriter{v}, v)
	if err == nil && v.deferred != nil {
		err, v.deferred = v.deferred, nil
	}
	if err != nil {
		v.captures = v.captures[:depth]
		var be *Error
		if errors.As(err, &be) {
			return "", be
		}
		return "", newError(ErrDirective, "Execute", name, true, err, "template execution failed")
	}
	out, err := v.popCapture(captureRender)
	if err != nil {
		v.captures = v.captures[:depth]
		return "", err
	}
	return out, nil
}

func (v *View) frame() *frame {
	if len(v.frames) == 0 {
		return nil
	}
	return v.frames[len(v.frames)-1]
}

func (v *View) env() map[string]any {
	if f := v.frame(); f != nil {
		return f.env
	}
	return v.variables
}

// captureWriter sends template output to the innermost capture.
type captureWriter struct{ v *View }

func (w captureWriter) Write(p []byte) (int, error) {
	return w.v.write(string(p)), nil
}

func (v *View) write(s string) int {
	if len(v.captures) == 0 {
		return len(s)
	}
	v.captures[len(v.captures)-1].buf.WriteString(s)
	return len(s)
}

func (v *View) pushCapture(kind captureKind) {
	v.captures = append(v.captures, &capture{kind: kind})
}

// popCapture ends the innermost capture, which must be of kind.
func (v *View) popCapture(kind captureKind) (string, error) {
	n := len(v.captures)
	if n == 0 {
		return "", v.unbalanced("cannot end a %s capture, none is open", kind)
	}
	top := v.captures[n-1]
	if top.kind != kind {
		return "", v.unbalanced("cannot end a %s capture while a %s capture is open", kind, top.kind)
	}
	v.captures = v.captures[:n-1]
	return top.buf.String(), nil
}

func (v *View) unbalanced(format string, a ...any) error {
	return newError(ErrUnbalancedCapture, "Capture", v.Name(), true, nil, format, a...)
}

// tolerated turns a soft error into an inline fragment when ThrowOnError
// is off.
func (v *View) tolerated(err error) (string, error) {
	if !v.soft(err) {
		return "", err
	}
	return errorFragment(err), nil
}

// fail reports err from a template method. A soft error is written inline
// and execution goes on.
func (v *View) fail(err error) error {
	if !v.soft(err) {
		return err
	}
	v.write(errorFragment(err))
	return nil
}

// deferFail records an error raised inside a loop iterator, where it
// cannot be returned.
func (v *View) deferFail(err error) {
	if err := v.fail(err); err != nil && v.deferred == nil {
		v.deferred = err
	}
}

func (v *View) soft(err error) bool {
	if v.cfg.ThrowOnError || isCritical(err) {
		return false
	}
	v.logger.Warn("render error", slog.String("template", v.Name()), slog.Any("error", err))
	return true
}

// eval evaluates a normalized expression in the running template.
func (v *View) eval(src string) (any, error) {
	out, err := v.engine.eval.Eval(src, &expression.Scope{Vars: v.env(), Funcs: v.funcs})
	if err != nil {
		return nil, newError(ErrExpression, "Expression", v.Name(), false, err, "cannot evaluate %q", src)
	}
	return out, nil
}

// list evaluates an argument list compiled as an array expression.
func (v *View) list(src string) ([]any, error) {
	out, err := v.eval(src)
	if err != nil {
		return nil, err
	}
	switch t := out.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	}
	return []any{out}, nil
}

func arg(list []any, i int) any {
	if i < len(list) {
		return list[i]
	}
	return nil
}

func argString(list []any, i int) string {
	return expression.Stringify(arg(list, i))
}

// toVars converts render data to variables: maps with string keys, or the
// exported fields of a struct, named by their blade tag when present.
func toVars(data any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(data))
	if rv.Kind() == reflect.Struct {
		out := map[string]any{}
		rt := rv.Type()
		for i := range rt.NumField() {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag := field.Tag.Get("blade"); tag != "" {
				if tag == "-" {
					continue
				}
				name = tag
			}
			out[name] = rv.Field(i).Interface()
		}
		return out, nil
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	}
	out, err := cast.ToStringMapE(data)
	if err != nil {
		return nil, fmt.Errorf("render data must be a map or struct: %w", err)
	}
	return out, nil
}
