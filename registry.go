package blade

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

// DirectiveFunc generates template code for @name(args) at compile time. It
// receives the argument text without the surrounding parentheses and
// returns generated text that is inserted as is. Use Action, Echo and
// RawEcho to build it.
type DirectiveFunc func(args string) string

// RuntimeDirectiveFunc runs @name(args) when the template executes. The
// arguments are evaluated first; the returned text is printed raw.
type RuntimeDirectiveFunc func(args ...any) (string, error)

// ConditionFunc backs a custom @name / @elsename / @endname family.
type ConditionFunc func(args ...any) bool

// StaticFunc backs an @Class::method(args) call.
type StaticFunc func(args ...any) (any, error)

// ComposerFunc runs before a matching view renders.
type ComposerFunc func(v *View)

// AuthFunc decides @can / @cannot.
type AuthFunc func(v *View, action string, subject any) bool

// AnyAuthFunc decides @canany.
type AnyAuthFunc func(v *View, actions []string) bool

// ErrorFunc returns the validation message for key, or "" when there is none.
type ErrorFunc func(v *View, key string) string

// InjectResolver resolves @inject('name', 'namespace').
type InjectResolver func(namespace, name string) (any, error)

// Translator looks up phrases for @_e, @_ef and @_n.
type Translator interface {
	Translate(phrase string) (string, bool)
}

// CSRFFunc returns the token printed by @csrf.
type CSRFFunc func(v *View) string

// generator is the compile-time side of a directive. rawArgs keeps the
// parentheses and is empty when the directive had none.
type generator func(c *CompileContext, rawArgs string) (string, error)

type directive struct {
	gen     generator
	runtime RuntimeDirectiveFunc
	// text is the handler of a compile-time custom directive, kept so the
	// directive can also serve as a pipe filter.
	text   DirectiveFunc
	custom bool
}

type composer struct {
	pattern string
	fn      ComposerFunc
}

// Directive registers a compile-time directive.
func (e *Engine) Directive(name string, fn DirectiveFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.directives[name] = directive{custom: true, text: fn, gen: func(_ *CompileContext, raw string) (string, error) {
		return rawCode(fn(args.StripParens(raw))), nil
	}}
}

// DirectiveRT registers a directive that runs at execution time. It can
// also be used as a pipe filter.
func (e *Engine) DirectiveRT(name string, fn RuntimeDirectiveFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.directives[name] = directive{custom: true, runtime: fn}
}

// If registers @name(args), @elsename(args) and @endname backed by fn.
func (e *Engine) If(name string, fn ConditionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conditions[name] = fn
	check := func(prefix string) generator {
		return func(c *CompileContext, raw string) (string, error) {
			return action(prefix + "$.Check " + quote(name) + " " + c.list(raw)), nil
		}
	}
	e.directives[name] = directive{custom: true, gen: check("if ")}
	e.directives["else"+name] = directive{custom: true, gen: check("else if ")}
	e.directives["end"+name] = directive{custom: true, gen: compileEnd}
}

// AddInclude registers @alias(args) as a shortcut for @include(view, args).
// The alias defaults to the last segment of the view name.
func (e *Engine) AddInclude(view string, alias ...string) {
	name := view[strings.LastIndexAny(view, "./")+1:]
	if len(alias) > 0 && alias[0] != "" {
		name = alias[0]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.directives[name] = directive{custom: true, gen: func(c *CompileContext, raw string) (string, error) {
		rest := args.StripParens(raw)
		list := "'" + strings.ReplaceAll(view, "'", `\'`) + "'"
		if rest != "" {
			list += ", " + rest
		}
		return action("$.Include " + c.list("("+list+")")), nil
	}}
}

// AddAlias maps a class alias used in @Alias::method to its full name.
func (e *Engine) AddAlias(alias, fullName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aliases[alias] = fullName
}

// Static registers the target of @Class::method calls. name is the full
// "Class::method" form, after alias resolution.
func (e *Engine) Static(name string, fn StaticFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statics[name] = fn
}

// Func makes fn callable from every expression and as a pipe filter. It
// takes precedence over an expr builtin of the same name.
func (e *Engine) Func(name string, fn any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.funcs[name] = fn
	e.eval.Shadow(name)
}

// Share sets a variable visible to every render. Per-render data wins.
func (e *Engine) Share(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shared[name] = value
}

// ShareMap shares every entry of vars.
func (e *Engine) ShareMap(vars map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	maps.Copy(e.shared, vars)
}

// Composer runs fn before every view whose name matches one of patterns.
// A pattern may start and/or end with *.
func (e *Engine) Composer(fn ComposerFunc, patterns ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range patterns {
		e.composers = append(e.composers, composer{pattern: p, fn: fn})
	}
}

// Extension adds a transform applied to every literal segment before the
// built-in compile passes.
func (e *Engine) Extension(fn func(string) string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extensions = append(e.extensions, fn)
}

// AfterCompile adds a transform applied once to every compiled template.
func (e *Engine) AfterCompile(fn func(compiled, name string) string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.afterCompile = append(e.afterCompile, fn)
}

// SetAuthFunc replaces the @can predicate.
func (e *Engine) SetAuthFunc(fn AuthFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.can = fn
}

// SetAnyAuthFunc replaces the @canany predicate.
func (e *Engine) SetAnyAuthFunc(fn AnyAuthFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canAny = fn
}

// SetErrorFunc replaces the @error lookup.
func (e *Engine) SetErrorFunc(fn ErrorFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorFn = fn
}

// SetInjectResolver replaces the @inject resolver.
func (e *Engine) SetInjectResolver(fn InjectResolver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolver = fn
}

// Provide registers a factory used by @inject when no resolver is set.
func (e *Engine) Provide(namespace string, factory func() any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.services[namespace] = factory
}

// SetTranslator sets the dictionary used by @_e, @_ef and @_n.
func (e *Engine) SetTranslator(t Translator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.translator = t
}

// SetCSRFFunc replaces the @csrf token source.
func (e *Engine) SetCSRFFunc(fn CSRFFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.csrf = fn
}

// lookup resolves a directive name. Registered names match exactly;
// built-ins also match case-insensitively.
func (e *Engine) lookup(name string) (directive, bool) {
	if d, ok := e.directives[name]; ok {
		return d, true
	}
	d, ok := e.directives[strings.ToLower(name)]
	if ok && d.custom {
		return directive{}, false
	}
	return d, ok
}

func (e *Engine) runtimeDirective(name string) (RuntimeDirectiveFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.directives[name]
	if !ok || d.runtime == nil {
		return nil, false
	}
	return d.runtime, true
}

// filterDirective returns a custom directive usable as a pipe filter. A
// compile-time handler receives the piped values joined by ", " and its
// result is the filtered value.
func (e *Engine) filterDirective(name string) (RuntimeDirectiveFunc, bool) {
	if fn, ok := e.runtimeDirective(name); ok {
		return fn, true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.directives[name]
	if !ok || d.text == nil {
		return nil, false
	}
	text := d.text
	return func(params ...any) (string, error) {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = expression.Stringify(p)
		}
		return text(strings.Join(parts, ", ")), nil
	}, true
}

func (e *Engine) condition(name string) (ConditionFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.conditions[name]
	return fn, ok
}

func (e *Engine) static(class, method string) (StaticFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if full, ok := e.aliases[class]; ok {
		class = full
	}
	fn, ok := e.statics[class+"::"+method]
	return fn, ok
}

// composersFor returns the composers matching a view name, in registration order.
func (e *Engine) composersFor(name string) []ComposerFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []ComposerFunc
	for _, c := range e.composers {
		if wildcardMatch(name, c.pattern) {
			out = append(out, c.fn)
		}
	}
	return out
}

// wildcardMatch compares text with a pattern that may start and/or end
// with *.
func wildcardMatch(text, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return text == pattern
	}
	if pattern == "*" || pattern == "**" {
		return true
	}
	clean := strings.ReplaceAll(pattern, "*", "")
	p := strings.Index(text, clean)
	if p < 0 {
		return false
	}
	head, tail := pattern[0] == '*', pattern[len(pattern)-1] == '*'
	switch {
	case head && tail:
		return true
	case tail:
		return p == 0
	case head:
		return strings.HasSuffix(text, clean)
	}
	return false
}

func defaultCan(v *View, action string, _ any) bool {
	return slices.Contains(v.permissions, action)
}

func defaultCanAny(v *View, actions []string) bool {
	for _, a := range actions {
		if slices.Contains(v.permissions, a) {
			return true
		}
	}
	return false
}

// inject resolves a service for @inject. The resolver wins over factories
// registered with Provide.
func (e *Engine) inject(namespace, name string) (any, error) {
	e.mu.RLock()
	resolver, factory := e.resolver, e.services[namespace]
	e.mu.RUnlock()
	switch {
	case resolver != nil:
		return resolver(namespace, name)
	case factory != nil:
		return factory(), nil
	}
	return nil, fmt.Errorf("no service registered for %q", namespace)
}
