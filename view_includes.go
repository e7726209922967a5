package blade

import (
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

// includeArgs evaluates a view name and optional variables.
func (v *View) includeArgs(list []any, at int) (string, map[string]any, error) {
	vars, err := toVars(arg(list, at+1))
	if err != nil {
		return "", nil, newError(ErrDirective, "Include", v.Name(), false, err, "bad include data")
	}
	return argString(list, at), vars, nil
}

func (v *View) include(src string, at int, guard func(list []any, name string) bool) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	name, vars, err := v.includeArgs(list, at)
	if err != nil {
		return "", v.fail(err)
	}
	if guard != nil && !guard(list, name) {
		return "", nil
	}
	return v.runChild(name, vars, false)
}

// Include renders another template in place.
func (v *View) Include(src string) (string, error) {
	return v.include(src, 0, nil)
}

// IncludeIf renders a template only when it exists.
func (v *View) IncludeIf(src string) (string, error) {
	return v.include(src, 0, func(_ []any, name string) bool {
		return v.engine.Exists(name)
	})
}

// IncludeWhen renders a template when the first argument is truthy.
func (v *View) IncludeWhen(src string) (string, error) {
	return v.include(src, 1, func(list []any, _ string) bool {
		return expression.Truthy(arg(list, 0))
	})
}

// IncludeFirst renders the first existing template of a list.
func (v *View) IncludeFirst(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	var names []string
	if err := expression.Each(arg(list, 0), func(_, name any) bool {
		names = append(names, expression.Stringify(name))
		return true
	}); err != nil {
		names = []string{argString(list, 0)}
	}
	vars, err := toVars(arg(list, 1))
	if err != nil {
		return "", v.fail(newError(ErrDirective, "IncludeFirst", v.Name(), false, err, "bad include data"))
	}
	for _, name := range names {
		if v.engine.Exists(name) {
			return v.runChild(name, vars, false)
		}
	}
	return "", newError(ErrTemplateNotFound, "IncludeFirst", v.Name(), true, nil,
		"none of %s exists", strings.Join(names, ", "))
}

// RenderEach renders a template once per item, binding key and the item
// name. The fourth argument is rendered when the collection is empty; a
// "raw|" prefix makes it literal text.
func (v *View) RenderEach(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	view, itemName, empty := argString(list, 0), argString(list, 2), argString(list, 3)
	var b strings.Builder
	var ferr error
	seen := false
	if err := expression.Each(arg(list, 1), func(k, item any) bool {
		seen = true
		out, err := v.runChild(view, map[string]any{"key": k, itemName: item}, true)
		if err != nil {
			ferr = err
			return false
		}
		b.WriteString(out)
		return true
	}); err != nil {
		return "", v.fail(newError(ErrExpression, "Each", v.Name(), false, err, "cannot iterate"))
	}
	if ferr != nil {
		return "", ferr
	}
	if seen || empty == "" {
		return b.String(), nil
	}
	if text, ok := strings.CutPrefix(empty, "raw|"); ok {
		return text, nil
	}
	return v.runChild(empty, nil, true)
}

// Inject binds the service named by the second argument to a variable.
func (v *View) Inject(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	name, namespace := argString(list, 0), argString(list, 1)
	value, err := v.engine.inject(namespace, name)
	if err != nil {
		return "", v.fail(newError(ErrDirective, "Inject", v.Name(), false, err, "cannot inject %s", namespace))
	}
	v.env()[strings.TrimPrefix(name, "$")] = value
	return "", nil
}
