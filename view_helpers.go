package blade

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

// Echo prints the escaped value of an expression. HTML values are printed
// as is.
func (v *View) Echo(src string) (string, error) {
	val, err := v.eval(src)
	if err != nil {
		return "", v.fail(err)
	}
	return v.escape(val), nil
}

// Raw prints the value of an expression without escaping.
func (v *View) Raw(src string) (string, error) {
	val, err := v.eval(src)
	if err != nil {
		return "", v.fail(err)
	}
	return expression.Stringify(val), nil
}

func (v *View) escape(val any) string {
	if h, ok := val.(HTML); ok {
		return string(h)
	}
	return v.hooks.escape(expression.Stringify(val))
}

// Truthy evaluates a condition.
func (v *View) Truthy(src string) (bool, error) {
	ok, err := v.truthy(src)
	if err != nil {
		return false, v.fail(err)
	}
	return ok, nil
}

// Value evaluates an expression, for @switch.
func (v *View) Value(src string) (any, error) {
	val, err := v.eval(src)
	if err != nil {
		return nil, v.fail(err)
	}
	return val, nil
}

// Case compares a switch subject with a case expression loosely.
func (v *View) Case(subject any, src string) (bool, error) {
	val, err := v.eval(src)
	if err != nil {
		return false, v.fail(err)
	}
	return expression.LooseEqual(subject, val), nil
}

// Check runs the predicate registered with Engine.If.
func (v *View) Check(name, src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	fn, ok := v.engine.condition(name)
	if !ok {
		return false, v.fail(newError(ErrDirective, "Check", v.Name(), false, nil, "no condition named %q", name))
	}
	return fn(list...), nil
}

// Auth reports whether a user is set, and with an argument, whether the
// user has that role.
func (v *View) Auth(src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	if v.user == nil {
		return false, nil
	}
	return len(list) == 0 || argString(list, 0) == v.role, nil
}

// Guest is the negation of Auth.
func (v *View) Guest(src string) (bool, error) {
	ok, err := v.Auth(src)
	return !ok, err
}

// Can asks the authorization callback about an action and an optional
// subject.
func (v *View) Can(src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	return v.hooks.can(v, argString(list, 0), arg(list, 1)), nil
}

// Cannot is the negation of Can.
func (v *View) Cannot(src string) (bool, error) {
	ok, err := v.Can(src)
	return !ok, err
}

// CanAny reports whether any of the listed actions is allowed.
func (v *View) CanAny(src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	var actions []string
	for _, a := range list {
		if err := expression.Each(a, func(_, item any) bool {
			actions = append(actions, expression.Stringify(item))
			return true
		}); err != nil {
			actions = append(actions, expression.Stringify(a))
		}
	}
	return v.hooks.canAny(v, actions), nil
}

// ErrorFor reports whether the error callback has a message for a key and
// binds it to $message.
func (v *View) ErrorFor(src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	msg := v.hooks.errorFn(v, argString(list, 0))
	if msg == "" {
		return false, nil
	}
	v.env()["message"] = msg
	return true, nil
}

// JSON prints a value as json; a truthy second argument indents it.
func (v *View) JSON(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	out, err := marshal(arg(list, 0), expression.Truthy(arg(list, 1)))
	if err != nil {
		return "", v.fail(newError(ErrDirective, "JSON", v.Name(), false, err, "cannot encode value"))
	}
	return out, nil
}

func marshal(val any, indent bool) (string, error) {
	var out []byte
	var err error
	if indent {
		out, err = json.MarshalIndent(val, "", "    ")
	} else {
		out, err = json.Marshal(val)
	}
	return string(out), err
}

// CSRFToken returns the token set on the View, or the one from the engine
// callback.
func (v *View) CSRFToken() string {
	if v.csrfToken == "" && v.hooks.csrf != nil {
		return v.hooks.csrf(v)
	}
	return v.csrfToken
}

// CurrentUser prints the user set with SetAuth.
func (v *View) CurrentUser() string {
	return v.escape(v.user)
}

// Dump prints its arguments as indented json inside a pre block.
func (v *View) Dump(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	var b strings.Builder
	for _, val := range list {
		b.WriteString("<pre>")
		b.WriteString(v.hooks.escape(dump(val)))
		b.WriteString("</pre>")
	}
	return b.String(), nil
}

func dump(val any) string {
	if out, err := marshal(val, true); err == nil {
		return out
	}
	return fmt.Sprintf("%#v", val)
}

func (v *View) translate(phrase string) string {
	if v.hooks.translator != nil {
		if out, ok := v.hooks.translator.Translate(phrase); ok {
			return out
		}
	}
	return phrase
}

// Translate prints the translation of a phrase, or the phrase itself.
func (v *View) Translate(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	return v.translate(argString(list, 0)), nil
}

// TranslateFormat translates a phrase and formats it with the remaining
// arguments.
func (v *View) TranslateFormat(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	if len(list) < 2 {
		return v.translate(argString(list, 0)), nil
	}
	return fmt.Sprintf(v.translate(argString(list, 0)), list[1:]...), nil
}

// TranslatePlural picks the singular or plural phrase by count.
func (v *View) TranslatePlural(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	phrase := argString(list, 0)
	if toInt(arg(list, 2)) > 1 {
		phrase = argString(list, 1)
	}
	return fmt.Sprintf(v.translate(phrase), arg(list, 2)), nil
}

// CallDirective runs a directive registered with DirectiveRT.
func (v *View) CallDirective(name, src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	out, err := v.runtimeFilter(name, list...)
	if err != nil {
		return "", v.fail(err)
	}
	return out, nil
}

// CallStatic runs a function registered with Engine.Static and prints its
// result.
func (v *View) CallStatic(class, method, src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	fn, ok := v.engine.static(class, method)
	if !ok {
		return "", v.fail(newError(ErrDirective, "Static", v.Name(), false, nil, "no static %s::%s", class, method))
	}
	out, err := fn(list...)
	if err != nil {
		return "", v.fail(newError(ErrDirective, "Static", v.Name(), false, err, "%s::%s failed", class, method))
	}
	return expression.Stringify(out), nil
}

// runtimeFilter backs __directive in expressions.
func (v *View) runtimeFilter(name string, params ...any) (string, error) {
	fn, ok := v.engine.filterDirective(name)
	if !ok {
		return "", newError(ErrDirective, "Directive", v.Name(), false, nil, "no directive %q", name)
	}
	out, err := fn(params...)
	if err != nil {
		return "", newError(ErrDirective, "Directive", v.Name(), false, err, "@%s failed", name)
	}
	return out, nil
}

// viewFilter backs __view: the View methods usable as pipe filters.
func (v *View) viewFilter(name string, params ...any) (any, error) {
	val := arg(params, 0)
	switch name {
	case "e":
		return HTML(v.escape(val)), nil
	case "format":
		pattern := "%v"
		if len(params) > 1 {
			pattern = argString(params, 1)
		}
		return fmt.Sprintf(pattern, val), nil
	case "json":
		return marshal(val, expression.Truthy(arg(params, 1)))
	case "dump":
		return HTML("<pre>" + v.hooks.escape(dump(val)) + "</pre>"), nil
	}
	return nil, fmt.Errorf("unknown view filter %q", name)
}

func toInt(v any) int {
	return cast.ToInt(v)
}
