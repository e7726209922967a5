package blade

import (
	"fmt"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

func compileEnd(*CompileContext, string) (string, error) {
	return action("end"), nil
}

func compileElse(*CompileContext, string) (string, error) {
	return action("else"), nil
}

func compileIf(c *CompileContext, raw string) (string, error) {
	return action("if $.Truthy " + c.expr(raw)), nil
}

func compileElseIf(c *CompileContext, raw string) (string, error) {
	return action("else if $.Truthy " + c.expr(raw)), nil
}

func compileUnless(c *CompileContext, raw string) (string, error) {
	return action("if not ($.Truthy " + c.expr(raw) + ")"), nil
}

func compileIsset(c *CompileContext, raw string) (string, error) {
	return action("if $.Truthy " + quoteExpr("isset("+args.StripParens(raw)+")")), nil
}

// compileEmpty is @empty(expr) as a condition, or the else branch of
// @forelse when it has no arguments.
func compileEmpty(c *CompileContext, raw string) (string, error) {
	if raw != "" {
		return action("if $.Truthy " + quoteExpr("empty("+args.StripParens(raw)+")")), nil
	}
	if len(c.forelse) == 0 {
		return "", c.critical(ErrDirective, "Empty", "@empty without an open @forelse")
	}
	f := c.forelse[len(c.forelse)-1]
	if !f.emptied {
		f.emptied = true
		c.popBlock("loop")
	}
	return action("end") + action(fmt.Sprintf("if $__empty_%d", f.id)), nil
}

// compileSwitch hides the text up to the first @case in a template comment,
// since text/template has no switch.
func compileSwitch(c *CompileContext, raw string) (string, error) {
	s := &switchState{id: c.nextID(), firstCase: true}
	c.switches = append(c.switches, s)
	c.pushBlock("switch")
	return action(fmt.Sprintf("$__switch_%d := $.Value %s", s.id, c.expr(raw))) + rawCode(ActionOpen+"/*"), nil
}

func compileCase(c *CompileContext, raw string) (string, error) {
	if len(c.switches) == 0 {
		return "", c.critical(ErrSwitchNesting, "Case", "@case outside of @switch")
	}
	s := c.switches[len(c.switches)-1]
	cond := fmt.Sprintf("$.Case $__switch_%d %s", s.id, c.expr(raw))
	if s.firstCase {
		s.firstCase = false
		return rawCode("*/"+ActionClose) + action("if "+cond), nil
	}
	return action("else if " + cond), nil
}

func compileDefault(c *CompileContext, _ string) (string, error) {
	if len(c.switches) == 0 {
		return "", c.critical(ErrSwitchNesting, "Default", "@default outside of @switch")
	}
	if c.switches[len(c.switches)-1].firstCase {
		return "", c.critical(ErrSwitchNesting, "Default", "@default before any @case")
	}
	return action("else"), nil
}

func compileEndSwitch(c *CompileContext, _ string) (string, error) {
	if len(c.switches) == 0 {
		return "", c.critical(ErrSwitchNesting, "EndSwitch", "@endswitch without @switch")
	}
	s := c.switches[len(c.switches)-1]
	c.switches = c.switches[:len(c.switches)-1]
	c.popBlock("switch")
	if s.firstCase {
		return rawCode("*/" + ActionClose), nil
	}
	return action("end"), nil
}

// conditional builds the if / else-if pair of a predicate family.
func conditional(method string) (open, orElse generator) {
	open = func(c *CompileContext, raw string) (string, error) {
		return action("if " + method + " " + c.list(raw)), nil
	}
	orElse = func(c *CompileContext, raw string) (string, error) {
		return action("else if " + method + " " + c.list(raw)), nil
	}
	return open, orElse
}
