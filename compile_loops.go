package blade

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

var reForeach = regexp.MustCompile(`(?is)^(.+?)\s+as\s+(.+)$`)

// foreachHeader splits "$items as $k => $v" into the collection expression
// and the names bound per iteration.
func (c *CompileContext) foreachHeader(raw string) (string, error) {
	m := reForeach.FindStringSubmatch(strings.TrimSpace(args.StripParens(raw)))
	if m == nil {
		return "", c.fail(ErrDirective, "Foreach", "malformed @foreach header %q", raw)
	}
	key, val := "", m[2]
	if k, v, ok := strings.Cut(m[2], "=>"); ok {
		key, val = k, v
	}
	name := func(s string) string { return strings.TrimPrefix(strings.TrimSpace(s), "$") }
	return "range $.Foreach " + quoteExpr(m[1]) + " " + quote(name(key)) + " " + quote(name(val)), nil
}

func compileForeach(c *CompileContext, raw string) (string, error) {
	header, err := c.foreachHeader(raw)
	if err != nil {
		return "", err
	}
	c.pushBlock("loop")
	return action(header), nil
}

func compileEndLoop(c *CompileContext, _ string) (string, error) {
	c.popBlock("loop")
	return action("end"), nil
}

func compileForelse(c *CompileContext, raw string) (string, error) {
	header, err := c.foreachHeader(raw)
	if err != nil {
		return "", err
	}
	f := &forelseState{id: c.nextID()}
	c.forelse = append(c.forelse, f)
	c.pushBlock("loop")
	return action(fmt.Sprintf("$__empty_%d := true", f.id)) +
		action(header) +
		action(fmt.Sprintf("$__empty_%d = false", f.id)), nil
}

func compileEndForelse(c *CompileContext, _ string) (string, error) {
	if len(c.forelse) == 0 {
		return "", c.critical(ErrDirective, "EndForelse", "@endforelse without @forelse")
	}
	f := c.forelse[len(c.forelse)-1]
	c.forelse = c.forelse[:len(c.forelse)-1]
	if !f.emptied {
		c.popBlock("loop")
	}
	return action("end"), nil
}

// compileFor maps "$i = 0; $i < 10; $i++" onto the runtime loop.
func compileFor(c *CompileContext, raw string) (string, error) {
	parts := strings.SplitN(args.StripParens(raw), ";", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	c.pushBlock("loop")
	return action("range $.For " + quoteStatements(parts[0]) + " " + quoteExpr(parts[1]) + " " + quoteStatements(parts[2])), nil
}

func compileWhile(c *CompileContext, raw string) (string, error) {
	c.pushBlock("loop")
	return action("range $.While " + c.expr(raw)), nil
}

// jump builds @break and @continue. A bare @break inside a switch ends the
// case, which the generated if-chain already does.
func jump(keyword string) generator {
	return func(c *CompileContext, raw string) (string, error) {
		if raw != "" {
			return action("if $.Truthy "+c.expr(raw)) + action(keyword) + action("end"), nil
		}
		if keyword == "break" && c.innerBlock() == "switch" {
			return "", nil
		}
		return action(keyword), nil
	}
}
