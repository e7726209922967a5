package blade

import (
	"strconv"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

// CompileContext is the state of one compilation: the footer lines, open
// switches, loops and captures, and a counter for unique ids.
type CompileContext struct {
	engine *Engine
	// Name is the template being compiled, empty for strings.
	Name string

	footer   []string
	uid      int
	switches []*switchState
	// blocks tracks open loops and switches, innermost last
	blocks   []string
	forelse  []*forelseState
	captures map[string]int
}

type forelseState struct {
	id      int
	emptied bool
}

type switchState struct {
	id        int
	firstCase bool
}

func newCompileContext(e *Engine, name string) *CompileContext {
	return &CompileContext{engine: e, Name: name, captures: map[string]int{}}
}

func (c *CompileContext) nextID() int {
	c.uid++
	return c.uid
}

func (c *CompileContext) open(kind string) {
	c.captures[kind]++
}

// close ends a capture opened in this template. Ending one that was never
// started is fatal.
func (c *CompileContext) close(kind, directive string) error {
	if c.captures[kind] == 0 {
		return c.critical(ErrUnbalancedCapture, "Capture", "@%s without a matching @%s", directive, kind)
	}
	c.captures[kind]--
	return nil
}

func (c *CompileContext) pushBlock(kind string) {
	c.blocks = append(c.blocks, kind)
}

func (c *CompileContext) popBlock(kind string) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if c.blocks[i] == kind {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return
		}
	}
}

func (c *CompileContext) innerBlock() string {
	if len(c.blocks) == 0 {
		return ""
	}
	return c.blocks[len(c.blocks)-1]
}

func (c *CompileContext) critical(kind error, id, format string, a ...any) error {
	return newError(kind, id, c.Name, true, nil, format, a...)
}

func (c *CompileContext) fail(kind error, id, format string, a ...any) error {
	return newError(kind, id, c.Name, false, nil, format, a...)
}

// expr quotes the directive argument as one expression.
func (c *CompileContext) expr(raw string) string {
	return quoteExpr(args.StripParens(raw))
}

// list quotes the directive arguments as one array expression.
func (c *CompileContext) list(raw string) string {
	return quote(expression.Normalize("[" + args.StripParens(raw) + "]"))
}

// argc counts the top-level arguments.
func (c *CompileContext) argc(raw string) int {
	return len(args.Split(args.StripParens(raw), ','))
}

func quote(s string) string { return strconv.Quote(s) }

func quoteExpr(s string) string { return strconv.Quote(expression.Normalize(s)) }

func quoteStatements(s string) string { return quoteExpr(s) }
