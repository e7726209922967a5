package blade

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

type echoKind int

const (
	echoRaw echoKind = iota
	echoEscaped
	echoRegular
)

// tagFamily is one configured echo delimiter pair with its matchers.
type tagFamily struct {
	Tags
	kind    echoKind
	re      *regexp.Regexp
	comment *regexp.Regexp
}

func newTagFamily(kind echoKind, t Tags) tagFamily {
	open, close := regexp.QuoteMeta(t.Open), regexp.QuoteMeta(t.Close)
	return tagFamily{
		Tags:    t,
		kind:    kind,
		re:      regexp.MustCompile(`(?s)(@)?` + open + `\s*(.+?)\s*` + close + `(\r?\n)?`),
		comment: regexp.MustCompile(`(?s)` + regexp.QuoteMeta(t.Open+"--") + `.*?` + regexp.QuoteMeta("--"+t.Close)),
	}
}

var reDefault = regexp.MustCompile(`(?si)^(.+?)\s+or\s+(.+)$`)

// view methods reachable as pipe filters
var viewFilters = map[string]bool{"e": true, "format": true, "json": true, "dump": true}

// families returns the echo families, longest opening tag first. Ties keep
// the raw, escaped, regular order.
func (c *CompileContext) families() []tagFamily {
	fams := slices.Clone(c.engine.tags[:])
	slices.SortStableFunc(fams, func(a, b tagFamily) int {
		return len(b.Open) - len(a.Open)
	})
	return fams
}

// compileEchos compiles the echo tags of a literal segment. Every family
// works on what the previous one left as literal text.
func (c *CompileContext) compileEchos(text string) (string, error) {
	for _, f := range c.families() {
		var err error
		text, err = mapLiteral(text, func(seg string) (string, error) {
			return c.compileFamily(f, seg), nil
		})
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func (c *CompileContext) compileFamily(f tagFamily, text string) string {
	return f.re.ReplaceAllStringFunc(text, func(match string) string {
		m := f.re.FindStringSubmatch(match)
		if m[1] != "" {
			return protect(match[1:])
		}
		if f.kind == echoRaw {
			return action("$.Raw "+quoteExpr(m[2])) + m[3]
		}
		return action("$.Echo "+quoteExpr(c.echoExpr(m[2]))) + m[3]
	})
}

// echoExpr applies the "or" default and the pipe chain.
func (c *CompileContext) echoExpr(expr string) string {
	if strings.HasPrefix(expr, "$") {
		if m := reDefault.FindStringSubmatch(expr); m != nil {
			expr = "(" + m[1] + ") ?? (" + m[2] + ")"
		}
	}
	if c.engine.cfg.Pipes {
		expr = c.pipeline(expr)
	}
	return expr
}

// pipeline folds "a | f | g:x" into g(f(a), x). A stage starting with a
// literal becomes a fallback for the value so far.
func (c *CompileContext) pipeline(expr string) string {
	stages := splitPipes(expr)
	out := stages[0]
	for _, stage := range stages[1:] {
		if stage == "" {
			continue
		}
		if isLiteralStart(stage[0]) {
			out = "(" + out + ") ?? (" + stage + ")"
			continue
		}
		name, rest := stage, ""
		if i := args.Index(stage, ':'); i >= 0 {
			name, rest = strings.TrimSpace(stage[:i]), strings.TrimSpace(stage[i+1:])
		}
		call := out
		if rest != "" {
			call += ", " + rest
		}
		if d, ok := c.engine.lookup(name); ok && (d.runtime != nil || d.text != nil) {
			out = `__directive(` + quote(name) + `, ` + call + `)`
		} else if viewFilters[name] {
			out = `__view(` + quote(name) + `, ` + call + `)`
		} else {
			out = name + "(" + call + ")"
		}
	}
	return out
}

// splitPipes cuts expr on top-level single bars; || is left alone.
func splitPipes(expr string) []string {
	var parts []string
	rest, offset := expr, 0
	for {
		i := args.Index(rest[offset:], '|')
		if i < 0 {
			break
		}
		i += offset
		if i+1 < len(rest) && rest[i+1] == '|' {
			offset = i + 2
			continue
		}
		parts = append(parts, strings.TrimSpace(rest[:i]))
		rest, offset = rest[i+1:], 0
	}
	return append(parts, strings.TrimSpace(rest))
}

func isLiteralStart(c byte) bool {
	return c == '\'' || c == '"' || c == '$' || c >= '0' && c <= '9'
}
