package blade

import (
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

// statement is one @name or @name(args) occurrence in literal text.
type statement struct {
	start, end int
	name       string
	// rawArgs keeps the parentheses; it is empty when there are none
	rawArgs string
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// nextStatement finds the first statement at or after from. The argument
// group is matched by balancing brackets and quotes, so nested calls such
// as @if(count($a) > (1)) are taken whole.
func nextStatement(text string, from int) (statement, bool) {
	for i := from; i < len(text); i++ {
		if text[i] != '@' || i > 0 && isWordByte(text[i-1]) {
			continue
		}
		j := i + 1
		if j < len(text) && text[j] == '@' {
			j++
		}
		nameStart := j
		for j < len(text) && isWordByte(text[j]) {
			j++
		}
		if j == nameStart {
			continue
		}
		if j+2 < len(text) && text[j:j+2] == "::" && isWordByte(text[j+2]) {
			j += 2
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
		}
		st := statement{start: i, end: j, name: text[i+1 : j]}
		k := j
		for k < len(text) && (text[k] == ' ' || text[k] == '\t') {
			k++
		}
		if k < len(text) && text[k] == '(' {
			if end := args.MatchGroup(text, k); end > 0 {
				st.rawArgs = text[k:end]
				st.end = end
			}
		}
		return st, true
	}
	return statement{}, false
}

// compileStatements replaces every directive in a literal segment.
func (c *CompileContext) compileStatements(text string) (string, error) {
	var b strings.Builder
	last := 0
	for {
		st, ok := nextStatement(text, last)
		if !ok {
			break
		}
		b.WriteString(text[last:st.start])
		out, err := c.compileStatement(st, text[st.start:st.end])
		if err != nil {
			return "", err
		}
		b.WriteString(out)
		last = st.end
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func (c *CompileContext) compileStatement(st statement, source string) (string, error) {
	name := st.name
	switch {
	case strings.HasPrefix(name, "@"):
		return protect(source[1:]), nil
	case strings.Contains(name, "::"):
		class, method, _ := strings.Cut(name, "::")
		return action("$.CallStatic " + quote(class) + " " + quote(method) + " " + c.list(st.rawArgs)), nil
	}

	d, ok := c.engine.lookup(name)
	switch {
	case ok && d.runtime != nil:
		return action("$.CallDirective " + quote(name) + " " + c.list(st.rawArgs)), nil
	case ok && d.gen != nil:
		return d.gen(c, st.rawArgs)
	case c.engine.cfg.Strict:
		return "", c.critical(ErrUnknownDirective, "Statement", "unknown directive @%s", name)
	}
	return source, nil
}
