// Package expression translates Blade expressions into expr-lang programs
// and evaluates them against a Scope of variables and functions.
package expression

import (
	"bytes"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

type bracket struct {
	pos   int
	kind  byte
	isMap bool
}

// Normalize rewrites the PHP flavoured parts of a Blade expression into expr
// syntax. Quoted strings are copied untouched.
func Normalize(src string) string {
	src = strings.TrimSpace(src)
	out := make([]byte, 0, len(src)+8)
	var stack []bracket
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := quoteEnd(src, i)
			out = append(out, src[i:end]...)
			i = end
		case c == '$' && i+1 < len(src) && isIdentStart(src[i+1]):
			i++
		case strings.HasPrefix(src[i:], "->"):
			out = append(out, "?."...)
			i += 2
		case strings.HasPrefix(src[i:], "===") || strings.HasPrefix(src[i:], "!=="):
			out = append(out, src[i:i+2]...)
			i += 3
		case strings.HasPrefix(src[i:], "=>"):
			if n := len(stack); n > 0 && stack[n-1].kind == '[' {
				stack[n-1].isMap = true
			}
			out = append(bytes.TrimRight(out, " \t"), ':')
			i += 2
		case c == '[' || c == '(' || c == '{':
			stack = append(stack, bracket{pos: len(out), kind: c})
			out = append(out, c)
			i++
		case c == ']' || c == ')' || c == '}':
			if n := len(stack); n > 0 {
				b := stack[n-1]
				stack = stack[:n-1]
				if b.isMap && c == ']' {
					out[b.pos] = '{'
					c = '}'
				}
			}
			out = append(out, c)
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			if lastNonSpace(out) == '.' {
				out = append(out, word...)
				i = j
				continue
			}
			switch word {
			case "null", "NULL":
				out = append(out, "nil"...)
			case "isset":
				if end, rewritten, ok := rewriteIsset(src, j); ok {
					out = append(out, rewritten...)
					i = end
					continue
				}
				out = append(out, word...)
			default:
				out = append(out, word...)
			}
			i = j
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// rewriteIsset turns isset(a, b) into a nil check of every argument.
func rewriteIsset(src string, from int) (int, string, bool) {
	k := from
	for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
		k++
	}
	if k >= len(src) || src[k] != '(' {
		return 0, "", false
	}
	end := args.MatchGroup(src, k)
	if end < 0 {
		return 0, "", false
	}
	parts := args.Split(src[k+1:end-1], ',')
	if len(parts) == 0 {
		return end, "false", true
	}
	checks := make([]string, 0, len(parts))
	for _, p := range parts {
		checks = append(checks, "("+Normalize(p)+") != nil")
	}
	return end, "(" + strings.Join(checks, " && ") + ")", true
}

func quoteEnd(src string, i int) int {
	if src[i] == '`' {
		if j := strings.IndexByte(src[i+1:], '`'); j >= 0 {
			return i + j + 2
		}
		return len(src)
	}
	if end := args.MatchQuote(src, i); end > 0 {
		return end
	}
	return len(src)
}

func lastNonSpace(out []byte) byte {
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != ' ' && out[i] != '\t' {
			return out[i]
		}
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
