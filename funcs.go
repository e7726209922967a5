package blade

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

var ugcPolicy = bluemonday.UGCPolicy()

// defaultFuncs are the functions every expression can call. They follow
// the PHP helpers of the same name.
func defaultFuncs(e *Engine) map[string]any {
	str := expression.Stringify
	escape := func(v any) HTML {
		e.mu.RLock()
		fn := e.escape
		e.mu.RUnlock()
		return HTML(fn(str(v)))
	}
	return map[string]any{
		"e":      escape,
		"escape": escape,
		"raw":    func(v any) HTML { return HTML(str(v)) },
		"count": func(v any) int {
			n, _ := expression.Len(v)
			return n
		},
		"empty": func(v any) bool { return !expression.Truthy(v) },
		"strlen": func(v any) int {
			return len(str(v))
		},
		"substr":     substr,
		"strtoupper": func(v any) string { return strings.ToUpper(str(v)) },
		"strtolower": func(v any) string { return strings.ToLower(str(v)) },
		"ucfirst": func(v any) string {
			s := str(v)
			r, size := utf8.DecodeRuneInString(s)
			if size == 0 {
				return s
			}
			return strings.ToUpper(string(r)) + s[size:]
		},
		"title":    func(v any) string { return cases.Title(language.Und).String(str(v)) },
		"slug":     func(v any) string { return slug.Make(str(v)) },
		"sanitize": func(v any) HTML { return HTML(ugcPolicy.Sanitize(str(v))) },
		"trim":     func(v any) string { return strings.TrimSpace(str(v)) },
		"nl2br": func(v any) HTML {
			return HTML(strings.ReplaceAll(str(v), "\n", "<br />\n"))
		},
		"number_format": numberFormat,
		"json_encode": func(v any) (string, error) {
			out, err := json.Marshal(v)
			return string(out), err
		},
		"md5": func(v any) string {
			sum := md5.Sum([]byte(str(v)))
			return hex.EncodeToString(sum[:])
		},
		"sha1": func(v any) string {
			sum := sha1.Sum([]byte(str(v)))
			return hex.EncodeToString(sum[:])
		},
		"implode": func(glue string, pieces any) (string, error) {
			var parts []string
			err := expression.Each(pieces, func(_, v any) bool {
				parts = append(parts, str(v))
				return true
			})
			return strings.Join(parts, glue), err
		},
		"explode": func(sep string, v any) []any {
			var out []any
			for _, p := range strings.Split(str(v), sep) {
				out = append(out, p)
			}
			return out
		},
		"str_replace": func(search, replace string, v any) string {
			return strings.ReplaceAll(str(v), search, replace)
		},
		"in_array": func(needle, haystack any) bool {
			found := false
			_ = expression.Each(haystack, func(_, v any) bool {
				found = expression.LooseEqual(needle, v)
				return !found
			})
			return found
		},
		"array_keys": func(v any) []any {
			var keys []any
			_ = expression.Each(v, func(k, _ any) bool {
				keys = append(keys, k)
				return true
			})
			return keys
		},
		"format": func(pattern string, a ...any) string {
			return fmt.Sprintf(pattern, a...)
		},
	}
}

// substr follows PHP: a negative start counts from the end, a negative
// length drops characters from the end.
func substr(v any, start int, length ...int) string {
	r := []rune(expression.Stringify(v))
	n := len(r)
	if start < 0 {
		start = max(n+start, 0)
	}
	if start >= n {
		return ""
	}
	end := n
	if len(length) > 0 {
		l := length[0]
		if l < 0 {
			end = max(n+l, start)
		} else {
			end = min(start+l, n)
		}
	}
	return string(r[start:end])
}

// numberFormat follows PHP number_format: decimals, decimal point and
// thousands separator.
func numberFormat(v any, opts ...any) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(expression.Stringify(v)))
	if err != nil {
		d = decimal.NewFromFloat(cast.ToFloat64(v))
	}
	decimals, point, sep := 0, ".", ","
	if len(opts) > 0 {
		decimals = cast.ToInt(opts[0])
	}
	if len(opts) > 1 {
		point = expression.Stringify(opts[1])
	}
	if len(opts) > 2 {
		sep = expression.Stringify(opts[2])
	}
	fixed := d.StringFixed(int32(decimals))
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	whole, frac, _ := strings.Cut(fixed, ".")

	var groups []string
	for len(whole) > 3 {
		groups = append(groups, whole[len(whole)-3:])
		whole = whole[:len(whole)-3]
	}
	groups = append(groups, whole)
	slices.Reverse(groups)

	out := strings.Join(groups, sep)
	if frac != "" {
		out += point + frac
	}
	if neg && strings.Trim(out, "0.,"+point+sep) != "" {
		out = "-" + out
	}
	return out, nil
}
