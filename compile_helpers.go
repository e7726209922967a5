package blade

import (
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

// call builds directives that print what a view method returns.
func call(method string) generator {
	return func(c *CompileContext, raw string) (string, error) {
		return action(method + " " + c.list(raw)), nil
	}
}

// compilePhp is the inline @php(statements) form. A bare @php without its
// @endphp stays as text.
func compilePhp(_ *CompileContext, raw string) (string, error) {
	if raw == "" {
		return "@php", nil
	}
	return action("$.Exec " + quoteStatements(args.StripParens(raw))), nil
}

// compileSet assigns, or increments when no value is given.
func compileSet(_ *CompileContext, raw string) (string, error) {
	stmt := strings.TrimSpace(args.StripParens(raw))
	if args.Index(stmt, '=') < 0 && !strings.HasSuffix(stmt, "++") && !strings.HasSuffix(stmt, "--") {
		stmt += "++"
	}
	return action("$.Exec " + quoteStatements(stmt)), nil
}

func compileUnset(_ *CompileContext, raw string) (string, error) {
	return action("$.Unset " + quote(args.StripParens(raw))), nil
}

func compileCSRF(*CompileContext, string) (string, error) {
	return rawCode(`<input type="hidden" name="_token" value="`) + action("$.CSRFToken") + rawCode(`"/>`), nil
}

func compileMethod(c *CompileContext, raw string) (string, error) {
	return rawCode(`<input type="hidden" name="_method" value="`) + action("$.Echo "+c.expr(raw)) + rawCode(`"/>`), nil
}

func compileUser(*CompileContext, string) (string, error) {
	return action("$.CurrentUser"), nil
}

// compileUse accepts @use(Namespace\Class) and emits nothing.
func compileUse(*CompileContext, string) (string, error) {
	return "", nil
}
