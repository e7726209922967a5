package blade

import (
	"fmt"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
)

// parentPlaceholder marks where @parent content goes in a section body.
const parentPlaceholder = "##parent-placeholder-d8fd39d0bbdd2dcf322d8b11390a4c5825b11495##"

// compileExtends marks the template as extending and renders the layout
// from the footer, so an @extends inside a false @if renders nothing.
func compileExtends(c *CompileContext, raw string) (string, error) {
	id := c.nextID()
	c.footer = append(c.footer, Action(fmt.Sprintf("$.Extend %d %s", id, c.list(raw))))
	return action(fmt.Sprintf("$.MarkExtends %d", id)), nil
}

// compileSection opens a capture, unless the content is given inline.
func compileSection(c *CompileContext, raw string) (string, error) {
	if c.argc(raw) < 2 {
		c.open("section")
	}
	return action("$.StartSection " + c.list(raw)), nil
}

func stopSection(directive, code string) generator {
	return func(c *CompileContext, _ string) (string, error) {
		if err := c.close("section", directive); err != nil {
			return "", err
		}
		return action(code), nil
	}
}

func compileYield(c *CompileContext, raw string) (string, error) {
	return action("$.YieldContent " + c.list(raw)), nil
}

func compileParent(*CompileContext, string) (string, error) {
	return protect(parentPlaceholder), nil
}

func compileHasSection(c *CompileContext, raw string) (string, error) {
	return action("if $.HasSection " + c.list(raw)), nil
}

func compileSectionMissing(c *CompileContext, raw string) (string, error) {
	return action("if not ($.HasSection " + c.list(raw) + ")"), nil
}

func compileViewName(c *CompileContext, raw string) (string, error) {
	name := c.Name
	if args.StripQuotes(args.StripParens(raw)) == "compiled" && c.engine.store != nil && name != "" {
		name = c.engine.store.Path(name)
	}
	return protect(name), nil
}
