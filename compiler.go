package blade

import (
	"regexp"
	"strings"
)

var reBlanks = regexp.MustCompile(`[ \t]{2,}`)

// CompileString compiles Blade source into text/template source.
func (e *Engine) CompileString(src string) (string, error) {
	return e.compile("", src)
}

// compile runs the passes over every literal segment in a fixed order:
// extensions, comments, statements, echos. Extends footers are appended
// last, newest first.
func (e *Engine) compile(name, src string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c := newCompileContext(e, name)
	p := parseFile(name, src)
	passes := []func(string) (string, error){
		c.applyExtensions,
		c.stripComments,
		c.compileStatements,
		c.compileEchos,
	}
	if e.cfg.Optimize {
		passes = append(passes, optimize)
	}
	for _, pass := range passes {
		if err := p.transform(pass); err != nil {
			return "", err
		}
	}

	out := p.ToTemplateString()
	if len(c.footer) > 0 {
		out = strings.TrimLeft(out, "\r\n")
		for i := len(c.footer) - 1; i >= 0; i-- {
			out += "\n" + c.footer[i]
		}
	}
	for _, fn := range e.afterCompile {
		out = fn(out, name)
	}
	return out, nil
}

func (c *CompileContext) applyExtensions(text string) (string, error) {
	for _, fn := range c.engine.extensions {
		text = fn(text)
	}
	return text, nil
}

func (c *CompileContext) stripComments(text string) (string, error) {
	return c.engine.tags[echoRegular].comment.ReplaceAllString(text, ""), nil
}

func optimize(text string) (string, error) {
	return reBlanks.ReplaceAllString(text, " "), nil
}

// builtinDirectives maps every built-in directive name to its generator.
// Names are lower case; lookups fall back to lower case.
var builtinDirectives = map[string]generator{}

func init() {
	ifAuth, elseAuth := conditional("$.Auth")
	ifGuest, elseGuest := conditional("$.Guest")
	ifCan, elseCan := conditional("$.Can")
	ifCannot, elseCannot := conditional("$.Cannot")
	ifCanAny, elseCanAny := conditional("$.CanAny")
	ifError, _ := conditional("$.ErrorFor")

	for name, gen := range map[string]generator{
		"if": compileIf, "elseif": compileElseIf, "else": compileElse, "endif": compileEnd,
		"unless": compileUnless, "endunless": compileEnd,
		"isset": compileIsset, "endisset": compileEnd,
		"empty": compileEmpty, "endempty": compileEnd,
		"switch": compileSwitch, "case": compileCase, "default": compileDefault, "endswitch": compileEndSwitch,

		"foreach": compileForeach, "endforeach": compileEndLoop,
		"forelse": compileForelse, "endforelse": compileEndForelse,
		"for": compileFor, "endfor": compileEndLoop,
		"while": compileWhile, "endwhile": compileEndLoop,
		"break": jump("break"), "continue": jump("continue"),
		"splitforeach": call("$.SplitForeach"),

		"extends":    compileExtends,
		"section":    compileSection,
		"endsection": stopSection("endsection", "$.StopSection false"),
		"stop":       stopSection("stop", "$.StopSection false"),
		"overwrite":  stopSection("overwrite", "$.StopSection true"),
		"append":     stopSection("append", "$.AppendSection"),
		"show":       stopSection("show", "$.YieldSection"),
		"yield":      compileYield,
		"parent":     compileParent,
		"hassection": compileHasSection, "sectionmissing": compileSectionMissing,
		"viewname": compileViewName,

		"push":           startPush("$.StartPush", "push"),
		"endpush":        stopPush("$.StopPush", "push", "endpush"),
		"prepend":        startPush("$.StartPrepend", "prepend"),
		"endprepend":     stopPush("$.StopPrepend", "prepend", "endprepend"),
		"pushonce":       startPushOnce("$.StartPush", "pushonce"),
		"endpushonce":    stopPushOnce("$.StopPush", "pushonce", "endpushonce"),
		"prependonce":    startPushOnce("$.StartPrepend", "prependonce"),
		"endprependonce": stopPushOnce("$.StopPrepend", "prependonce", "endprependonce"),
		"once":           compileOnce, "endonce": compileEnd,
		"stack": compileStack,

		"component": compileComponent, "endcomponent": compileEndComponent,
		"slot": compileSlot, "endslot": compileEndSlot,

		"include":      include("$.Include"),
		"includefast":  include("$.Include"),
		"includeif":    include("$.IncludeIf"),
		"includewhen":  include("$.IncludeWhen"),
		"includefirst": include("$.IncludeFirst"),
		"each":         include("$.RenderEach"),
		"inject":       compileInject,

		"auth": ifAuth, "elseauth": elseAuth, "endauth": compileEnd,
		"guest": ifGuest, "elseguest": elseGuest, "endguest": compileEnd,
		"can": ifCan, "elsecan": elseCan, "endcan": compileEnd,
		"cannot": ifCannot, "elsecannot": elseCannot, "endcannot": compileEnd,
		"canany": ifCanAny, "elsecanany": elseCanAny, "endcanany": compileEnd,
		"error": ifError, "enderror": compileEnd,

		"json": call("$.JSON"),
		"php":  compilePhp, "set": compileSet, "unset": compileUnset, "use": compileUse,
		"csrf": compileCSRF, "method": compileMethod,
		"dump": call("$.Dump"), "dd": call("$.Dump"),
		"user": compileUser,
		"_e":   call("$.Translate"), "_ef": call("$.TranslateFormat"), "_n": call("$.TranslatePlural"),
	} {
		builtinDirectives[name] = gen
	}
}
