package blade

import (
	"regexp"
	"strings"
)

// ActionOpen and ActionClose delimit actions in compiled templates.
const (
	ActionOpen  = "<%"
	ActionClose = "%>"
)

// Region markers used while compiling. Generated code and protected text
// live inside regions so later passes only see the template's own text.
const (
	codeOpen  = "\x02"
	codeClose = "\x03"
	litOpen   = "\x04"
	litClose  = "\x05"
	rawOpen   = "\x06"
	rawClose  = "\x07"
)

var (
	reVerbatim = regexp.MustCompile(`(?s)@verbatim(.*?)@endverbatim`)
	rePhpBlock = regexp.MustCompile(`(?s)@php\s(.*?)@endphp`)
)

// action wraps a template action.
func action(body string) string { return codeOpen + body + codeClose }

// protect keeps text literal through every later pass.
func protect(text string) string { return litOpen + text + litClose }

// rawCode inserts generated text as is.
func rawCode(text string) string { return rawOpen + text + rawClose }

// Action returns a compiled template action, for use by DirectiveFunc.
func Action(body string) string {
	return ActionOpen + " " + body + " " + ActionClose
}

// Echo returns code that prints the escaped value of a Blade expression.
func Echo(expr string) string {
	return Action("$.Echo " + quoteExpr(expr))
}

// RawEcho returns code that prints the value of a Blade expression as is.
func RawEcho(expr string) string {
	return Action("$.Raw " + quoteExpr(expr))
}

// ParsedFile is a template split into literal text and regions. Verbatim
// and @php blocks are turned into regions as soon as the file is read.
type ParsedFile struct {
	Name string
	// Raw is the source text
	Raw string
	// Text is the text being compiled
	Text string
}

func parseFile(name, raw string) *ParsedFile {
	text := strings.Map(func(r rune) rune {
		if r <= 0x07 && r >= 0x02 {
			return -1
		}
		return r
	}, raw)
	text = replaceEscaped(reVerbatim, text, func(m []string) string {
		return protect(m[1])
	})
	text = replaceEscaped(rePhpBlock, text, func(m []string) string {
		return action("$.Exec " + quoteStatements(m[1]))
	})
	return &ParsedFile{Name: name, Raw: raw, Text: text}
}

// replaceEscaped replaces matches of re not preceded by a second @.
func replaceEscaped(re *regexp.Regexp, text string, fn func(m []string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '@' {
			continue
		}
		b.WriteString(text[last:loc[0]])
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// transform applies fn to every literal run outside regions.
func (p *ParsedFile) transform(fn func(string) (string, error)) error {
	out, err := mapLiteral(p.Text, fn)
	if err != nil {
		return err
	}
	p.Text = out
	return nil
}

func mapLiteral(text string, fn func(string) (string, error)) (string, error) {
	var b strings.Builder
	for text != "" {
		i := strings.IndexAny(text, codeOpen+litOpen+rawOpen)
		if i < 0 {
			out, err := fn(text)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			break
		}
		if i > 0 {
			out, err := fn(text[:i])
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
		end := regionEnd(text, i)
		b.WriteString(text[i:end])
		text = text[end:]
	}
	return b.String(), nil
}

func regionCloser(open byte) string {
	switch open {
	case codeOpen[0]:
		return codeClose
	case litOpen[0]:
		return litClose
	}
	return rawClose
}

func regionEnd(text string, start int) int {
	j := strings.Index(text[start+1:], regionCloser(text[start]))
	if j < 0 {
		return len(text)
	}
	return start + 1 + j + 1
}

// ToTemplateString resolves the regions into text/template source.
func (p *ParsedFile) ToTemplateString() string {
	var b strings.Builder
	text := p.Text
	for text != "" {
		i := strings.IndexAny(text, codeOpen+litOpen+rawOpen)
		if i < 0 {
			b.WriteString(escapeActions(text))
			break
		}
		b.WriteString(escapeActions(text[:i]))
		end := regionEnd(text, i)
		body := strings.TrimSuffix(text[i+1:end], regionCloser(text[i]))
		switch text[i] {
		case codeOpen[0]:
			b.WriteString(Action(body))
		case litOpen[0]:
			b.WriteString(escapeActions(body))
		default:
			b.WriteString(body)
		}
		text = text[end:]
	}
	return b.String()
}

// escapeActions keeps literal occurrences of the action delimiter.
func escapeActions(text string) string {
	return strings.ReplaceAll(text, ActionOpen, ActionOpen+`"`+ActionOpen+`"`+ActionClose)
}
