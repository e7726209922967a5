// Package args splits directive argument text into fragments without breaking
// quoted runs or nested (), [] and {} groups.
package args

import (
	"strings"
	"unicode/utf8"
)

// Arg is one fragment of an argument list.
type Arg struct {
	Key   string
	Value string
	// Bare marks a key parsed without a value (emptyKey mode).
	Bare bool
}

// IsQuote reports whether r opens or closes a quoted run.
func IsQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '¬'
}

type scanner struct {
	quote   rune
	escaped bool
	closers []rune
}

func (s *scanner) atTop() bool {
	return s.quote == 0 && len(s.closers) == 0
}

func (s *scanner) feed(r rune) {
	switch {
	case s.escaped:
		s.escaped = false
	case s.quote != 0:
		if r == '\\' {
			s.escaped = true
		} else if r == s.quote {
			s.quote = 0
		}
	case IsQuote(r):
		s.quote = r
	case r == '(':
		s.closers = append(s.closers, ')')
	case r == '[':
		s.closers = append(s.closers, ']')
	case r == '{':
		s.closers = append(s.closers, '}')
	case len(s.closers) > 0 && r == s.closers[len(s.closers)-1]:
		s.closers = s.closers[:len(s.closers)-1]
	}
}

// MatchGroup returns the index just past the group that opens at text[start],
// or -1 when text[start] is not an opening bracket or the group never closes.
func MatchGroup(text string, start int) int {
	if start < 0 || start >= len(text) {
		return -1
	}
	switch text[start] {
	case '(', '[', '{':
	default:
		return -1
	}
	var s scanner
	for i, r := range text[start:] {
		s.feed(r)
		if s.atTop() {
			return start + i + utf8.RuneLen(r)
		}
	}
	return -1
}

// Index returns the index of the first top-level sep in text, or -1.
func Index(text string, sep rune) int {
	var s scanner
	for i, r := range text {
		if r == sep && s.atTop() {
			return i
		}
		s.feed(r)
	}
	return -1
}

// Split cuts text on every top-level sep and trims the fragments. The
// trailing fragment is kept even when a quote or group was left open.
func Split(text string, sep rune) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		s     scanner
		out   []string
		start int
	)
	for i, r := range text {
		if r == sep && s.atTop() {
			out = append(out, strings.TrimSpace(text[start:i]))
			start = i + utf8.RuneLen(r)
			continue
		}
		s.feed(r)
	}
	return append(out, strings.TrimSpace(text[start:]))
}

// Parse splits text on sep and separates keys from values on the first
// top-level assign. Fragments starting with a quote are values. With emptyKey
// a fragment without assign becomes a bare key instead of a positional value.
func Parse(text string, sep, assign rune, emptyKey bool) []Arg {
	var out []Arg
	for _, part := range Split(text, sep) {
		if part == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(part)
		if !IsQuote(first) {
			if i := Index(part, assign); i >= 0 {
				out = append(out, Arg{
					Key:   strings.TrimSpace(part[:i]),
					Value: strings.TrimSpace(part[i+utf8.RuneLen(assign):]),
				})
				continue
			}
		}
		if emptyKey {
			out = append(out, Arg{Key: part, Bare: true})
		} else {
			out = append(out, Arg{Value: part})
		}
	}
	return out
}

// StripParens removes one pair of surrounding parentheses.
func StripParens(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '(' && text[len(text)-1] == ')' {
		return strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

// IsQuoted reports whether text is one quoted literal.
func IsQuoted(text string) bool {
	if len(text) < 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	if !IsQuote(first) || first != last {
		return false
	}
	end := MatchQuote(text, 0)
	return end == len(text)
}

// MatchQuote returns the index just past the quoted run that opens at
// text[start], or -1.
func MatchQuote(text string, start int) int {
	q, size := utf8.DecodeRuneInString(text[start:])
	if !IsQuote(q) {
		return -1
	}
	escaped := false
	for i, r := range text[start+size:] {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == q:
			return start + size + i + utf8.RuneLen(r)
		}
	}
	return -1
}

// StripQuotes removes the quotes around a single quoted literal.
func StripQuotes(text string) string {
	text = strings.TrimSpace(text)
	if !IsQuoted(text) {
		return text
	}
	_, head := utf8.DecodeRuneInString(text)
	_, tail := utf8.DecodeLastRuneInString(text)
	return text[head : len(text)-tail]
}
