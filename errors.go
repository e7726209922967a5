package blade

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// Error kinds, usable with errors.Is.
var (
	ErrUnbalancedCapture = errors.New("unbalanced capture")
	ErrSwitchNesting     = errors.New("switch nesting")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrArtifactWrite     = errors.New("artifact write failed")
	ErrModeConflict      = errors.New("mode conflict")
	ErrUnknownDirective  = errors.New("unknown directive")
	ErrParse             = errors.New("generated template does not parse")
	ErrExpression        = errors.New("expression failed")
	ErrDirective         = errors.New("directive failed")
)

// Error is a compile or render failure. Critical errors always abort the
// render; the others are rendered inline when ThrowOnError is off.
type Error struct {
	Kind     error
	ID       string
	Message  string
	Template string
	Critical bool
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Template != "" {
		fmt.Fprintf(&b, "[%s] ", e.Template)
	}
	b.WriteString(e.ID)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func newError(kind error, id, tmpl string, critical bool, cause error, format string, a ...any) *Error {
	return &Error{
		Kind:     kind,
		ID:       id,
		Message:  fmt.Sprintf(format, a...),
		Template: tmpl,
		Critical: critical,
		Err:      cause,
	}
}

// errorFragment renders an error as the inline html box used when
// ThrowOnError is off.
func errorFragment(err error) string {
	id, msg := "Render", err.Error()
	var be *Error
	if errors.As(err, &be) {
		id = be.ID
		msg = be.Message
		if be.Err != nil {
			msg += ": " + be.Err.Error()
		}
		if be.Template != "" {
			msg = "[" + be.Template + "] " + msg
		}
	}
	return "<div style='background-color: red; color: black; padding: 3px; border: solid 1px black;'>" +
		"View Error [" + html.EscapeString(id) + "]:<br>" +
		"<span style='color:white'>" + html.EscapeString(msg) + "</span><br></div>\n"
}

// isCritical reports whether err must abort regardless of ThrowOnError.
// Errors that did not originate here are treated as critical.
func isCritical(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Critical
	}
	return true
}
