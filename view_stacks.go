package blade

import (
	"cmp"
	"slices"
	"strings"
)

type pushEntry struct {
	name    string
	prepend bool
	pass    int
}

// fragment is one @push or @prepend body, tagged with the render pass that
// produced it.
type fragment struct {
	pass    int
	seq     int
	prepend bool
	text    string
}

// StartPush opens a push capture. With a second argument the content is
// pushed at once.
func (v *View) StartPush(src string) (string, error) {
	return v.startPush(src, false)
}

// StartPrepend opens a prepend capture.
func (v *View) StartPrepend(src string) (string, error) {
	return v.startPush(src, true)
}

func (v *View) startPush(src string, prepend bool) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	name := argString(list, 0)
	if len(list) > 1 {
		v.addFragment(name, v.frame().pass, prepend, argString(list, 1))
		return "", nil
	}
	v.pushStack = append(v.pushStack, pushEntry{name: name, prepend: prepend, pass: v.frame().pass})
	v.pushCapture(capturePush)
	return "", nil
}

// StopPush ends a push capture.
func (v *View) StopPush() (string, error) {
	return v.stopPush(false)
}

// StopPrepend ends a prepend capture.
func (v *View) StopPrepend() (string, error) {
	return v.stopPush(true)
}

func (v *View) stopPush(prepend bool) (string, error) {
	n := len(v.pushStack)
	if n == 0 {
		return "", v.unbalanced("cannot end a push without starting one")
	}
	top := v.pushStack[n-1]
	if top.prepend != prepend {
		return "", v.unbalanced("cannot end a push to %q with the wrong directive", top.name)
	}
	content, err := v.popCapture(capturePush)
	if err != nil {
		return "", err
	}
	v.pushStack = v.pushStack[:n-1]
	v.addFragment(top.name, top.pass, prepend, content)
	return "", nil
}

func (v *View) addFragment(name string, pass int, prepend bool, text string) {
	v.seq++
	v.pushes[name] = append(v.pushes[name], fragment{pass: pass, seq: v.seq, prepend: prepend, text: text})
}

// PushOnce reports whether key is seen for the first time in this View.
func (v *View) PushOnce(key string) bool {
	if v.once[key] {
		return false
	}
	v.once[key] = true
	return true
}

// YieldPushContent prints a stack: prepended fragments newest pass first,
// then pushed fragments in pass order. Within a pass, a later prepend goes
// before an earlier one and pushes keep their order.
func (v *View) YieldPushContent(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	return v.stack(argString(list, 0), argString(list, 1)), nil
}

func (v *View) stack(name, def string) string {
	frags := v.ordered(name)
	if len(frags) == 0 {
		return def
	}
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.text)
	}
	return b.String()
}

func (v *View) ordered(name string) []fragment {
	ordered := slices.Clone(v.pushes[name])
	slices.SortStableFunc(ordered, func(a, b fragment) int {
		switch {
		case a.prepend != b.prepend:
			if a.prepend {
				return -1
			}
			return 1
		case a.prepend:
			return cmp.Or(cmp.Compare(b.pass, a.pass), cmp.Compare(b.seq, a.seq))
		}
		return cmp.Or(cmp.Compare(a.pass, b.pass), cmp.Compare(a.seq, b.seq))
	})
	return ordered
}
