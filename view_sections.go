package blade

import "strings"

// MarkExtends records that the @extends with this id was reached.
func (v *View) MarkExtends(id int) (string, error) {
	v.frame().extends[id] = true
	return "", nil
}

// Extend renders the layout of a reached @extends after the child body.
func (v *View) Extend(id int, src string) (string, error) {
	if !v.frame().extends[id] {
		return "", nil
	}
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	vars, err := toVars(arg(list, 1))
	if err != nil {
		return "", v.fail(newError(ErrDirective, "Extends", v.Name(), false, err, "bad layout data"))
	}
	return v.runChild(argString(list, 0), vars, false)
}

// StartSection opens a section capture. With a second argument the
// content is set at once.
func (v *View) StartSection(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	name := argString(list, 0)
	if len(list) > 1 {
		v.extendSection(name, argString(list, 1))
		return "", nil
	}
	v.sectionStack = append(v.sectionStack, name)
	v.pushCapture(captureSection)
	return "", nil
}

// stopSection ends the innermost section capture.
func (v *View) stopSection() (string, string, error) {
	n := len(v.sectionStack)
	if n == 0 {
		return "", "", v.unbalanced("cannot end a section without starting one")
	}
	name := v.sectionStack[n-1]
	content, err := v.popCapture(captureSection)
	if err != nil {
		return "", "", err
	}
	v.sectionStack = v.sectionStack[:n-1]
	return name, content, nil
}

// StopSection ends a section. Content captured earlier for the same name
// wins, with its @parent placeholder replaced by this content; overwrite
// replaces it instead.
func (v *View) StopSection(overwrite bool) (string, error) {
	name, content, err := v.stopSection()
	if err != nil {
		return "", err
	}
	if overwrite {
		v.sections[name] = content
	} else {
		v.extendSection(name, content)
	}
	return "", nil
}

func (v *View) extendSection(name, content string) {
	if prior, ok := v.sections[name]; ok {
		content = strings.Replace(prior, parentPlaceholder, content, 1)
	}
	v.sections[name] = content
}

// AppendSection ends a section and appends it to earlier content.
func (v *View) AppendSection() (string, error) {
	name, content, err := v.stopSection()
	if err != nil {
		return "", err
	}
	v.sections[name] += content
	return "", nil
}

// YieldSection ends a section and prints its final content.
func (v *View) YieldSection() (string, error) {
	name, content, err := v.stopSection()
	if err != nil {
		return "", err
	}
	v.extendSection(name, content)
	return v.yield(name, ""), nil
}

// YieldContent prints a section, or the default when it was never filled.
func (v *View) YieldContent(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	return v.yield(argString(list, 0), argString(list, 1)), nil
}

// yield returns a section with any unfilled @parent replaced by def.
func (v *View) yield(name, def string) string {
	content, ok := v.sections[name]
	if !ok {
		return def
	}
	return strings.ReplaceAll(content, parentPlaceholder, def)
}

// HasSection reports whether a section has non blank content.
func (v *View) HasSection(src string) (bool, error) {
	list, err := v.list(src)
	if err != nil {
		return false, v.fail(err)
	}
	return strings.TrimSpace(v.sections[argString(list, 0)]) != "", nil
}

// Section returns the content of a section captured so far.
func (v *View) Section(name string) string {
	return v.sections[name]
}
