package blade

import (
	"maps"
	"strings"
)

type componentFrame struct {
	name      string
	data      map[string]any
	slots     map[string]any
	slotStack []string
}

// StartComponent opens a component body capture.
func (v *View) StartComponent(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	data, err := toVars(arg(list, 1))
	if err != nil {
		return "", v.fail(newError(ErrDirective, "Component", v.Name(), false, err, "bad component data"))
	}
	v.components = append(v.components, &componentFrame{
		name:  argString(list, 0),
		data:  data,
		slots: map[string]any{},
	})
	v.pushCapture(captureComponent)
	return "", nil
}

func (v *View) component() (*componentFrame, error) {
	if len(v.components) == 0 {
		return nil, v.unbalanced("no component is open")
	}
	return v.components[len(v.components)-1], nil
}

// Slot opens a named slot of the current component. With a second argument
// the slot is filled at once.
func (v *View) Slot(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	c, err := v.component()
	if err != nil {
		return "", err
	}
	name := argString(list, 0)
	if len(list) > 1 {
		c.slots[name] = HTML(argString(list, 1))
		return "", nil
	}
	c.slotStack = append(c.slotStack, name)
	v.pushCapture(captureSlot)
	return "", nil
}

// EndSlot ends the current named slot.
func (v *View) EndSlot() (string, error) {
	c, err := v.component()
	if err != nil {
		return "", err
	}
	n := len(c.slotStack)
	if n == 0 {
		return "", v.unbalanced("cannot end a slot without starting one")
	}
	content, err := v.popCapture(captureSlot)
	if err != nil {
		return "", err
	}
	c.slots[c.slotStack[n-1]] = HTML(strings.TrimSpace(content))
	c.slotStack = c.slotStack[:n-1]
	return "", nil
}

// RenderComponent ends the component body and renders the component with
// its data, its slots and the body as $slot. Variables it binds do not
// leak into the caller.
func (v *View) RenderComponent() (string, error) {
	c, err := v.component()
	if err != nil {
		return "", err
	}
	body, err := v.popCapture(captureComponent)
	if err != nil {
		return "", err
	}
	v.components = v.components[:len(v.components)-1]
	vars := maps.Clone(c.data)
	vars["slot"] = HTML(strings.TrimSpace(body))
	maps.Copy(vars, c.slots)
	return v.runChild(c.name, vars, true)
}
