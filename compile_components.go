package blade

func compileComponent(c *CompileContext, raw string) (string, error) {
	c.open("component")
	return action("$.StartComponent " + c.list(raw)), nil
}

func compileEndComponent(c *CompileContext, _ string) (string, error) {
	if err := c.close("component", "endcomponent"); err != nil {
		return "", err
	}
	return action("$.RenderComponent"), nil
}

// compileSlot opens a named slot, or fills it inline with a second argument.
func compileSlot(c *CompileContext, raw string) (string, error) {
	if c.argc(raw) < 2 {
		c.open("slot")
	}
	return action("$.Slot " + c.list(raw)), nil
}

func compileEndSlot(c *CompileContext, _ string) (string, error) {
	if err := c.close("slot", "endslot"); err != nil {
		return "", err
	}
	return action("$.EndSlot"), nil
}
