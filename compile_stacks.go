package blade

import "strconv"

func startPush(method, kind string) generator {
	return func(c *CompileContext, raw string) (string, error) {
		c.open(kind)
		return action(method + " " + c.list(raw)), nil
	}
}

func stopPush(method, kind, directive string) generator {
	return func(c *CompileContext, _ string) (string, error) {
		if err := c.close(kind, directive); err != nil {
			return "", err
		}
		return action(method), nil
	}
}

// onceKey identifies a @pushonce or @once block across every render of the
// template that holds it.
func (c *CompileContext) onceKey() string {
	return c.Name + ":" + strconv.Itoa(c.nextID())
}

func startPushOnce(method, kind string) generator {
	return func(c *CompileContext, raw string) (string, error) {
		c.open(kind)
		return action("if $.PushOnce "+quote(c.onceKey())) + action(method+" "+c.list(raw)), nil
	}
}

func stopPushOnce(method, kind, directive string) generator {
	return func(c *CompileContext, _ string) (string, error) {
		if err := c.close(kind, directive); err != nil {
			return "", err
		}
		return action(method) + action("end"), nil
	}
}

func compileOnce(c *CompileContext, _ string) (string, error) {
	return action("if $.PushOnce " + quote(c.onceKey())), nil
}

func compileStack(c *CompileContext, raw string) (string, error) {
	return action("$.YieldPushContent " + c.list(raw)), nil
}
