package blade

// include builds the directives that render another template in place.
func include(method string) generator {
	return func(c *CompileContext, raw string) (string, error) {
		return action(method + " " + c.list(raw)), nil
	}
}

func compileInject(c *CompileContext, raw string) (string, error) {
	return action("$.Inject " + c.list(raw)), nil
}
