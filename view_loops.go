package blade

import (
	"iter"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/args"
	"github.com/dangdungcntt/go-blade/v2/internal/expression"
)

// LoopFrame is the $loop variable of a running loop.
type LoopFrame struct {
	Index     int
	Iteration int
	Remaining int
	Count     int
	// Sized is false when the length was not known up front; Count,
	// Remaining and Last are then meaningless.
	Sized  bool
	First  bool
	Last   bool
	Even   bool
	Odd    bool
	Depth  int
	Parent *LoopFrame
}

func (l *LoopFrame) increment() {
	l.Index++
	l.Iteration = l.Index + 1
	l.First = l.Index == 0
	l.Even = l.Index%2 == 0
	l.Odd = !l.Even
	if l.Sized {
		l.Remaining = l.Count - l.Iteration
		l.Last = l.Index == l.Count-1
	}
}

// Map exposes the frame to expressions as loop.index, loop.parent and so on.
func (l *LoopFrame) Map() map[string]any {
	if l == nil {
		return nil
	}
	m := map[string]any{
		"index":     l.Index,
		"iteration": l.Iteration,
		"first":     l.First,
		"even":      l.Even,
		"odd":       l.Odd,
		"depth":     l.Depth,
		"count":     nil,
		"remaining": nil,
		"last":      nil,
		"parent":    nil,
	}
	if l.Sized {
		m["count"], m["remaining"], m["last"] = l.Count, l.Remaining, l.Last
	}
	if l.Parent != nil {
		m["parent"] = l.Parent.Map()
	}
	return m
}

// Loop returns the innermost running loop, or nil.
func (v *View) Loop() *LoopFrame {
	if len(v.loops) == 0 {
		return nil
	}
	return v.loops[len(v.loops)-1]
}

func (v *View) pushLoop(count int, sized bool) *LoopFrame {
	l := &LoopFrame{Index: -1, Count: count, Sized: sized, Remaining: count, Depth: len(v.loops) + 1}
	if parent := v.Loop(); parent != nil {
		snapshot := *parent
		l.Parent = &snapshot
	}
	v.loops = append(v.loops, l)
	return l
}

func (v *View) popLoop() {
	v.loops = v.loops[:len(v.loops)-1]
	if parent := v.Loop(); parent != nil {
		v.env()["loop"] = parent.Map()
	} else {
		delete(v.env(), "loop")
	}
}

func (v *View) iterate(l *LoopFrame, yield func(*LoopFrame) bool) bool {
	l.increment()
	v.env()["loop"] = l.Map()
	return yield(l)
}

func noLoop(func(*LoopFrame) bool) {}

// Foreach walks a collection, binding key and value names per iteration.
func (v *View) Foreach(src, key, value string) (iter.Seq[*LoopFrame], error) {
	coll, err := v.eval(src)
	if err != nil {
		return noLoop, v.fail(err)
	}
	if !expression.Iterable(coll) {
		return noLoop, v.fail(newError(ErrExpression, "Foreach", v.Name(), false, nil, "cannot iterate over %T", coll))
	}
	count, sized := expression.Len(coll)
	return func(yield func(*LoopFrame) bool) {
		l := v.pushLoop(count, sized)
		defer v.popLoop()
		err := expression.Each(coll, func(k, item any) bool {
			env := v.env()
			if key != "" {
				env[key] = k
			}
			env[value] = item
			return v.iterate(l, yield)
		})
		if err != nil {
			v.deferFail(newError(ErrExpression, "Foreach", v.Name(), false, err, "iteration failed"))
		}
	}, nil
}

// For runs init once, then the body while cond holds, running step after
// each pass. A blank condition never ends the loop.
func (v *View) For(init, cond, step string) (iter.Seq[*LoopFrame], error) {
	if _, err := v.Exec(init); err != nil {
		return noLoop, err
	}
	return func(yield func(*LoopFrame) bool) {
		l := v.pushLoop(0, false)
		defer v.popLoop()
		for {
			if strings.TrimSpace(cond) != "" {
				ok, err := v.truthy(cond)
				if err != nil {
					v.deferFail(err)
					return
				}
				if !ok {
					return
				}
			}
			if !v.iterate(l, yield) {
				return
			}
			if err := v.exec(step); err != nil {
				v.deferFail(err)
				return
			}
		}
	}, nil
}

// While runs the body as long as cond holds.
func (v *View) While(cond string) (iter.Seq[*LoopFrame], error) {
	return func(yield func(*LoopFrame) bool) {
		l := v.pushLoop(0, false)
		defer v.popLoop()
		for {
			ok, err := v.truthy(cond)
			if err != nil {
				v.deferFail(err)
				return
			}
			if !ok || !v.iterate(l, yield) {
				return
			}
		}
	}, nil
}

// SplitForeach prints splitText after every each-th item of the current
// loop and splitEnd after the last one. each may be "cN" to split the
// loop into N groups.
func (v *View) SplitForeach(src string) (string, error) {
	list, err := v.list(src)
	if err != nil {
		return "", v.fail(err)
	}
	l := v.Loop()
	if l == nil {
		return "", nil
	}
	each, text, end := arg(list, 0), ", ", ""
	if len(list) > 1 {
		text = argString(list, 1)
	}
	if len(list) > 2 {
		end = argString(list, 2)
	}
	if l.Sized && l.Index == l.Count-1 {
		return end, nil
	}
	n := 0
	switch t := each.(type) {
	case nil:
		n = 1
	case string:
		if groups, ok := strings.CutPrefix(t, "c"); ok && l.Sized {
			if g := toInt(groups); g > 0 {
				n = l.Count / g
			}
		} else {
			n = toInt(t)
		}
	default:
		n = toInt(t)
	}
	if n > 0 && l.Iteration%n == 0 {
		return text, nil
	}
	return "", nil
}

// Exec runs ;-separated statements: assignments (=, +=, -=, *=, /=, .=),
// increments and decrements, or plain expressions.
func (v *View) Exec(src string) (string, error) {
	if err := v.exec(src); err != nil {
		return "", v.fail(err)
	}
	return "", nil
}

func (v *View) exec(src string) error {
	for _, stmt := range args.Split(src, ';') {
		if stmt == "" {
			continue
		}
		if err := v.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) statement(stmt string) error {
	env := v.env()
	for _, op := range []string{"++", "--"} {
		if name, ok := strings.CutSuffix(stmt, op); ok && isIdent(strings.TrimSpace(name)) {
			name = strings.TrimSpace(name)
			out, err := expression.Arith(op[0], env[name], 1)
			if err != nil {
				return newError(ErrExpression, "Exec", v.Name(), false, err, "cannot apply %s to %s", op, name)
			}
			env[name] = out
			return nil
		}
	}

	i := assignIndex(stmt)
	if i < 0 {
		_, err := v.eval(stmt)
		return err
	}
	target := strings.TrimSpace(stmt[:i])
	var op byte
	if n := len(target); n > 0 && strings.IndexByte("+-*/.", target[n-1]) >= 0 {
		op = target[n-1]
		target = strings.TrimSpace(target[:n-1])
	}
	if !isIdent(target) {
		return newError(ErrExpression, "Exec", v.Name(), false, nil, "cannot assign to %q", target)
	}
	val, err := v.eval(stmt[i+1:])
	if err != nil {
		return err
	}
	if op != 0 {
		if val, err = expression.Arith(op, env[target], val); err != nil {
			return newError(ErrExpression, "Exec", v.Name(), false, err, "cannot update %s", target)
		}
	}
	env[target] = val
	return nil
}

// assignIndex finds the top-level = of an assignment, skipping ==, !=, <=
// and >=.
func assignIndex(stmt string) int {
	offset := 0
	for {
		i := args.Index(stmt[offset:], '=')
		if i < 0 {
			return -1
		}
		i += offset
		next := i+1 < len(stmt) && stmt[i+1] == '='
		prev := i > 0 && strings.IndexByte("=!<>", stmt[i-1]) >= 0
		if !next && !prev {
			return i
		}
		offset = i + 1
		if next {
			offset++
		}
	}
}

func isIdent(s string) bool {
	if s == "" || !(s[0] == '_' || s[0] >= 'a' && s[0] <= 'z' || s[0] >= 'A' && s[0] <= 'Z') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

// Unset removes variables from the running template.
func (v *View) Unset(names string) (string, error) {
	env := v.env()
	for _, name := range args.Split(names, ',') {
		delete(env, strings.TrimPrefix(name, "$"))
	}
	return "", nil
}

func (v *View) truthy(src string) (bool, error) {
	val, err := v.eval(src)
	if err != nil {
		return false, err
	}
	return expression.Truthy(val), nil
}
