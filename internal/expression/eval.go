package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
)

// Scope is what an expression runs against. Variables and functions live
// in separate namespaces, as in PHP: $title never resolves to title().
type Scope struct {
	Vars  map[string]any
	Funcs map[string]any
}

// Fn returns the callable for name: a function first, then a variable
// holding a func. Unknown names yield a function that fails when called.
func (s *Scope) Fn(name string) any {
	if fn, ok := s.Funcs[name]; ok && fn != nil {
		return fn
	}
	if fn, ok := s.Vars[name]; ok && fn != nil {
		return fn
	}
	return func(...any) (any, error) {
		return nil, fmt.Errorf("call to undefined function %s()", name)
	}
}

// Evaluator compiles expressions once and runs them against any Scope.
type Evaluator struct {
	mu       sync.RWMutex
	programs sync.Map
	shadowed map[string]bool
}

// NewEvaluator returns an evaluator. Calls to names listed in shadow go to
// Scope.Funcs even when expr has a builtin of the same name.
func NewEvaluator(shadow ...string) *Evaluator {
	e := &Evaluator{shadowed: map[string]bool{}}
	e.Shadow(shadow...)
	return e
}

// Shadow routes calls to the given expr builtins to Scope.Funcs. Names
// that are not builtins are ignored.
func (e *Evaluator) Shadow(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := false
	for _, name := range names {
		if _, ok := builtin.Index[name]; ok && !e.shadowed[name] {
			e.shadowed[name] = true
			changed = true
		}
	}
	if changed {
		e.programs.Range(func(k, _ any) bool {
			e.programs.Delete(k)
			return true
		})
	}
}

// Program returns the cached program for the normalized source src.
func (e *Evaluator) Program(src string) (*vm.Program, error) {
	if p, ok := e.programs.Load(src); ok {
		return p.(*vm.Program), nil
	}
	e.mu.RLock()
	shadowed := make(map[string]bool, len(e.shadowed))
	for k := range e.shadowed {
		shadowed[k] = true
	}
	e.mu.RUnlock()

	locals := &localNames{names: map[string]bool{}}
	program, err := expr.Compile(src,
		expr.Patch(locals),
		expr.Patch(&scopePatcher{locals: locals.names, shadowed: shadowed}),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	e.programs.Store(src, program)
	return program, nil
}

// Eval runs src against scope. An empty expression yields nil.
func (e *Evaluator) Eval(src string, scope *Scope) (any, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	program, err := e.Program(src)
	if err != nil {
		return nil, err
	}
	out, err := expr.Run(program, scope)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", src, err)
	}
	return out, nil
}

// Size reports how many programs are cached.
func (e *Evaluator) Size() int {
	n := 0
	e.programs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// localNames collects names bound with let, which stay expr locals.
type localNames struct{ names map[string]bool }

func (l *localNames) Visit(node *ast.Node) {
	if d, ok := (*node).(*ast.VariableDeclaratorNode); ok {
		l.names[d.Name] = true
	}
}

// scopePatcher rewrites identifiers into $env.Vars["name"] and calls into
// $env.Fn("name")(...). The tree is walked children first, so a callee
// has already become a variable read when its CallNode is visited.
type scopePatcher struct {
	locals   map[string]bool
	shadowed map[string]bool
}

func (p *scopePatcher) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if strings.HasPrefix(n.Value, "$") || p.locals[n.Value] {
			return
		}
		ast.Patch(node, varRead(n.Value))
	case *ast.CallNode:
		if name, ok := readName(n.Callee); ok {
			n.Callee = fnLookup(name)
		}
	case *ast.BuiltinNode:
		if p.shadowed[n.Name] {
			ast.Patch(node, &ast.CallNode{Callee: fnLookup(n.Name), Arguments: n.Arguments})
		}
	}
}

func envMember(name string) *ast.MemberNode {
	return &ast.MemberNode{
		Node:     &ast.IdentifierNode{Value: "$env"},
		Property: &ast.StringNode{Value: name},
	}
}

func varRead(name string) ast.Node {
	return &ast.MemberNode{Node: envMember("Vars"), Property: &ast.StringNode{Value: name}}
}

func fnLookup(name string) ast.Node {
	return &ast.CallNode{Callee: envMember("Fn"), Arguments: []ast.Node{&ast.StringNode{Value: name}}}
}

// readName reports whether node is a rewritten variable read.
func readName(node ast.Node) (string, bool) {
	m, ok := node.(*ast.MemberNode)
	if !ok {
		return "", false
	}
	base, ok := m.Node.(*ast.MemberNode)
	if !ok {
		return "", false
	}
	if id, ok := base.Node.(*ast.IdentifierNode); !ok || id.Value != "$env" {
		return "", false
	}
	if prop, ok := base.Property.(*ast.StringNode); !ok || prop.Value != "Vars" {
		return "", false
	}
	name, ok := m.Property.(*ast.StringNode)
	if !ok {
		return "", false
	}
	return name.Value, true
}
