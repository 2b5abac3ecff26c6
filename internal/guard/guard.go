// Package guard compiles boolean expressions into overlay guards, so a
// beforeClose rule can live in configuration ("!dirty", "saved || force")
// instead of code. Expressions are evaluated with github.com/expr-lang/expr
// against variables supplied by the content at evaluation time.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"overlaykit/internal/overlay"
)

// Env returns the variables an expression sees. It is called on every
// evaluation, so it should read live state.
type Env func() map[string]any

// Program is a compiled guard expression.
type Program struct {
	source  string
	program *vm.Program
}

// Compile compiles a boolean expression.
func Compile(expression string) (*Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("guard: expression must not be empty")
	}
	p, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("guard: compile %q: %w", expression, err)
	}
	return &Program{source: expression, program: p}, nil
}

// String returns the source expression.
func (p *Program) String() string { return p.source }

// Eval runs the expression against vars.
func (p *Program) Eval(vars map[string]any) (bool, error) {
	out, err := expr.Run(p.program, vars)
	if err != nil {
		return false, fmt.Errorf("guard: eval %q: %w", p.source, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("guard: %q returned %T, want bool", p.source, out)
	}
	return ok, nil
}

// Guard binds the program to env. A nil env evaluates with no variables.
func (p *Program) Guard(env Env) overlay.Guard {
	return func(ctx context.Context) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		var vars map[string]any
		if env != nil {
			vars = env()
		}
		if vars == nil {
			vars = map[string]any{}
		}
		return p.Eval(vars)
	}
}

// Set holds named programs, typically loaded from configuration.
type Set struct {
	programs map[string]*Program
}

// CompileAll compiles every named expression. All errors are reported, not
// just the first.
func CompileAll(exprs map[string]string) (*Set, error) {
	s := &Set{programs: make(map[string]*Program, len(exprs))}
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		p, err := Compile(exprs[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		s.programs[name] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// Lookup returns the program registered under name. A nil Set is empty.
func (s *Set) Lookup(name string) (*Program, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.programs[name]
	return p, ok
}

// Names returns the registered names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.programs))
	for name := range s.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
