// Package steps provides step-matching backends for the runner.
package steps

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/chriserin/ftrun/internal/runner"
)

// ErrUndefined is returned for step text that matches no definition.
var ErrUndefined = errors.New("undefined step")

// StepFunc implements one step definition. args holds the pattern's
// capture groups in order.
type StepFunc func(ctx context.Context, args []string, arg runner.Argument) error

type definition struct {
	source  string
	pattern *regexp.Regexp
	fn      StepFunc
}

// Registry dispatches step text to the first definition whose pattern
// matches the whole text.
type Registry struct {
	defs []definition
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Define registers fn for pattern. The whole pattern, alternations
// included, must match the whole step text.
func (r *Registry) Define(pattern string, fn StepFunc) error {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return fmt.Errorf("invalid step pattern %q: %w", pattern, err)
	}
	for _, d := range r.defs {
		if d.source == pattern {
			return fmt.Errorf("duplicate step pattern %q", pattern)
		}
	}
	r.defs = append(r.defs, definition{source: pattern, pattern: re, fn: fn})
	return nil
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

func (r *Registry) Execute(ctx context.Context, text string, arg runner.Argument) error {
	for _, d := range r.defs {
		if m := d.pattern.FindStringSubmatch(text); m != nil {
			return d.fn(ctx, m[1:], arg)
		}
	}
	return fmt.Errorf("%w: %q", ErrUndefined, text)
}

// DryRun passes every step without executing anything.
var DryRun runner.Backend = runner.BackendFunc(func(ctx context.Context, text string, arg runner.Argument) error {
	return nil
})
