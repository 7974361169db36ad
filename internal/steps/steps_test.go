package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/runner"
)

func TestRegistry_Define(t *testing.T) {
	t.Run("registers valid step", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Define(`I have (\d+) apples`, func(context.Context, []string, runner.Argument) error { return nil }))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("returns error for invalid regex", func(t *testing.T) {
		r := NewRegistry()
		err := r.Define("[invalid", func(context.Context, []string, runner.Argument) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid step pattern")
	})

	t.Run("returns error for duplicate pattern", func(t *testing.T) {
		r := NewRegistry()
		noop := func(context.Context, []string, runner.Argument) error { return nil }
		require.NoError(t, r.Define("test", noop))
		err := r.Define("test", noop)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate step pattern")
	})
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	var captured []string
	require.NoError(t, r.Define(`I have (\d+) (\w+)`, func(ctx context.Context, args []string, arg runner.Argument) error {
		captured = args
		return nil
	}))
	require.NoError(t, r.Define(`it fails`, func(context.Context, []string, runner.Argument) error {
		return runner.Failf("expected failure")
	}))

	require.NoError(t, r.Execute(context.Background(), "I have 3 oranges", runner.Argument{}))
	assert.Equal(t, []string{"3", "oranges"}, captured)

	var failure *runner.Failure
	assert.True(t, errors.As(r.Execute(context.Background(), "it fails", runner.Argument{}), &failure))

	err := r.Execute(context.Background(), "I have 3 oranges and more", runner.Argument{})
	assert.True(t, errors.Is(err, ErrUndefined))
}

func TestRegistry_AnchorsWholePattern(t *testing.T) {
	r := NewRegistry()
	calls := 0
	count := func(context.Context, []string, runner.Argument) error { calls++; return nil }
	require.NoError(t, r.Define(`I have apples|I have pears`, count))
	require.NoError(t, r.Define(`it costs \$`, count))
	require.NoError(t, r.Define(`^already anchored$`, count))

	for _, text := range []string{"I have apples", "I have pears", "it costs $", "already anchored"} {
		assert.NoError(t, r.Execute(context.Background(), text, runner.Argument{}), text)
	}
	assert.Equal(t, 4, calls)

	for _, text := range []string{
		"I have apples and a broken build",
		"oh no I have pears",
		"it costs $5",
		"already anchored twice",
	} {
		assert.ErrorIs(t, r.Execute(context.Background(), text, runner.Argument{}), ErrUndefined, text)
	}
	assert.Equal(t, 4, calls)
}

func TestRegistry_AsRunnerBackend(t *testing.T) {
	r := NewRegistry()
	var seen []string
	require.NoError(t, r.Define(`a (.+)`, func(ctx context.Context, args []string, arg runner.Argument) error {
		seen = append(seen, args[0])
		return nil
	}))
	f, err := parser.Parse("f.feature", []byte("Feature: F\n  Scenario: S\n    Given a thing\n    Then b missing\n"))
	require.NoError(t, err)

	res := runner.New(r, runner.NewRegistry(), runner.Options{}).Run(context.Background(), []*parser.Feature{f})

	assert.Equal(t, []string{"thing"}, seen)
	st := res.Features[0].Scenarios[0].Steps[1]
	assert.Equal(t, runner.StatusError, st.Status)
	assert.True(t, errors.Is(st.Err, ErrUndefined))
}

func TestDryRun(t *testing.T) {
	assert.NoError(t, DryRun.Execute(context.Background(), "anything", runner.Argument{}))
}

func TestCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("zero exit passes", func(t *testing.T) {
		assert.NoError(t, Command(`test "$1" = "apples"`)(ctx, []string{"apples"}, runner.Argument{}))
	})

	t.Run("non-zero exit fails", func(t *testing.T) {
		err := Command(`echo nope; exit 3`)(ctx, nil, runner.Argument{})
		var failure *runner.Failure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, "command exited with status 3: nope", failure.Message)
	})

	t.Run("exports arguments", func(t *testing.T) {
		arg := runner.Argument{
			Table:     &parser.Table{Rows: [][]string{{"a", "b"}, {"1", "2"}}},
			DocString: &parser.DocString{Content: "hello"},
		}
		script := `test "$FTRUN_ARG_1" = x && test "$FTRUN_DOCSTRING" = hello && test "$FTRUN_TABLE" = "$(printf 'a\tb\n1\t2')"`
		assert.NoError(t, Command(script)(ctx, []string{"x"}, arg))
	})
}
