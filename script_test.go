package dotfiles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptExecuteStopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return func(context.Context) error {
			ran = append(ran, name)
			return err
		}
	}

	boom := errors.New("boom")
	err := New().Execute(context.Background(), step("a", nil), step("b", boom), step("c", nil))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestScriptExecuteKeepGoing(t *testing.T) {
	var ran []string
	fail := func(name string) Step {
		return func(context.Context) error {
			ran = append(ran, name)
			return errors.New(name)
		}
	}

	err := New(WithKeepGoing()).Execute(context.Background(), fail("a"), fail("b"))

	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestScriptHooks(t *testing.T) {
	var order []string
	s := New(
		WithPreExecFunc(func(context.Context) error { order = append(order, "pre"); return nil }),
		WithPostExecFunc(func(context.Context) error { order = append(order, "post"); return nil }),
	)

	err := s.Execute(context.Background(), func(context.Context) error {
		order = append(order, "step")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"pre", "step", "post"}, order)
}

func TestScriptPreHookFailureSkipsSteps(t *testing.T) {
	called := false
	s := New(WithPreExecFunc(func(context.Context) error { return errors.New("no sudo") }))

	err := s.Execute(context.Background(), func(context.Context) error { called = true; return nil })

	require.Error(t, err)
	assert.False(t, called)
}

func TestScriptCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().Execute(ctx, func(context.Context) error { called = true; return nil })

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestScriptNilStepFails(t *testing.T) {
	var ran []string
	step := func(name string) Step {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}

	err := New().Execute(context.Background(), step("a"), nil, step("c"))

	require.EqualError(t, err, "step 1 is nil")
	assert.Equal(t, []string{"a"}, ran)
}
