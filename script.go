package dotfiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/marciomazza/dotfiles/internal/logging"
)

// Script runs provisioning steps one after the other. Every step is expected to be
// idempotent, so the usual remedy for a failure is fixing the cause and running
// the whole script again.
type Script struct {
	PreExecHook  Step
	PostExecHook Step

	keepgoing bool
}

// Step is a single provisioning action.
// Additional configuration can be done by using closures which return Steps.
type Step func(ctx context.Context) error

// New constructs a script.
func New(opts ...Option) *Script {
	s := Script{
		PreExecHook:  func(_ context.Context) error { return nil },
		PostExecHook: func(_ context.Context) error { return nil },
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// Execute runs the steps in order. By default it stops at the first failing step;
// with [WithKeepGoing] every step runs and the failures are reported at the end.
// A nil step counts as a failing one.
func (s *Script) Execute(ctx context.Context, steps ...Step) error {
	logger := logging.GetLogger("script")
	start := time.Now()

	fmt.Printf("\n")

	if err := s.PreExecHook(ctx); err != nil {
		return fmt.Errorf("failed to initialize provisioning: %w", err)
	}

	var errs []error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		err := fmt.Errorf("step %d is nil", i)
		if step != nil {
			err = step(ctx)
		}
		if err != nil {
			logger.Error().Err(err).Int("step", i).Msg("step failed")
			errs = append(errs, err)
			if !s.keepgoing {
				break
			}
		}
	}

	if err := s.PostExecHook(ctx); err != nil {
		return fmt.Errorf("failed to run post exec hook: %w", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Printf("------------------------\n\n")

	if len(errs) > 0 {
		color.Red(" ✘ finished with errors after %s", elapsed)
		for _, err := range errs {
			color.Red("   • %s", err.Error())
		}
		fmt.Printf("\n")
		return errors.Join(errs...)
	}

	color.Green(" ✔ all good after %s\n\n", elapsed)
	return nil
}

type Option func(s *Script)

// WithPreExecFunc sets a step that runs before the script's own steps,
// e.g. priming sudo credentials.
func WithPreExecFunc(hook Step) Option {
	return func(s *Script) {
		s.PreExecHook = hook
	}
}

// WithPostExecFunc sets a step that runs after the script's own steps, even when one failed.
func WithPostExecFunc(hook Step) Option {
	return func(s *Script) {
		s.PostExecHook = hook
	}
}

// WithKeepGoing runs every step even after failures, reporting all of them at the end.
func WithKeepGoing() Option {
	return func(s *Script) {
		s.keepgoing = true
	}
}
