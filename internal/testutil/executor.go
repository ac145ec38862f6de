// Package testutil holds test doubles shared across packages.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marciomazza/dotfiles"
)

// MockExecutor is a testify mock of [dotfiles.Executor]. Expectations match on the
// command line only; runner options are not comparable.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Run(_ context.Context, command string, _ ...dotfiles.RunnerOpt) (*dotfiles.Result, error) {
	args := m.Called(command)

	var res *dotfiles.Result
	if r := args.Get(0); r != nil {
		res = r.(*dotfiles.Result)
	}
	return res, args.Error(1)
}

// Exit builds the result a command with the given exit code would produce.
func Exit(command string, code int) *dotfiles.Result {
	return &dotfiles.Result{Command: command, ExitCode: code}
}

// Output builds a successful result with captured stdout.
func Output(command, stdout string) *dotfiles.Result {
	return &dotfiles.Result{Command: command, Stdout: stdout}
}

// Failure builds the error a failing command returns when errors aren't allowed.
func Failure(command string, code int, stderr string) error {
	return &dotfiles.ProcessFailure{Command: command, ExitCode: code, Stderr: stderr}
}
