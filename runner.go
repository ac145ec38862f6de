package dotfiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/marciomazza/dotfiles/internal/logging"
)

// Result is the outcome of a single command invocation.
// Stdout and Stderr are only populated when the output was captured.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs shell commands. [Local] runs them on this machine; tests
// swap in fakes.
type Executor interface {
	Run(ctx context.Context, command string, opts ...RunnerOpt) (*Result, error)
}

// Local is the [Executor] backed by os/exec.
type Local struct{}

func (Local) Run(ctx context.Context, command string, opts ...RunnerOpt) (*Result, error) {
	return Run(ctx, command, opts...)
}

// TaskRunner holds the metadata for a specific command.
type TaskRunner struct {
	Command    string
	Executable string
	Arguments  []string

	cmd    *exec.Cmd
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	dir      string
	env      map[string]string
	unset    []string
	stdin    io.Reader
	shell    bool
	capture  bool
	quiet    bool
	allowerr bool
}

// Cmd builds a command runner for a command line.
// The command is split on whitespace unless [WithShell] is used, in which case
// it is handed to `sh -c` as is.
func Cmd(ctx context.Context, command string, opts ...RunnerOpt) (*TaskRunner, error) {
	r := TaskRunner{
		Command: strings.TrimSpace(command),
		stdin:   os.Stdin,
	}

	for _, opt := range opts {
		if err := opt(&r); err != nil {
			return nil, err
		}
	}

	if r.Command == "" {
		return nil, fmt.Errorf("empty command")
	}

	if r.shell {
		r.Executable = "sh"
		r.Arguments = []string{"-c", r.Command}
	} else {
		fields := strings.Fields(r.Command)
		r.Executable, r.Arguments = fields[0], fields[1:]
	}

	cmd := exec.CommandContext(ctx, r.Executable, r.Arguments...)
	cmd.Dir = r.dir
	cmd.Stdin = r.stdin
	cmd.Env = r.environ()

	switch {
	case r.capture:
		r.stdout, r.stderr = new(bytes.Buffer), new(bytes.Buffer)
		cmd.Stdout, cmd.Stderr = r.stdout, r.stderr
	case r.quiet:
		cmd.Stdout, cmd.Stderr = nil, nil
	default:
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	}

	r.cmd = cmd
	return &r, nil
}

// Exec runs the command. A non-zero exit is reported as a [*ProcessFailure]
// unless [WithAllowErrors] was set; the [Result] is returned in both cases.
func (r *TaskRunner) Exec() (*Result, error) {
	logger := logging.GetLogger("runner")
	start := time.Now()

	if !r.quiet {
		LogStep(r.Command)
	}

	err := r.cmd.Run()

	res := &Result{
		Command:  r.Command,
		ExitCode: exitCode(err),
	}
	if r.capture {
		res.Stdout = decode(r.stdout.Bytes())
		res.Stderr = decode(r.stderr.Bytes())
	}

	logger.Debug().
		Str("command", r.Command).
		Int("exit", res.ExitCode).
		Dur("duration", time.Since(start)).
		Msg("command finished")

	if !r.quiet {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil && !r.allowerr {
			color.Red(" ✘ %s\n\n", elapsed)
		} else {
			color.Green(" ✔ %s\n\n", elapsed)
		}
	}

	if err != nil && !r.allowerr {
		return res, &ProcessFailure{
			Command:  r.Command,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      err,
		}
	}

	return res, nil
}

// Run is a helper function to build and execute a command in one go.
func Run(ctx context.Context, command string, opts ...RunnerOpt) (*Result, error) {
	rnr, err := Cmd(ctx, command, opts...)
	if err != nil {
		return nil, err
	}

	return rnr.Exec()
}

// ExitCode runs a command silently and returns its exit code.
// A command that can't even be built reports -1.
func ExitCode(ctx context.Context, ex Executor, command string) int {
	res, err := ex.Run(ctx, command, WithCapture(), WithoutNoise(), WithAllowErrors())
	if err != nil || res == nil {
		return -1
	}
	return res.ExitCode
}

// Succeeds reports whether a command exits with code zero.
func Succeeds(ctx context.Context, ex Executor, command string) bool {
	return ExitCode(ctx, ex, command) == 0
}

// environ builds the process environment from the ambient one plus the
// per-invocation overlay. Nil means inherit unchanged.
func (r *TaskRunner) environ() []string {
	if len(r.env) == 0 && len(r.unset) == 0 {
		return nil
	}

	drop := make(map[string]bool, len(r.env)+len(r.unset))
	for _, name := range r.unset {
		drop[name] = true
	}
	for name := range r.env {
		drop[name] = true
	}

	var env []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !drop[name] {
			env = append(env, kv)
		}
	}

	names := make([]string, 0, len(r.env))
	for name := range r.env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, name+"="+r.env[name])
	}

	return env
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}

	return 1
}

// decode turns process output into valid utf-8 text.
func decode(out []byte) string {
	return strings.ToValidUTF8(string(out), "�")
}

// RunnerOpt allows customizing the behavior of the command runner.
type RunnerOpt func(r *TaskRunner) error

// WithEnv overlays environment variables on top of the current process
// environment for this invocation only.
func WithEnv(vars map[string]string) RunnerOpt {
	return func(r *TaskRunner) error {
		if r.env == nil {
			r.env = make(map[string]string, len(vars))
		}
		for name, value := range vars {
			if name == "" || strings.Contains(name, "=") {
				return fmt.Errorf("invalid env variable name %q", name)
			}
			r.env[name] = value
		}
		return nil
	}
}

// WithoutEnv removes environment variables for this invocation only.
func WithoutEnv(names ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.unset = append(r.unset, names...)
		return nil
	}
}

// WithDir sets the directory where the command should be run inside.
func WithDir(dir string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.dir = dir
		return nil
	}
}

// WithShell runs the command through `sh -c` instead of splitting it on whitespace.
func WithShell() RunnerOpt {
	return func(r *TaskRunner) error {
		r.shell = true
		return nil
	}
}

// WithCapture collects stdout and stderr into the [Result] instead of streaming them.
func WithCapture() RunnerOpt {
	return func(r *TaskRunner) error {
		r.capture = true
		return nil
	}
}

// WithoutNoise silences all output for the command; useful when handling that on the caller side.
func WithoutNoise() RunnerOpt {
	return func(r *TaskRunner) error {
		r.quiet = true
		return nil
	}
}

// WithStdIn set up stdin reader.
func WithStdIn(read io.Reader) RunnerOpt {
	return func(r *TaskRunner) error {
		r.stdin = read
		return nil
	}
}

// WithAllowErrors allow errors in the command.
func WithAllowErrors() RunnerOpt {
	return func(r *TaskRunner) error {
		r.allowerr = true
		return nil
	}
}
