// Package probe answers "is this already true?" questions for provisioning
// steps: a package is installed, a binary is on PATH, a user belongs to a group.
//
// The filesystem and the package manager databases are the only source of truth;
// nothing is cached between calls.
package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/marciomazza/dotfiles"
)

// Slot is the placeholder replaced by a package name in command templates.
const Slot = "{}"

// Probe reports whether name is already satisfied.
type Probe interface {
	Satisfied(ctx context.Context, name string) (bool, error)
}

// Format substitutes name into template. Templates without a [Slot] get the
// name appended, so "dpkg -s" and "dpkg -s {}" are equivalent.
func Format(template, name string) string {
	if strings.Contains(template, Slot) {
		return strings.ReplaceAll(template, Slot, name)
	}
	return strings.TrimSpace(template + " " + name)
}

// ShellProbe runs a check command and considers the name satisfied when it exits 0.
type ShellProbe struct {
	Template string
	Executor dotfiles.Executor
}

// Shell builds a [ShellProbe] running on the local machine.
func Shell(template string) ShellProbe {
	return ShellProbe{Template: template, Executor: dotfiles.Local{}}
}

func (p ShellProbe) Satisfied(ctx context.Context, name string) (bool, error) {
	command := Format(p.Template, name)

	res, err := executor(p.Executor).Run(
		ctx,
		command,
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
		dotfiles.WithAllowErrors(),
	)
	if err != nil {
		return false, fmt.Errorf("probe %q: %w", command, err)
	}

	return res.ExitCode == 0, nil
}

// CustomProbe adapts a predicate function to [Probe].
type CustomProbe func(ctx context.Context, name string) (bool, error)

func (f CustomProbe) Satisfied(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

// Which checks the name is an executable on PATH.
func Which(ex dotfiles.Executor) ShellProbe {
	return ShellProbe{Template: "which", Executor: ex}
}

// NpmGlobal checks for a globally installed npm package.
func NpmGlobal(ex dotfiles.Executor) ShellProbe {
	return ShellProbe{Template: "npm list -g", Executor: ex}
}

// Snap checks for an installed snap.
func Snap(ex dotfiles.Executor) ShellProbe {
	return ShellProbe{Template: "snap list", Executor: ex}
}

// PipShow checks for an installed python distribution.
func PipShow(ex dotfiles.Executor) ShellProbe {
	return ShellProbe{Template: "pip show", Executor: ex}
}

// Dpkg checks the package database for a package in "install ok installed" state.
// Packages that were removed but kept their config files don't count.
func Dpkg(ex dotfiles.Executor) CustomProbe {
	return func(ctx context.Context, name string) (bool, error) {
		res, err := executor(ex).Run(
			ctx,
			"dpkg-query -W -f=${Status} "+name,
			dotfiles.WithCapture(),
			dotfiles.WithoutNoise(),
			dotfiles.WithAllowErrors(),
		)
		if err != nil {
			return false, err
		}
		if res.ExitCode != 0 {
			return false, nil
		}
		return strings.Contains(res.Stdout, "install ok installed"), nil
	}
}

func executor(ex dotfiles.Executor) dotfiles.Executor {
	if ex == nil {
		return dotfiles.Local{}
	}
	return ex
}
