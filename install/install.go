// Package install brings lists of packages to the installed state, touching only
// the ones a probe reports as missing.
package install

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/internal/logging"
	"github.com/marciomazza/dotfiles/probe"
)

// Spec declares what to install and how.
type Spec struct {
	// Tool labels progress messages, e.g. "apt".
	Tool string
	// Packages holds whitespace separated names; "#" starts a comment up to the end of the line.
	Packages string
	// Template is the install command with a single "{}" slot for the package name.
	Template string
	// Probe decides which names are already installed.
	Probe probe.Probe
	// Shell runs the install template through `sh -c`, for templates using pipes.
	Shell bool
	// Executor runs the install commands; defaults to the local machine.
	Executor dotfiles.Executor
}

var comment = regexp.MustCompile(` *#.*`)

// StripComments removes "#" comments from every line of text.
func StripComments(text string) string {
	return comment.ReplaceAllString(text, "")
}

// Names returns the package names declared in text, in order. Duplicates are kept.
func Names(text string) []string {
	return strings.Fields(StripComments(text))
}

// Install runs the spec's template for every package its probe doesn't report as
// installed, and returns exactly those names in declaration order. Callers use the
// result to run follow-up configuration only when a tool was just installed.
//
// The first failing install aborts the run with the runner's [*dotfiles.ProcessFailure].
// Everything installed before the failure stays installed, so re-running resumes.
func Install(ctx context.Context, spec Spec) ([]string, error) {
	logger := logging.GetLogger("install").With().Str("tool", spec.Tool).Logger()

	ex := spec.Executor
	if ex == nil {
		ex = dotfiles.Local{}
	}

	check := spec.Probe
	if check == nil {
		check = probe.ShellProbe{Template: "which", Executor: ex}
	}

	installed := []string{}
	for _, name := range Names(spec.Packages) {
		ok, err := check.Satisfied(ctx, name)
		if err != nil {
			return installed, fmt.Errorf("%s: failed to check %s: %w", spec.Tool, name, err)
		}
		if ok {
			logger.Debug().Str("package", name).Msg("already installed")
			continue
		}

		fmt.Printf("%s: installing %s...\n", spec.Tool, name)

		opts := []dotfiles.RunnerOpt{dotfiles.WithCapture(), dotfiles.WithoutNoise()}
		if spec.Shell {
			opts = append(opts, dotfiles.WithShell())
		}

		if _, err := ex.Run(ctx, probe.Format(spec.Template, name), opts...); err != nil {
			logger.Error().Err(err).Str("package", name).Msg("install failed")
			return installed, fmt.Errorf("%s: failed to install %s: %w", spec.Tool, name, err)
		}

		logger.Info().Str("package", name).Msg("installed")
		installed = append(installed, name)
	}

	return installed, nil
}
