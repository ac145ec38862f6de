package commons

import (
	"context"
	"fmt"
	"strings"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/install"
)

// Managers maps the package manager names accepted by [Packages] to their installers.
var Managers = map[string]func(context.Context, dotfiles.Executor, string) ([]string, error){
	"apt":  install.Apt,
	"npm":  install.Npm,
	"snap": install.Snap,
	"pip":  install.Pip,
	"uv":   install.UvTool,
}

// Packages installs the missing packages of a list with the named manager
// ("apt", "npm", "snap", "pip" or "uv").
func Packages(ex dotfiles.Executor, manager, packages string) dotfiles.Step {
	return step(
		fmt.Sprintf("%s packages", manager),
		func(ctx context.Context) error {
			installer, ok := Managers[manager]
			if !ok {
				return fmt.Errorf("unknown package manager %q", manager)
			}

			installed, err := installer(ctx, ex, packages)
			if len(installed) > 0 {
				dotfiles.LogDetail("installed " + strings.Join(installed, ", "))
			}
			return err
		},
	)
}

// PPAs registers launchpad PPAs, e.g. "mozillateam" or "deadsnakes/nightly", and
// refreshes the package index when one was added.
func PPAs(ex dotfiles.Executor, ppas ...string) dotfiles.Step {
	return step(
		fmt.Sprintf("ppas: %s", strings.Join(ppas, ", ")),
		func(ctx context.Context) error {
			added := false
			for _, ppa := range ppas {
				ok, err := install.AddPPA(ctx, ex, ppa)
				if err != nil {
					return err
				}
				added = added || ok
			}

			if !added {
				return nil
			}

			_, err := ex.Run(ctx, "sudo apt update --quiet", dotfiles.WithCapture(), dotfiles.WithoutNoise())
			return err
		},
	)
}
