package install

import (
	"context"
	"fmt"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/probe"
)

// Apt installs debian packages, checking the dpkg database first.
func Apt(ctx context.Context, ex dotfiles.Executor, packages string) ([]string, error) {
	return Install(ctx, Spec{
		Tool:     "apt",
		Packages: packages,
		Template: "sudo apt install {} --yes --quiet --quiet",
		Probe:    probe.Dpkg(ex),
		Executor: ex,
	})
}

// Npm installs global npm packages.
func Npm(ctx context.Context, ex dotfiles.Executor, packages string) ([]string, error) {
	return Install(ctx, Spec{
		Tool:     "global npm",
		Packages: packages,
		Template: "sudo npm install --global {}",
		Probe:    probe.NpmGlobal(ex),
		Executor: ex,
	})
}

// Snap installs snaps.
func Snap(ctx context.Context, ex dotfiles.Executor, packages string) ([]string, error) {
	return Install(ctx, Spec{
		Tool:     "snap",
		Packages: packages,
		Template: "sudo snap install {}",
		Probe:    probe.Snap(ex),
		Executor: ex,
	})
}

// Pip installs python distributions for the current user.
func Pip(ctx context.Context, ex dotfiles.Executor, packages string) ([]string, error) {
	return Install(ctx, Spec{
		Tool:     "pip",
		Packages: packages,
		Template: "pip install {}",
		Probe:    probe.PipShow(ex),
		Executor: ex,
	})
}

// UvTool installs python command line tools with uv. A tool counts as installed
// when its executable is on PATH.
func UvTool(ctx context.Context, ex dotfiles.Executor, packages string) ([]string, error) {
	return Install(ctx, Spec{
		Tool:     "uv",
		Packages: packages,
		Template: "uv tool install --force {}",
		Probe:    probe.Which(ex),
		Executor: ex,
	})
}

// AddPPA registers a launchpad PPA, given as "owner/name" or just "owner" for the
// owner's default "ppa" archive, unless it's configured already.
// It reports whether the PPA was added.
func AddPPA(ctx context.Context, ex dotfiles.Executor, ppa string) (bool, error) {
	registered, err := probe.PPARegistered(ppa)
	if err != nil {
		return false, err
	}
	if registered {
		return false, nil
	}

	name := probe.PPAName(ppa)
	fmt.Printf("apt: adding ppa %s...\n", name)
	if _, err := ex.Run(
		ctx,
		fmt.Sprintf("sudo add-apt-repository ppa:%s --yes", name),
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
	); err != nil {
		return false, fmt.Errorf("failed to add ppa %s: %w", name, err)
	}

	return true, nil
}
