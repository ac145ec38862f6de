package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/artifact"
	"github.com/marciomazza/dotfiles/commons"
	"github.com/marciomazza/dotfiles/internal/config"
)

func newApplyCmd() *cobra.Command {
	var (
		planPath  string
		keepGoing bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision this machine according to a plan",
		Long: `Apply every step of the provisioning plan in order, stopping at the first
failure unless --keep-going is set. Steps only act on what's missing.

The plan is read from $XDG_CONFIG_HOME/dotfiles/plan.toml unless --plan is given;
YAML plans (.yaml, .yml) are accepted too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				planPath = config.DefaultPath()
			}

			plan, err := config.Load(planPath)
			if err != nil {
				return err
			}

			ex := dotfiles.Local{}
			opts := []dotfiles.Option{dotfiles.WithPreExecFunc(primeSudo(ex))}
			if keepGoing {
				opts = append(opts, dotfiles.WithKeepGoing())
			}

			downloader := &artifact.Downloader{}
			releases := artifact.NewReleaseInstaller(artifact.WithDownloader(downloader))

			return dotfiles.New(opts...).Execute(cmd.Context(), stepsFor(plan, ex, releases, downloader)...)
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "provisioning plan (default: $XDG_CONFIG_HOME/dotfiles/plan.toml)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "run every step even after failures")
	return cmd
}

// primeSudo asks for the sudo password once, before output gets captured.
func primeSudo(ex dotfiles.Executor) dotfiles.Step {
	return func(ctx context.Context) error {
		_, err := ex.Run(ctx, "sudo --validate", dotfiles.WithoutNoise())
		return err
	}
}

// stepsFor turns a plan into provisioning steps, in the order they depend on each other.
func stepsFor(
	plan *config.Plan,
	ex dotfiles.Executor,
	releases *artifact.ReleaseInstaller,
	downloader *artifact.Downloader,
) []dotfiles.Step {
	debs := &artifact.DebInstaller{Executor: ex, Downloader: downloader}

	var steps []dotfiles.Step
	add := func(step dotfiles.Step) {
		steps = append(steps, step)
	}

	if len(plan.PPAs) > 0 {
		add(commons.PPAs(ex, plan.PPAs...))
	}
	addPackages(&steps, ex, plan.Packages)

	if len(plan.Lines) > 0 {
		edits := make([]commons.LineEdit, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			edits = append(edits, commons.LineEdit{Path: line.Path, Line: line.Line, Prefix: line.Prefix})
		}
		add(commons.Lines(ex, edits...))
	}

	if plan.FilesHome != "" {
		add(commons.LinkHome(plan.FilesHome))
	}
	for _, sync := range plan.Sync {
		add(commons.Sync(ex, sync.Source, sync.Destination))
	}

	for _, font := range plan.NerdFonts {
		add(commons.NerdFont(ex, releases, font))
	}
	for _, locale := range plan.Locales {
		add(commons.Locale(ex, locale))
	}
	if plan.NodeJS > 0 {
		add(commons.NodeJS(ex, downloader, plan.NodeJS))
	}
	if plan.Packages.Npm != "" {
		add(commons.Packages(ex, "npm", plan.Packages.Npm))
	}
	if len(plan.Releases) > 0 {
		add(commons.Releases(releases, toReleases(plan.Releases)...))
	}
	if len(plan.Debs) > 0 {
		add(commons.Debs(debs, toDebs(plan.Debs)...))
	}
	for _, group := range plan.Groups {
		add(commons.Group(ex, group))
	}
	if len(plan.BtrfsSubvolumes) > 0 {
		add(commons.BtrfsSubvolumes(ex, plan.BtrfsSubvolumes...))
	}

	// desktop
	var desktop []dotfiles.Step
	if len(plan.Desktop.PPAs) > 0 {
		desktop = append(desktop, commons.PPAs(ex, plan.Desktop.PPAs...))
	}
	for _, sync := range plan.Desktop.Sync {
		desktop = append(desktop, commons.Sync(ex, sync.Source, sync.Destination))
	}
	addPackages(&desktop, ex, plan.Desktop.Packages)
	if plan.Desktop.Packages.Npm != "" {
		desktop = append(desktop, commons.Packages(ex, "npm", plan.Desktop.Packages.Npm))
	}
	if len(plan.Desktop.Debs) > 0 {
		desktop = append(desktop, commons.Debs(debs, toDebs(plan.Desktop.Debs)...))
	}
	if len(plan.Desktop.Releases) > 0 {
		desktop = append(desktop, commons.Releases(releases, toReleases(plan.Desktop.Releases)...))
	}
	for _, step := range desktop {
		add(commons.OnlyOnDesktop(step))
	}

	return steps
}

// addPackages adds a step per non empty package list; npm is left out since it
// usually waits for nodejs.
func addPackages(steps *[]dotfiles.Step, ex dotfiles.Executor, pkgs config.Packages) {
	for _, list := range []struct{ manager, packages string }{
		{"apt", pkgs.Apt},
		{"snap", pkgs.Snap},
		{"pip", pkgs.Pip},
		{"uv", pkgs.Uv},
	} {
		if list.packages != "" {
			*steps = append(*steps, commons.Packages(ex, list.manager, list.packages))
		}
	}
}

func toReleases(releases []config.Release) []artifact.Release {
	out := make([]artifact.Release, 0, len(releases))
	for _, rel := range releases {
		out = append(out, artifact.Release{
			Repo:         rel.Repo,
			AssetPattern: rel.Asset,
			Destination:  rel.Destination,
			Target:       rel.Target,
			Update:       rel.Update,
		})
	}
	return out
}

func toDebs(debs []config.Deb) []commons.Deb {
	out := make([]commons.Deb, 0, len(debs))
	for _, deb := range debs {
		out = append(out, commons.Deb{URL: deb.URL, Package: deb.Package})
	}
	return out
}
