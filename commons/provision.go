package commons

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/artifact"
)

// Deb is a standalone .deb package and the name dpkg knows it by.
type Deb struct {
	URL     string
	Package string
}

// Releases installs a list of GitHub release artifacts.
// Every release is attempted; the errors encountered are collected and reported together.
func Releases(installer *artifact.ReleaseInstaller, releases ...artifact.Release) dotfiles.Step {
	names := make([]string, 0, len(releases))
	for _, rel := range releases {
		names = append(names, rel.Repo)
	}

	return step(
		fmt.Sprintf("provisioning %d releases: %s", len(releases), strings.Join(names, ", ")),
		func(ctx context.Context) error {
			var errs []string
			for _, rel := range releases {
				if _, err := installer.Install(ctx, rel); err != nil {
					errs = append(errs, fmt.Sprintf("failed to provision %s: %s", rel.Repo, err))
				}
			}

			if len(errs) > 0 {
				for _, errmsg := range errs {
					color.Red(" • %s", errmsg)
				}
				return fmt.Errorf("provisioning failed")
			}

			return nil
		},
	)
}

// Debs installs standalone .deb packages that are missing.
func Debs(installer *artifact.DebInstaller, debs ...Deb) dotfiles.Step {
	names := make([]string, 0, len(debs))
	for _, deb := range debs {
		names = append(names, deb.Package)
	}

	return step(
		fmt.Sprintf("deb packages: %s", strings.Join(names, ", ")),
		func(ctx context.Context) error {
			for _, deb := range debs {
				if _, err := installer.Install(ctx, deb.URL, deb.Package); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// FontsDir is where user fonts are installed.
const FontsDir = "~/.local/share/fonts"

// NerdFont installs a patched font from https://www.nerdfonts.com, e.g. "Hack",
// and rebuilds the font cache when it was just installed.
func NerdFont(ex dotfiles.Executor, installer *artifact.ReleaseInstaller, font string) dotfiles.Step {
	return step(
		fmt.Sprintf("%s nerd font", font),
		func(ctx context.Context) error {
			installed, err := installer.Install(ctx, artifact.Release{
				Repo:         "ryanoasis/nerd-fonts",
				AssetPattern: fmt.Sprintf(`.*/%s\.zip$`, font),
				Destination:  FontsDir,
				Target:       font + "*.ttf",
			})
			if err != nil || !installed {
				return err
			}

			dotfiles.LogDetail("updating fonts")
			_, err = ex.Run(ctx, "sudo fc-cache -rsv", dotfiles.WithCapture(), dotfiles.WithoutNoise())
			return err
		},
	)
}
