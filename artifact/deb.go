package artifact

import (
	"context"
	"fmt"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/install"
	"github.com/marciomazza/dotfiles/probe"
)

// DebInstaller installs standalone .deb packages published outside any apt repository.
type DebInstaller struct {
	Executor   dotfiles.Executor
	Downloader *Downloader
}

// Install downloads the package at url and installs it with gdebi, which resolves
// its dependencies through apt, unless pkg is installed already.
// It reports whether the package was installed.
func (d *DebInstaller) Install(ctx context.Context, url, pkg string) (bool, error) {
	ex := d.Executor
	if ex == nil {
		ex = dotfiles.Local{}
	}

	installed, err := probe.Dpkg(ex).Satisfied(ctx, pkg)
	if err != nil {
		return false, err
	}
	if installed {
		return false, nil
	}

	if _, err := install.Apt(ctx, ex, "gdebi"); err != nil {
		return false, err
	}

	downloader := d.Downloader
	if downloader == nil {
		downloader = &Downloader{}
	}

	path, err := downloader.Download(ctx, url, "", false)
	if err != nil {
		return false, err
	}

	fmt.Printf("Installing %s...\n", pkg)
	if _, err := ex.Run(
		ctx,
		fmt.Sprintf("sudo gdebi %s --non-interactive", path),
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
	); err != nil {
		return false, fmt.Errorf("failed to install %s: %w", pkg, err)
	}

	return true, nil
}
