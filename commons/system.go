package commons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/artifact"
	"github.com/marciomazza/dotfiles/files"
	"github.com/marciomazza/dotfiles/install"
	"github.com/marciomazza/dotfiles/probe"
)

// Locale generates a locale, e.g. "pt_BR.UTF-8", unless it's available already.
func Locale(ex dotfiles.Executor, locale string) dotfiles.Step {
	return step(
		fmt.Sprintf("locale %s", locale),
		func(ctx context.Context) error {
			ok, err := probe.LocaleAvailable(ctx, ex, locale)
			if err != nil || ok {
				return err
			}

			_, err = ex.Run(ctx, "sudo locale-gen "+locale, dotfiles.WithCapture(), dotfiles.WithoutNoise())
			return err
		},
	)
}

// Group adds the current user to a group, e.g. "docker", unless it's a member already.
func Group(ex dotfiles.Executor, group string) dotfiles.Step {
	return step(
		fmt.Sprintf("group %s", group),
		func(ctx context.Context) error {
			username, err := Username()
			if err != nil {
				return err
			}

			member, err := probe.UserInGroup(username, group)
			if err != nil || member {
				return err
			}

			_, err = ex.Run(
				ctx,
				fmt.Sprintf("sudo adduser --quiet %s %s", username, group),
				dotfiles.WithCapture(),
				dotfiles.WithoutNoise(),
			)
			return err
		},
	)
}

// BtrfsSubvolumes creates btrfs subvolumes owned by the current user, e.g. for
// "~/Downloads" so it stays out of home snapshots. Existing paths must already be
// subvolumes.
func BtrfsSubvolumes(ex dotfiles.Executor, paths ...string) dotfiles.Step {
	return step(
		"btrfs subvolumes",
		func(ctx context.Context) error {
			username, err := Username()
			if err != nil {
				return err
			}

			for _, path := range paths {
				path, err := files.ExpandHome(path)
				if err != nil {
					return err
				}

				if _, err := os.Stat(path); err == nil {
					ok, err := probe.IsBtrfsSubvolume(path)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("%s exists but is not a btrfs subvolume", path)
					}
					continue
				}

				for _, command := range []string{
					"sudo btrfs subvolume create " + path,
					fmt.Sprintf("sudo chown %s: %s", username, path),
				} {
					if _, err := ex.Run(ctx, command, dotfiles.WithCapture(), dotfiles.WithoutNoise()); err != nil {
						return err
					}
				}
				dotfiles.LogDetail(path)
			}
			return nil
		},
	)
}

// NodeSourceURL is the setup script of the nodesource apt repository for a major version.
var NodeSourceURL = "https://deb.nodesource.com/setup_%d.x"

// NodeSourceList is the apt source the nodesource setup script writes.
const NodeSourceList = "nodesource.list"

// NodeJS installs nodejs from the nodesource repository unless that repository is
// configured and the installed node is at least the requested major version.
func NodeJS(ex dotfiles.Executor, downloader *artifact.Downloader, major int) dotfiles.Step {
	return step(
		fmt.Sprintf("nodejs %d", major),
		func(ctx context.Context) error {
			_, err := os.Stat(filepath.Join(probe.SourcesDir, NodeSourceList))
			configured := err == nil

			recent, err := probe.VersionAtLeast(ctx, ex, "node --version", strconv.Itoa(major))
			if err != nil {
				return err
			}
			if configured && recent {
				return nil
			}

			script, err := downloader.Download(ctx, fmt.Sprintf(NodeSourceURL, major), "", false)
			if err != nil {
				return err
			}

			if _, err := ex.Run(ctx, "sudo -E bash "+script, dotfiles.WithCapture(), dotfiles.WithoutNoise()); err != nil {
				return err
			}

			_, err = install.Apt(ctx, ex, "nodejs")
			return err
		},
	)
}
