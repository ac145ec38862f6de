package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/artifact"
	"github.com/marciomazza/dotfiles/files"
)

func newLineInFileCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "lineinfile PATH LINE",
		Short: "Make sure a file holds a line, replacing the one with the same prefix",
		Long: `Replace the line of PATH starting with the same prefix as LINE, or append
LINE when there's none. The default prefix is LINE up to its first "=".

Root owned files are edited after temporarily taking their ownership with sudo.`,
		Example: `  dotfiles lineinfile /etc/systemd/journald.conf SystemMaxUse=100M`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []files.LineOpt
			if prefix != "" {
				opts = append(opts, files.WithPrefix(prefix))
			}

			changed, err := files.LineInFile(cmd.Context(), dotfiles.Local{}, args[0], args[1], opts...)
			if err != nil {
				return err
			}

			status := "unchanged"
			if changed {
				status = "changed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "prefix identifying the line to replace")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	var (
		dest  string
		quick bool
	)

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download a file unless a complete copy is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			downloader := &artifact.Downloader{}

			path, err := downloader.Download(cmd.Context(), args[0], dest, quick)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "destination directory (default: the user cache directory)")
	cmd.Flags().BoolVar(&quick, "quick", false, "trust any file with the same name without asking the server")
	return cmd
}

func newReleaseCmd() *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "release REPO ASSET_PATTERN DEST TARGET",
		Short: "Install files from the latest GitHub release of a repository",
		Long: `Download the single asset of the latest release of REPO whose url matches
ASSET_PATTERN (a regular expression anchored at the start), extract it and move
every file matching the TARGET glob into DEST.

Nothing is done when DEST already holds a file matching TARGET, unless --update is set.
Set GITHUB_TOKEN to lift the API rate limit.`,
		Example: `  dotfiles release foriequal0/git-trim '.*linux.*tgz$' ~/.local/bin git-trim`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := artifact.NewReleaseInstaller().Install(cmd.Context(), artifact.Release{
				Repo:         args[0],
				AssetPattern: args[1],
				Destination:  args[2],
				Target:       args[3],
				Update:       update,
			})
			if err != nil {
				return err
			}

			if installed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s installed in %s\n", args[3], args[2])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already installed\n", args[3])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "install the latest release even when the target is present")
	return cmd
}

func newLinkCmd() *cobra.Command {
	var home string

	cmd := &cobra.Command{
		Use:   "link FILES_HOME",
		Short: "Link every file of a directory mirroring $HOME into the home directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := home
			if target == "" {
				var err error
				if target, err = os.UserHomeDir(); err != nil {
					return err
				}
			}

			linked, err := files.LinkTree(args[0], target)
			for _, link := range linked {
				fmt.Fprintln(cmd.OutOrStdout(), link)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&home, "home", "", "directory to link into (default: the home directory)")
	return cmd
}
