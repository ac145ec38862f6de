package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marciomazza/dotfiles/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// NewRootCmd builds the dotfiles command tree.
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "dotfiles",
		Short: "Idempotent provisioning of a Debian/Ubuntu workstation",
		Long: `dotfiles brings a fresh machine to a known configuration: packages,
config lines, linked dotfiles and tools from GitHub releases.

Every step checks the current state first, so running it again is safe and
is the way to resume after fixing a failure.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(
		newApplyCmd(),
		newLineInFileCmd(),
		newDownloadCmd(),
		newReleaseCmd(),
		newLinkCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dotfiles version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
