package commons

import (
	"context"
	"fmt"
	"os"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/files"
)

// LineEdit is a line that has to be present in a file.
type LineEdit struct {
	Path string
	Line string
	// Prefix identifies the line to replace; defaults to [files.DefaultPrefix].
	Prefix string
}

// Lines makes sure every edit is applied, e.g. {"/etc/sysctl.conf", "kernel.sysrq=240", ""}.
func Lines(ex dotfiles.Executor, edits ...LineEdit) dotfiles.Step {
	return step(
		fmt.Sprintf("%d config lines", len(edits)),
		func(ctx context.Context) error {
			for _, edit := range edits {
				var opts []files.LineOpt
				if edit.Prefix != "" {
					opts = append(opts, files.WithPrefix(edit.Prefix))
				}

				changed, err := files.LineInFile(ctx, ex, edit.Path, edit.Line, opts...)
				if err != nil {
					return err
				}
				if changed {
					dotfiles.LogDetail(fmt.Sprintf("%s: %s", edit.Path, edit.Line))
				}
			}
			return nil
		},
	)
}

// LinkHome links every file under filesHome into the matching path of the
// current user's home directory.
func LinkHome(filesHome string) dotfiles.Step {
	return step(
		fmt.Sprintf("linking %s into home", filesHome),
		func(ctx context.Context) error {
			root, err := files.ExpandHome(filesHome)
			if err != nil {
				return err
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}

			linked, err := files.LinkTree(root, home)
			for _, link := range linked {
				dotfiles.LogDetail(link)
			}
			return err
		},
	)
}

// Sync copies a directory into a root owned location with sudo when any of its
// files differ, e.g. "files/firefox/apt" into "/etc".
func Sync(ex dotfiles.Executor, src, destRoot string) dotfiles.Step {
	return step(
		fmt.Sprintf("syncing %s into %s", src, destRoot),
		func(ctx context.Context) error {
			_, err := files.SyncPrivileged(ctx, ex, src, destRoot)
			return err
		},
	)
}
