package files

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marciomazza/dotfiles"
)

// SyncPrivileged copies the directory src into destRoot with sudo (src "files/firefox/apt"
// and destRoot "/etc" update "/etc/apt/..."), but only when some file differs from
// its installed copy. It reports whether the copy ran.
func SyncPrivileged(ctx context.Context, ex dotfiles.Executor, src, destRoot string) (bool, error) {
	if ex == nil {
		ex = dotfiles.Local{}
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}

	parent := filepath.Dir(src)
	uptodate := true

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !uptodate {
			return err
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}

		same, err := sameContent(path, filepath.Join(destRoot, rel))
		if err != nil {
			return err
		}
		uptodate = same
		return nil
	})
	if err != nil {
		return false, err
	}
	if uptodate {
		return false, nil
	}

	if _, err := ex.Run(
		ctx,
		fmt.Sprintf("sudo cp -rf %s %s", src, destRoot),
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
	); err != nil {
		return false, fmt.Errorf("failed to copy %s into %s: %w", src, destRoot, err)
	}

	return true, nil
}

func sameContent(a, b string) (bool, error) {
	left, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}

	right, err := os.ReadFile(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return bytes.Equal(left, right), nil
}
