package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/marciomazza/dotfiles/internal/logging"
)

// Sentinel names the placeholder that keeps empty directories in version control.
// It's never linked.
const Sentinel = ".gitkeep"

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Mkdir creates path and its parents and returns it.
func Mkdir(path string) (string, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return path, nil
}

// Symlink makes link point at target, replacing whatever file or link is at link,
// dangling links included. It reports false when link already pointed at target.
// Directories at link are never removed.
func Symlink(link, target string) (bool, error) {
	if current, err := os.Readlink(link); err == nil && current == target {
		return false, nil
	}

	if info, err := os.Lstat(link); err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("refusing to replace directory %s with a link", link)
		}
		if err := os.Remove(link); err != nil {
			return false, fmt.Errorf("failed to replace %s: %w", link, err)
		}
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.Symlink(target, link); err != nil {
		return false, fmt.Errorf("failed to link %s to %s: %w", link, target, err)
	}
	return true, nil
}

// LinkTree mirrors the tree under root into home: directories are created, every
// other entry gets a symlink at the same relative path. Symlinked directories in
// root are linked, not descended into. [Sentinel] files are skipped.
// It returns the links created or updated.
func LinkTree(root, home string) ([]string, error) {
	logger := logging.GetLogger("files.links")

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var linked []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		athome := filepath.Join(home, rel)

		if d.IsDir() {
			_, err := Mkdir(athome)
			return err
		}

		if d.Name() == Sentinel {
			return nil
		}

		changed, err := Symlink(athome, path)
		if err != nil {
			return err
		}
		if changed {
			logger.Info().Str("link", athome).Str("target", path).Msg("linked")
			linked = append(linked, athome)
		}
		return nil
	})

	return linked, err
}
