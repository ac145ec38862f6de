package probe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/mod/semver"

	"github.com/marciomazza/dotfiles"
)

// SourcesDir is where apt keeps extra repository definitions.
var SourcesDir = "/etc/apt/sources.list.d"

// OnPath reports whether an executable is reachable through PATH.
func OnPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// PPAName completes a launchpad PPA reference to "owner/name". A bare owner
// (e.g. "mozillateam") refers to the owner's "ppa" archive.
func PPAName(ppa string) string {
	ppa = strings.TrimPrefix(strings.TrimSpace(ppa), "ppa:")
	if owner, name, ok := strings.Cut(ppa, "/"); ok && name != "" {
		return owner + "/" + name
	}
	return strings.TrimSuffix(ppa, "/") + "/ppa"
}

// PPARegistered reports whether a launchpad PPA, "owner/name" or a bare owner
// (see [PPAName]), is configured in [SourcesDir].
func PPARegistered(ppa string) (bool, error) {
	return ppaRegisteredIn(SourcesDir, ppa)
}

func ppaRegisteredIn(dir, ppa string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	name := PPAName(ppa)
	needles := []string{
		"ppa.launchpadcontent.net/" + name + "/",
		"ppa.launchpad.net/" + name + "/",
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".list") || strings.HasSuffix(name, ".sources")) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return false, err
		}
		for _, needle := range needles {
			if strings.Contains(string(data), needle) {
				return true, nil
			}
		}
	}

	return false, nil
}

// UserInGroup reports whether username is a member of group.
func UserInGroup(username, group string) (bool, error) {
	usr, err := user.Lookup(username)
	if err != nil {
		return false, err
	}

	gids, err := usr.GroupIds()
	if err != nil {
		return false, err
	}

	for _, gid := range gids {
		grp, err := user.LookupGroupId(gid)
		if err != nil {
			continue
		}
		if grp.Name == group {
			return true, nil
		}
	}

	return false, nil
}

// LocaleAvailable reports whether `locale -a` lists the locale.
// "pt_BR.UTF-8" and "pt_BR.utf8" are the same locale.
func LocaleAvailable(ctx context.Context, ex dotfiles.Executor, locale string) (bool, error) {
	res, err := executor(ex).Run(ctx, "locale -a", dotfiles.WithCapture(), dotfiles.WithoutNoise())
	if err != nil {
		return false, err
	}

	want := normalizeLocale(locale)
	scanner := bufio.NewScanner(strings.NewReader(res.Stdout))
	for scanner.Scan() {
		if normalizeLocale(scanner.Text()) == want {
			return true, nil
		}
	}

	return false, scanner.Err()
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "-", "")
}

var versionPattern = regexp.MustCompile(`v?(\d+(?:\.\d+){0,2})`)

// VersionAtLeast runs a version command (e.g. "node --version") and compares the
// first version number in its output against minimum ("16", "1.2", "v3.4.5").
// A command that fails or prints no version means not installed.
func VersionAtLeast(ctx context.Context, ex dotfiles.Executor, command, minimum string) (bool, error) {
	res, err := executor(ex).Run(
		ctx,
		command,
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
		dotfiles.WithAllowErrors(),
	)
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, nil
	}

	match := versionPattern.FindStringSubmatch(res.Stdout)
	if match == nil {
		return false, nil
	}

	want := "v" + strings.TrimPrefix(minimum, "v")
	if !semver.IsValid(want) {
		return false, fmt.Errorf("invalid minimum version %q", minimum)
	}

	return semver.Compare("v"+match[1], want) >= 0, nil
}

// btrfs gives the root directory of every subvolume inode number 256.
const btrfsSubvolumeInode = 256

// IsBtrfsSubvolume reports whether path is the root of a btrfs subvolume.
// It needs no privileges.
func IsBtrfsSubvolume(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("no inode information for %s", path)
	}

	return info.IsDir() && stat.Ino == btrfsSubvolumeInode, nil
}
