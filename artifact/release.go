package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/gobwas/glob"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/files"
	"github.com/marciomazza/dotfiles/internal/logging"
)

// DefaultAPIBase is the public GitHub REST API.
const DefaultAPIBase = "https://api.github.com"

// Release describes an artifact published on a repository's latest GitHub release.
type Release struct {
	// Repo is "owner/name".
	Repo string
	// AssetPattern is a regular expression matched against the start of each asset
	// download url. Exactly one asset must match.
	AssetPattern string
	// Destination is the directory the targets are installed into.
	Destination string
	// Target is a glob for the base names of the files to pick from the archive.
	Target string
	// Update installs the latest release even when targets are present.
	Update bool
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// ReleaseInstaller installs files out of GitHub release archives.
type ReleaseInstaller struct {
	Client     *http.Client
	APIBase    string
	Token      string
	Downloader *Downloader
	Platform   Platform

	goosMapping map[string]string
	archMapping map[string]string
}

// NewReleaseInstaller builds an installer for the host platform. The API base and
// token are read from DOTFILES_GITHUB_API and GITHUB_TOKEN, options take precedence.
func NewReleaseInstaller(opts ...Option) *ReleaseInstaller {
	r := ReleaseInstaller{
		APIBase:  DefaultAPIBase,
		Token:    strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		Platform: Host(),
	}

	if base := strings.TrimSpace(os.Getenv("DOTFILES_GITHUB_API")); base != "" {
		r.APIBase = strings.TrimRight(base, "/")
	}

	for _, opt := range opts {
		opt(&r)
	}

	if goos, ok := r.goosMapping[r.Platform.GOOS]; ok {
		r.Platform.GOOS = goos
	}
	if arch, ok := r.archMapping[r.Platform.Arch]; ok {
		r.Platform.Arch = arch
	}

	return &r
}

// Install downloads the asset of the latest release matching rel.AssetPattern,
// extracts it and moves every file matching rel.Target into rel.Destination,
// replacing files of the same name. It reports whether anything was installed.
//
// Unless rel.Update is set, a file matching rel.Target anywhere under
// rel.Destination means there's nothing to do and no request is made.
// Zero or several matching assets fail with [dotfiles.ErrAmbiguousMatch] before
// anything is downloaded.
func (r *ReleaseInstaller) Install(ctx context.Context, rel Release) (bool, error) {
	logger := logging.GetLogger("artifact.release").With().Str("repo", rel.Repo).Logger()

	dest, err := files.ExpandHome(rel.Destination)
	if err != nil {
		return false, err
	}

	target, err := r.Platform.Resolve(rel.Target)
	if err != nil {
		return false, fmt.Errorf("failed to resolve target %q: %w", rel.Target, err)
	}
	matcher, err := glob.Compile(target)
	if err != nil {
		return false, fmt.Errorf("invalid target glob %q: %w", target, err)
	}

	if !rel.Update {
		present, err := findTargets(dest, matcher, true)
		if err != nil {
			return false, err
		}
		if len(present) > 0 {
			logger.Debug().Str("path", present[0]).Msg("already installed")
			return false, nil
		}
	}

	pattern, err := r.Platform.Resolve(rel.AssetPattern)
	if err != nil {
		return false, fmt.Errorf("failed to resolve asset pattern %q: %w", rel.AssetPattern, err)
	}
	assetRe, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return false, fmt.Errorf("invalid asset pattern %q: %w", pattern, err)
	}

	dotfiles.LogStep(fmt.Sprintf("installing %s from %s", target, rel.Repo))

	latest, err := r.latest(ctx, rel.Repo)
	if err != nil {
		return false, err
	}

	asset, err := selectAsset(latest.Assets, assetRe)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", rel.Repo, latest.TagName, err)
	}
	logger.Info().Str("tag", latest.TagName).Str("asset", asset).Msg("selected asset")

	archive, err := r.downloader().Download(ctx, asset, "", false)
	if err != nil {
		return false, err
	}

	if _, err := formatOf(archive); err != nil {
		return false, fmt.Errorf("release of %s: %w", rel.Repo, err)
	}

	tmp, err := os.MkdirTemp("", logging.AppName+"-release-*")
	if err != nil {
		return false, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	dotfiles.LogDetail(fmt.Sprintf("extracting %s", filepath.Base(archive)))
	if err := extract(archive, tmp); err != nil {
		return false, fmt.Errorf("failed to extract %s: %w", archive, err)
	}

	extracted, err := findTargets(tmp, matcher, false)
	if err != nil {
		return false, err
	}
	if len(extracted) == 0 {
		return false, fmt.Errorf("%w: no %q in %s", dotfiles.ErrTargetNotFound, target, filepath.Base(archive))
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return false, fmt.Errorf("failed to create destination folder %s: %w", dest, err)
	}

	for _, path := range extracted {
		installed := filepath.Join(dest, filepath.Base(path))
		if err := move(path, installed); err != nil {
			return false, err
		}
		logger.Info().Str("path", installed).Msg("installed")
	}

	dotfiles.LogDetail(fmt.Sprintf("%s installed in %s", target, dest))
	return true, nil
}

func (r *ReleaseInstaller) latest(ctx context.Context, repo string) (*githubRelease, error) {
	base := r.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", base, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release of %s: %w", repo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf(
			"failed to fetch latest release of %s: http%d: %s",
			repo, resp.StatusCode, strings.TrimSpace(string(body)),
		)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to parse latest release of %s: %w", repo, err)
	}

	return &rel, nil
}

func (r *ReleaseInstaller) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return NewSecureHTTPClient()
}

func (r *ReleaseInstaller) downloader() *Downloader {
	if r.Downloader != nil {
		return r.Downloader
	}
	return &Downloader{Client: r.Client}
}

// selectAsset returns the single download url matching re.
func selectAsset(assets []githubAsset, re *regexp.Regexp) (string, error) {
	var matches []string
	for _, asset := range assets {
		if re.MatchString(asset.BrowserDownloadURL) {
			matches = append(matches, asset.BrowserDownloadURL)
		}
	}

	if len(matches) != 1 {
		return "", fmt.Errorf(
			"%w: %d of %d assets match %q", dotfiles.ErrAmbiguousMatch, len(matches), len(assets), re.String(),
		)
	}
	return matches[0], nil
}

// findTargets walks root for non-directory entries whose base name matches.
// A missing root has no targets.
func findTargets(root string, matcher glob.Glob, first bool) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !matcher.Match(d.Name()) {
			return nil
		}

		found = append(found, path)
		if first {
			return fs.SkipAll
		}
		return nil
	})

	return found, err
}

// move renames src to dest, replacing dest, copying when they sit on different filesystems.
func move(src, dest string) error {
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}

	err := os.Rename(src, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := writeFile(dest, in, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Remove(src)
}
