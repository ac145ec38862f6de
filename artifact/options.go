package artifact

import (
	"net/http"
	"strings"
)

// Option customizes a [ReleaseInstaller].
type Option func(r *ReleaseInstaller)

// WithAPIBase points the installer at another GitHub API endpoint, e.g. an
// enterprise server or a test double.
func WithAPIBase(base string) Option {
	return func(r *ReleaseInstaller) {
		r.APIBase = strings.TrimRight(base, "/")
	}
}

// WithToken authenticates release metadata requests, lifting the anonymous rate limit.
func WithToken(token string) Option {
	return func(r *ReleaseInstaller) {
		r.Token = token
	}
}

// WithClient sets the http client used for release metadata and, unless a
// [Downloader] was given, for asset downloads too.
func WithClient(client *http.Client) Option {
	return func(r *ReleaseInstaller) {
		r.Client = client
	}
}

// WithDownloader sets how release assets are fetched.
func WithDownloader(d *Downloader) Option {
	return func(r *ReleaseInstaller) {
		r.Downloader = d
	}
}

// WithPlatform overrides the platform asset patterns and targets are resolved for.
func WithPlatform(p Platform) Option {
	return func(r *ReleaseInstaller) {
		r.Platform = p
	}
}

// WithGOOSMapping allows remapping the value of GOOS in the platform before
// resolving patterns. Mappings apply after every other option, so they hold
// for a platform given with [WithPlatform] too.
// This is useful for example in cases where a binary gets distributed as
// `binname-macos` and using the `binname-{{.GOOS}}` pattern with the default
// value would resolve to `binname-darwin` which doesn't exist.
// The key of the map is the GOOS value and the value is the wanted
// replacement; for the case mentioned earlier, pass {"darwin": "macos"}.
func WithGOOSMapping(mapping map[string]string) Option {
	return func(r *ReleaseInstaller) {
		r.goosMapping = mapping
	}
}

// WithArchMapping allows remapping the value of Arch in the platform for projects
// following neither GOARCH nor `uname -m`, e.g. {"x86_64": "x64"}.
func WithArchMapping(mapping map[string]string) Option {
	return func(r *ReleaseInstaller) {
		r.archMapping = mapping
	}
}
