package artifact

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marciomazza/dotfiles"
)

// fakeGitHub serves a latest release for repo whose assets are served by the same server.
type fakeGitHub struct {
	*countingServer

	repo      string
	assets    map[string][]byte
	downloads int
	auth      string
}

func newFakeGitHub(t *testing.T, repo string, assets map[string][]byte) *fakeGitHub {
	t.Helper()

	gh := &fakeGitHub{repo: repo, assets: assets}
	gh.countingServer = newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/"+repo+"/releases/latest" {
			gh.mu.Lock()
			gh.auth = r.Header.Get("Authorization")
			gh.mu.Unlock()

			rel := githubRelease{TagName: "v0.4.4"}
			for name := range gh.assets {
				rel.Assets = append(rel.Assets, githubAsset{
					Name:               name,
					BrowserDownloadURL: gh.URL + "/" + repo + "/releases/download/v0.4.4/" + name,
				})
			}
			_ = json.NewEncoder(w).Encode(rel)
			return
		}

		data, ok := gh.assets[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if r.Method == http.MethodGet {
			gh.mu.Lock()
			gh.downloads++
			gh.mu.Unlock()
			_, _ = w.Write(data)
		}
	})

	return gh
}

func (gh *fakeGitHub) installer(t *testing.T, opts ...Option) *ReleaseInstaller {
	t.Helper()

	opts = append([]Option{
		WithAPIBase(gh.URL),
		WithToken(""),
		WithClient(gh.Client()),
		WithDownloader(&Downloader{Client: gh.Client(), Dir: t.TempDir(), Quiet: true}),
		WithPlatform(PlatformFor("linux", "amd64")),
	}, opts...)

	return NewReleaseInstaller(opts...)
}

func (gh *fakeGitHub) total() int {
	return gh.count(http.MethodGet) + gh.count(http.MethodHead)
}

func gitTrimRelease(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"git-trim-v0.4.4-x86_64-unknown-linux-gnu.tgz": tarGz(t,
			entry{name: "git-trim-v0.4.4/git-trim", body: "linux-binary", mode: 0o755},
			entry{name: "git-trim-v0.4.4/README.md", body: "readme"},
		),
		"git-trim-v0.4.4-x86_64-apple-darwin.tgz": tarGz(t,
			entry{name: "git-trim-v0.4.4/git-trim", body: "darwin-binary", mode: 0o755},
		),
		"git-trim-v0.4.4-x86_64-pc-windows-msvc.zip": zipOf(t,
			entry{name: "git-trim.exe", body: "windows-binary"},
		),
	}
}

func TestReleaseInstall(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))
	dest := t.TempDir()
	releases := gh.installer(t)

	rel := Release{
		Repo:         "foriequal0/git-trim",
		AssetPattern: ".*linux.*tgz$",
		Destination:  dest,
		Target:       "git-trim",
	}

	installed, err := releases.Install(context.Background(), rel)

	require.NoError(t, err)
	assert.True(t, installed)

	data, err := os.ReadFile(filepath.Join(dest, "git-trim"))
	require.NoError(t, err)
	assert.Equal(t, "linux-binary", string(data))

	info, err := os.Stat(filepath.Join(dest, "git-trim"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.NoFileExists(t, filepath.Join(dest, "README.md"), "only targets are installed")
	assert.Equal(t, 1, gh.downloads)

	t.Run("second run makes no request", func(t *testing.T) {
		before := gh.total()

		installed, err := releases.Install(context.Background(), rel)

		require.NoError(t, err)
		assert.False(t, installed)
		assert.Equal(t, before, gh.total())
	})
}

func TestReleaseInstallAmbiguousAsset(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"several matches", ".*git-trim.*"},
		{"no match", ".*freebsd.*"},
		{"pattern is anchored at the start", "linux"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))
			dest := t.TempDir()

			installed, err := gh.installer(t).Install(context.Background(), Release{
				Repo:         "foriequal0/git-trim",
				AssetPattern: tt.pattern,
				Destination:  dest,
				Target:       "git-trim",
			})

			require.ErrorIs(t, err, dotfiles.ErrAmbiguousMatch)
			assert.False(t, installed)
			assert.Equal(t, 0, gh.downloads, "nothing is downloaded")
			assert.Equal(t, 0, gh.count(http.MethodHead))

			entries, _ := os.ReadDir(dest)
			assert.Empty(t, entries)
		})
	}
}

func TestReleaseInstallUpdate(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "git-trim"), []byte("old"), 0o755))

	installed, err := gh.installer(t).Install(context.Background(), Release{
		Repo:         "foriequal0/git-trim",
		AssetPattern: ".*linux.*tgz$",
		Destination:  dest,
		Target:       "git-trim",
		Update:       true,
	})

	require.NoError(t, err)
	assert.True(t, installed)

	data, _ := os.ReadFile(filepath.Join(dest, "git-trim"))
	assert.Equal(t, "linux-binary", string(data))
}

func TestReleaseInstallGlobTarget(t *testing.T) {
	gh := newFakeGitHub(t, "ryanoasis/nerd-fonts", map[string][]byte{
		"Hack.zip": zipOf(t,
			entry{name: "HackNerdFont-Regular.ttf", body: "regular"},
			entry{name: "HackNerdFont-Bold.ttf", body: "bold"},
			entry{name: "LICENSE.md", body: "license"},
		),
		"Hasklig.zip": zipOf(t, entry{name: "HasklugNerdFont-Regular.ttf", body: "x"}),
	})
	dest := filepath.Join(t.TempDir(), ".local", "share", "fonts")

	rel := Release{
		Repo:         "ryanoasis/nerd-fonts",
		AssetPattern: `.*/Hack\.zip`,
		Destination:  dest,
		Target:       "*.ttf",
	}

	installed, err := gh.installer(t).Install(context.Background(), rel)

	require.NoError(t, err)
	assert.True(t, installed)
	assert.FileExists(t, filepath.Join(dest, "HackNerdFont-Regular.ttf"))
	assert.FileExists(t, filepath.Join(dest, "HackNerdFont-Bold.ttf"))
	assert.NoFileExists(t, filepath.Join(dest, "LICENSE.md"))
}

func TestReleaseInstallPresentInSubdirectory(t *testing.T) {
	gh := newFakeGitHub(t, "ryanoasis/nerd-fonts", map[string][]byte{})
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "hack"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "hack", "HackNerdFont-Regular.ttf"), nil, 0o644))

	installed, err := gh.installer(t).Install(context.Background(), Release{
		Repo:         "ryanoasis/nerd-fonts",
		AssetPattern: `.*/Hack\.zip`,
		Destination:  dest,
		Target:       "*.ttf",
	})

	require.NoError(t, err)
	assert.False(t, installed)
	assert.Equal(t, 0, gh.total())
}

func TestReleaseInstallPlatformTemplates(t *testing.T) {
	gh := newFakeGitHub(t, "sharkdp/fd", map[string][]byte{
		"fd-v10.2.0-x86_64-unknown-linux-gnu.tar.gz": tarGz(t, entry{name: "fd-v10.2.0/fd", body: "x86", mode: 0o755}),
		"fd-v10.2.0-aarch64-unknown-linux-gnu.tar.gz": tarGz(t, entry{name: "fd-v10.2.0/fd", body: "arm", mode: 0o755}),
	})
	dest := t.TempDir()

	installed, err := gh.installer(t, WithPlatform(PlatformFor("linux", "arm64"))).Install(context.Background(), Release{
		Repo:         "sharkdp/fd",
		AssetPattern: `.*-{{.Arch}}-unknown-{{.GOOS}}-gnu\.tar\.gz$`,
		Destination:  dest,
		Target:       "fd",
	})

	require.NoError(t, err)
	assert.True(t, installed)

	data, _ := os.ReadFile(filepath.Join(dest, "fd"))
	assert.Equal(t, "arm", string(data))
}

func TestReleaseInstallUnrecognizedFormat(t *testing.T) {
	gh := newFakeGitHub(t, "neovim/neovim", map[string][]byte{
		"nvim-linux-x86_64.tar.xz": []byte("xz"),
	})
	dest := t.TempDir()

	installed, err := gh.installer(t).Install(context.Background(), Release{
		Repo:         "neovim/neovim",
		AssetPattern: ".*linux.*",
		Destination:  dest,
		Target:       "nvim",
	})

	require.ErrorIs(t, err, dotfiles.ErrUnrecognizedFormat)
	assert.False(t, installed)
	assert.NoFileExists(t, filepath.Join(dest, "nvim"))
}

func TestReleaseInstallTargetNotFound(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))

	installed, err := gh.installer(t).Install(context.Background(), Release{
		Repo:         "foriequal0/git-trim",
		AssetPattern: ".*linux.*tgz$",
		Destination:  t.TempDir(),
		Target:       "git-prune",
	})

	require.ErrorIs(t, err, dotfiles.ErrTargetNotFound)
	assert.False(t, installed)
}

func TestReleaseInstallToken(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))

	_, err := gh.installer(t, WithToken("s3cret")).Install(context.Background(), Release{
		Repo:         "foriequal0/git-trim",
		AssetPattern: ".*linux.*tgz$",
		Destination:  t.TempDir(),
		Target:       "git-trim",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gh.auth)
}

func TestReleaseInstallAPIError(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))

	_, err := gh.installer(t).Install(context.Background(), Release{
		Repo:         "someone/missing",
		AssetPattern: ".*",
		Destination:  t.TempDir(),
		Target:       "missing",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http404")
}

func TestReleaseInstallInvalidInput(t *testing.T) {
	gh := newFakeGitHub(t, "foriequal0/git-trim", gitTrimRelease(t))
	releases := gh.installer(t)

	_, err := releases.Install(context.Background(), Release{
		Repo: "foriequal0/git-trim", AssetPattern: "(", Destination: t.TempDir(), Target: "git-trim",
	})
	assert.Error(t, err)

	_, err = releases.Install(context.Background(), Release{
		Repo: "foriequal0/git-trim", AssetPattern: ".*", Destination: t.TempDir(), Target: "[",
	})
	assert.Error(t, err)
	assert.Equal(t, 0, gh.total())
}

func TestNewReleaseInstallerEnvironment(t *testing.T) {
	t.Setenv("DOTFILES_GITHUB_API", "https://github.example.com/api/v3/")
	t.Setenv("GITHUB_TOKEN", "from-env")

	releases := NewReleaseInstaller()
	assert.Equal(t, "https://github.example.com/api/v3", releases.APIBase)
	assert.Equal(t, "from-env", releases.Token)
	assert.Equal(t, Host(), releases.Platform)

	releases = NewReleaseInstaller(WithAPIBase("http://localhost:8080"), WithToken(""))
	assert.Equal(t, "http://localhost:8080", releases.APIBase)
	assert.Empty(t, releases.Token)
}

func TestPlatformMappings(t *testing.T) {
	releases := NewReleaseInstaller(
		WithPlatform(PlatformFor("darwin", "amd64")),
		WithGOOSMapping(map[string]string{"darwin": "macos"}),
		WithArchMapping(map[string]string{"x86_64": "x64"}),
	)

	assert.Equal(t, "macos", releases.Platform.GOOS)
	assert.Equal(t, "x64", releases.Platform.Arch)
	assert.Equal(t, "amd64", releases.Platform.GOARCH)
}

func TestPlatformMappingsApplyToLaterPlatform(t *testing.T) {
	releases := NewReleaseInstaller(
		WithGOOSMapping(map[string]string{"darwin": "macos"}),
		WithArchMapping(map[string]string{"aarch64": "arm64"}),
		WithPlatform(PlatformFor("darwin", "arm64")),
	)

	assert.Equal(t, "macos", releases.Platform.GOOS)
	assert.Equal(t, "arm64", releases.Platform.Arch)
}
