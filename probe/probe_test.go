package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marciomazza/dotfiles/internal/testutil"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		template string
		name     string
		want     string
	}{
		{"dpkg -s", "tree", "dpkg -s tree"},
		{"dpkg -s {}", "tree", "dpkg -s tree"},
		{"sudo apt install {} --yes", "htop", "sudo apt install htop --yes"},
		{"", "ruff", "ruff"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.template, tt.name))
	}
}

func TestShellProbe(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "which git").Return(testutil.Exit("which git", 0), nil)
	ex.On("Run", "which nope").Return(testutil.Exit("which nope", 1), nil)

	probe := ShellProbe{Template: "which", Executor: ex}

	ok, err := probe.Satisfied(context.Background(), "git")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = probe.Satisfied(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ex.AssertExpectations(t)
}

func TestShellProbeLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "present"), nil, 0o644))

	probe := Shell("test -e " + dir + "/{}")

	ok, err := probe.Satisfied(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = probe.Satisfied(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomProbe(t *testing.T) {
	probe := CustomProbe(func(_ context.Context, name string) (bool, error) {
		return name == "yes", nil
	})

	ok, _ := probe.Satisfied(context.Background(), "yes")
	assert.True(t, ok)
	ok, _ = probe.Satisfied(context.Background(), "no")
	assert.False(t, ok)
}

func TestDpkg(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "dpkg-query -W -f=${Status} tree").
		Return(testutil.Output("", "install ok installed"), nil)
	ex.On("Run", "dpkg-query -W -f=${Status} purged").
		Return(testutil.Output("", "deinstall ok config-files"), nil)
	ex.On("Run", "dpkg-query -W -f=${Status} unknown").
		Return(testutil.Exit("", 1), nil)

	probe := Dpkg(ex)
	for name, want := range map[string]bool{"tree": true, "purged": false, "unknown": false} {
		ok, err := probe.Satisfied(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, want, ok, name)
	}
}

func TestPPARegistered(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "mozillateam-ubuntu-ppa-jammy.list"),
		[]byte("deb https://ppa.launchpadcontent.net/mozillateam/ppa/ubuntu/ jammy main\n"),
		0o644,
	))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ppa.launchpad.net/other/ppa/"), 0o644))

	ok, err := ppaRegisteredIn(dir, "mozillateam")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ppaRegisteredIn(dir, "mozillateam/ppa")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ppaRegisteredIn(dir, "mozillateam/next")
	require.NoError(t, err)
	assert.False(t, ok, "another archive of the same owner")

	ok, err = ppaRegisteredIn(dir, "other")
	require.NoError(t, err)
	assert.False(t, ok, "only .list and .sources files count")

	ok, err = ppaRegisteredIn(filepath.Join(dir, "missing"), "mozillateam")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocaleAvailable(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "locale -a").Return(testutil.Output("locale -a", "C\nC.utf8\nen_US.utf8\npt_BR.utf8\nPOSIX\n"), nil)

	ok, err := LocaleAvailable(context.Background(), ex, "pt_BR.UTF-8")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = LocaleAvailable(context.Background(), ex, "de_DE.UTF-8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionAtLeast(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "node --version").Return(testutil.Output("node --version", "v16.20.2\n"), nil)
	ex.On("Run", "missing --version").Return(testutil.Exit("missing --version", 127), nil)
	ex.On("Run", "garbled --version").Return(testutil.Output("garbled --version", "unknown\n"), nil)

	tests := []struct {
		command string
		minimum string
		want    bool
	}{
		{"node --version", "16", true},
		{"node --version", "v16.20", true},
		{"node --version", "18", false},
		{"missing --version", "1", false},
		{"garbled --version", "1", false},
	}

	for _, tt := range tests {
		ok, err := VersionAtLeast(context.Background(), ex, tt.command, tt.minimum)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s >= %s", tt.command, tt.minimum)
	}

	_, err := VersionAtLeast(context.Background(), ex, "node --version", "sixteen")
	assert.Error(t, err)
}

func TestVersionAtLeastRunnerError(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "node --version").Return(nil, errors.New("boom"))

	_, err := VersionAtLeast(context.Background(), ex, "node --version", "16")
	assert.Error(t, err)
}

func TestIsBtrfsSubvolumeRegularDir(t *testing.T) {
	ok, err := IsBtrfsSubvolume(t.TempDir())
	require.NoError(t, err)
	// a fresh temp dir is never a subvolume root, even on btrfs
	assert.False(t, ok)

	_, err = IsBtrfsSubvolume(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWaitFor(t *testing.T) {
	calls := 0
	ok := WaitFor(context.Background(), func() bool {
		calls++
		return calls >= 3
	}, time.Millisecond, time.Second)

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestWaitForTimeout(t *testing.T) {
	ok := WaitFor(context.Background(), func() bool { return false }, time.Millisecond, 20*time.Millisecond)
	assert.False(t, ok)
}

func TestWaitForNonPositiveInterval(t *testing.T) {
	calls := 0
	condition := func() bool {
		calls++
		return false
	}

	assert.False(t, WaitFor(context.Background(), condition, 0, 10*time.Millisecond))
	assert.False(t, WaitFor(context.Background(), condition, -time.Second, 10*time.Millisecond))
	assert.Equal(t, 2, calls)

	assert.True(t, WaitFor(context.Background(), func() bool { return true }, 0, time.Millisecond))
}

func TestPPAName(t *testing.T) {
	for in, want := range map[string]string{
		"mozillateam":            "mozillateam/ppa",
		"ppa:mozillateam":        "mozillateam/ppa",
		"deadsnakes/nightly":     "deadsnakes/nightly",
		"ppa:git-core/candidate": "git-core/candidate",
		"git-core/":              "git-core/ppa",
	} {
		assert.Equal(t, want, PPAName(in), in)
	}
}

func TestPresetsUseExecutor(t *testing.T) {
	ex := &testutil.MockExecutor{}
	ex.On("Run", "which rg").Return(testutil.Exit("", 0), nil)
	ex.On("Run", "npm list -g prettier").Return(testutil.Exit("", 1), nil)
	ex.On("Run", "snap list firefox").Return(testutil.Exit("", 0), nil)
	ex.On("Run", "pip show ipdb").Return(testutil.Exit("", 1), nil)

	for _, tt := range []struct {
		probe Probe
		name  string
		want  bool
	}{
		{Which(ex), "rg", true},
		{NpmGlobal(ex), "prettier", false},
		{Snap(ex), "firefox", true},
		{PipShow(ex), "ipdb", false},
	} {
		ok, err := tt.probe.Satisfied(context.Background(), tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, tt.name)
	}

	ex.AssertExpectations(t)
}
