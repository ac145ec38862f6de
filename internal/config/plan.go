// Package config loads the provisioning plan: the declarative list of what a
// machine should have installed and configured.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/marciomazza/dotfiles/internal/logging"
)

// Plan is a provisioning plan, read from TOML or YAML.
type Plan struct {
	// FilesHome mirrors $HOME; every file in it gets linked into the home directory.
	FilesHome string `toml:"files_home" yaml:"files_home"`

	PPAs     []string  `toml:"ppas" yaml:"ppas"`
	Packages Packages  `toml:"packages" yaml:"packages"`
	Lines    []Line    `toml:"lines" yaml:"lines"`
	Sync     []Sync    `toml:"sync" yaml:"sync"`
	Releases []Release `toml:"releases" yaml:"releases"`
	Debs     []Deb     `toml:"debs" yaml:"debs"`

	NerdFonts       []string `toml:"nerd_fonts" yaml:"nerd_fonts"`
	NodeJS          int      `toml:"nodejs" yaml:"nodejs"`
	Locales         []string `toml:"locales" yaml:"locales"`
	Groups          []string `toml:"groups" yaml:"groups"`
	BtrfsSubvolumes []string `toml:"btrfs_subvolumes" yaml:"btrfs_subvolumes"`

	// Desktop is only applied in graphical sessions.
	Desktop Desktop `toml:"desktop" yaml:"desktop"`
}

// Packages holds whitespace separated package lists per manager; "#" starts a comment.
type Packages struct {
	Apt  string `toml:"apt" yaml:"apt"`
	Npm  string `toml:"npm" yaml:"npm"`
	Snap string `toml:"snap" yaml:"snap"`
	Pip  string `toml:"pip" yaml:"pip"`
	Uv   string `toml:"uv" yaml:"uv"`
}

// Desktop is the part of a plan that only makes sense with a graphical session.
type Desktop struct {
	PPAs     []string  `toml:"ppas" yaml:"ppas"`
	Packages Packages  `toml:"packages" yaml:"packages"`
	Sync     []Sync    `toml:"sync" yaml:"sync"`
	Releases []Release `toml:"releases" yaml:"releases"`
	Debs     []Deb     `toml:"debs" yaml:"debs"`
}

// Line is a line that has to be present in a file.
type Line struct {
	Path   string `toml:"path" yaml:"path"`
	Line   string `toml:"line" yaml:"line"`
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// Sync copies a directory into a root owned location, e.g. "files/firefox/apt" into "/etc".
type Sync struct {
	Source      string `toml:"source" yaml:"source"`
	Destination string `toml:"destination" yaml:"destination"`
}

// Release is a file to install from a GitHub release archive.
type Release struct {
	Repo        string `toml:"repo" yaml:"repo"`
	Asset       string `toml:"asset" yaml:"asset"`
	Destination string `toml:"destination" yaml:"destination"`
	Target      string `toml:"target" yaml:"target"`
	Update      bool   `toml:"update" yaml:"update"`
}

// Deb is a standalone .deb package.
type Deb struct {
	URL     string `toml:"url" yaml:"url"`
	Package string `toml:"package" yaml:"package"`
}

// DefaultPath is where the plan is looked up when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, logging.AppName, "plan.toml")
}

// Load reads and parses a plan. The format follows the extension: ".toml", or
// ".yaml"/".yml". Relative paths in the plan are resolved against the plan's directory.
func Load(path string) (*Plan, error) {
	logger := logging.GetLogger("config").With().Str("path", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var plan Plan
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q", ext)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}

	plan.resolve(filepath.Dir(path))

	logger.Debug().
		Int("lines", len(plan.Lines)).
		Int("releases", len(plan.Releases)+len(plan.Desktop.Releases)).
		Int("debs", len(plan.Debs)+len(plan.Desktop.Debs)).
		Msg("plan loaded")

	return &plan, nil
}

// Validate checks that every entry names what it needs.
func (p *Plan) Validate() error {
	for i, line := range p.Lines {
		if line.Path == "" || strings.TrimSpace(line.Line) == "" {
			return fmt.Errorf("lines[%d]: path and line are required", i)
		}
	}

	for i, rel := range append(append([]Release{}, p.Releases...), p.Desktop.Releases...) {
		if rel.Repo == "" || rel.Asset == "" || rel.Destination == "" || rel.Target == "" {
			return fmt.Errorf("releases[%d]: repo, asset, destination and target are required", i)
		}
		if strings.Count(rel.Repo, "/") != 1 {
			return fmt.Errorf("releases[%d]: repo %q is not owner/name", i, rel.Repo)
		}
	}

	for i, deb := range append(append([]Deb{}, p.Debs...), p.Desktop.Debs...) {
		if deb.URL == "" || deb.Package == "" {
			return fmt.Errorf("debs[%d]: url and package are required", i)
		}
	}

	for i, sync := range append(append([]Sync{}, p.Sync...), p.Desktop.Sync...) {
		if sync.Source == "" || sync.Destination == "" {
			return fmt.Errorf("sync[%d]: source and destination are required", i)
		}
	}

	if p.NodeJS < 0 {
		return fmt.Errorf("nodejs: invalid major version %d", p.NodeJS)
	}

	return nil
}

// resolve makes the plan's repository relative paths absolute.
func (p *Plan) resolve(dir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
			return path
		}
		return filepath.Join(dir, path)
	}

	p.FilesHome = abs(p.FilesHome)
	for i := range p.Sync {
		p.Sync[i].Source = abs(p.Sync[i].Source)
	}
	for i := range p.Desktop.Sync {
		p.Desktop.Sync[i].Source = abs(p.Desktop.Sync[i].Source)
	}
}
