package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/internal/logging"
)

// DefaultPrefix returns the start of line up to and including the first "=",
// so "kernel.sysrq=240" matches any "kernel.sysrq=..." line.
// Lines without "=" match only lines starting with the whole line.
func DefaultPrefix(line string) string {
	if i := strings.Index(line, "="); i >= 0 {
		return line[:i+1]
	}
	return line
}

// ReplaceLine replaces every line of text starting with prefix by line, normalized to
// end with a single newline, and returns the new text with the number of replaced
// lines. When nothing matched, line is appended, preceded by a newline only if text
// doesn't already end with one.
func ReplaceLine(text, line, prefix string) (string, int) {
	line = strings.TrimRightFunc(line, unicode.IsSpace) + "\n"

	var bld strings.Builder
	replaced := 0

	for _, current := range strings.SplitAfter(text, "\n") {
		if current == "" {
			continue
		}
		if strings.HasPrefix(current, prefix) {
			bld.WriteString(line)
			replaced++
			continue
		}
		bld.WriteString(current)
	}

	if replaced == 0 {
		if text != "" && !strings.HasSuffix(text, "\n") {
			bld.WriteString("\n")
		}
		bld.WriteString(line)
	}

	return bld.String(), replaced
}

type lineconf struct {
	prefix string
}

// LineOpt customizes [LineInFile].
type LineOpt func(c *lineconf)

// WithPrefix overrides the prefix identifying the line to replace.
// An empty prefix keeps the [DefaultPrefix].
func WithPrefix(prefix string) LineOpt {
	return func(c *lineconf) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// LineInFile makes sure path holds line exactly once, replacing the line that starts
// with the same prefix (see [DefaultPrefix]) or appending it. The file is only
// written when its content changes.
//
// More than one matching line is an [dotfiles.ErrAmbiguousMatch] and nothing is written.
// When the file isn't writable by the current user the edit is retried once under
// [WithOwnership].
func LineInFile(ctx context.Context, ex dotfiles.Executor, path, line string, opts ...LineOpt) (bool, error) {
	logger := logging.GetLogger("files.lineinfile")

	conf := lineconf{prefix: DefaultPrefix(line)}
	for _, opt := range opts {
		opt(&conf)
	}

	path, err := ExpandHome(path)
	if err != nil {
		return false, err
	}

	changed := false
	apply := func(path string) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		updated, replaced := ReplaceLine(string(data), line, conf.prefix)
		if replaced > 1 {
			return fmt.Errorf(
				"%w: %d lines in %s start with %q", dotfiles.ErrAmbiguousMatch, replaced, path, conf.prefix,
			)
		}
		if updated == string(data) {
			return nil
		}

		if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
			return err
		}
		changed = true
		return nil
	}

	err = apply(path)
	if errors.Is(err, fs.ErrPermission) {
		logger.Info().Str("path", path).Msg("not writable, retrying with temporary ownership")
		err = WithOwnership(ctx, ex, path, apply)
	}
	if err != nil {
		return false, fmt.Errorf("lineinfile %s: %w", path, err)
	}

	if changed {
		logger.Info().Str("path", path).Str("line", strings.TrimSpace(line)).Msg("line updated")
	}
	return changed, nil
}
