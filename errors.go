package dotfiles

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAmbiguousMatch is returned when zero or several candidates are found where
	// exactly one is required (lines in a file, release assets).
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrUnrecognizedFormat is returned for archives with an unknown suffix.
	ErrUnrecognizedFormat = errors.New("unrecognized archive format")
	// ErrIntegrityMismatch is returned when a downloaded file size differs from
	// the advertised content length.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	// ErrTargetNotFound is returned when an extracted archive holds no file
	// matching the requested target.
	ErrTargetNotFound = errors.New("target not found")
)

// ProcessFailure reports a command that exited with a non-zero code.
type ProcessFailure struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string

	Err error
}

func (p *ProcessFailure) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", p.Command, p.ExitCode)
	if out := strings.TrimSpace(p.Stderr); out != "" {
		msg += ": " + out
	}
	return msg
}

func (p *ProcessFailure) Unwrap() error {
	return p.Err
}
