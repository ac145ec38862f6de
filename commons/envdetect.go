package commons

import (
	"context"
	"os"
	"os/user"

	"github.com/marciomazza/dotfiles"
)

// OnlyOnDesktop returns the step specified as argument only in the case
// the current session runs a graphical desktop.
// Otherwise it returns a noop step.
func OnlyOnDesktop(step dotfiles.Step) dotfiles.Step {
	if !IsDesktopSession() {
		return noop
	}

	return step
}

// OnlyHeadless returns the step specified as argument only when no
// graphical desktop is running, e.g. on servers provisioned over ssh.
// Otherwise it returns a noop step.
func OnlyHeadless(step dotfiles.Step) dotfiles.Step {
	if IsDesktopSession() {
		return noop
	}

	return step
}

// IsDesktopSession returns true if the current environment is a desktop session.
func IsDesktopSession() bool {
	_, ok := os.LookupEnv("XDG_CURRENT_DESKTOP")
	return ok
}

// Username returns the login name of the user running the provisioning,
// even when it runs under sudo.
func Username() (string, error) {
	if name := os.Getenv("SUDO_USER"); name != "" {
		return name, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return usr.Username, nil
}

func noop(ctx context.Context) error { return nil }
