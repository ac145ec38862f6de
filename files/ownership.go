package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/marciomazza/dotfiles"
)

// WithOwnership hands path over to the current user for the duration of fn, so plain
// file APIs can edit a root owned file without elevating every read and write.
// The original owner is restored exactly once on every exit path, including errors
// and panics in fn; a failed restore is joined to fn's error.
func WithOwnership(ctx context.Context, ex dotfiles.Executor, path string, fn func(path string) error) (err error) {
	if ex == nil {
		ex = dotfiles.Local{}
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("no ownership information for %s", path)
	}

	if err := chown(ctx, ex, os.Getuid(), path); err != nil {
		return fmt.Errorf("failed to take ownership of %s: %w", path, err)
	}

	defer func() {
		// restore even when ctx was canceled meanwhile
		if rerr := chown(context.WithoutCancel(ctx), ex, int(stat.Uid), path); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore ownership of %s: %w", path, rerr))
		}
	}()

	return fn(path)
}

func chown(ctx context.Context, ex dotfiles.Executor, uid int, path string) error {
	_, err := ex.Run(
		ctx,
		fmt.Sprintf("sudo chown %d %s", uid, path),
		dotfiles.WithCapture(),
		dotfiles.WithoutNoise(),
	)
	return err
}
