package commons

import (
	"context"
	"time"

	"github.com/fatih/color"

	"github.com/marciomazza/dotfiles"
	"github.com/marciomazza/dotfiles/internal/logging"
)

// step wraps fn with the usual progress output: a title line and the elapsed
// time marked as passed or failed.
func step(title string, fn dotfiles.Step) dotfiles.Step {
	return func(ctx context.Context) (err error) {
		done := logging.LogOperationStart(logging.GetLogger("commons"), title)
		start := time.Now()
		defer func() {
			done()
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				color.Red(" ✘ %s\n\n", elapsed)
				return
			}
			color.Green(" ✔ %s\n\n", elapsed)
		}()

		dotfiles.LogStep(title)
		return fn(ctx)
	}
}
