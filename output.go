package dotfiles

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// LogStep prints a top level progress line.
func LogStep(text string) {
	fmt.Println(
		color.MagentaString(" ⌘"),
		color.New(color.Bold).Sprint(text),
	)
}

// LogDetail prints a progress line nested under the current step.
func LogDetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

// LogOutcome prints the elapsed time since start, marked as failed if err is set.
// Meant to be deferred with a pointer to a named error return.
func LogOutcome(start time.Time, err *error) {
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil && *err != nil {
		color.Red("     ✘ %s", elapsed)
		return
	}
	color.Green("     ✔ %s", elapsed)
}
