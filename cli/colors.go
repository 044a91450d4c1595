package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// SupportsColor disables color output when stdout is not a terminal or
// the caller asked for plain output.
func SupportsColor(noColorHint bool) {
	fd := os.Stdout.Fd()
	color.NoColor = noColorHint || (!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd))
}
