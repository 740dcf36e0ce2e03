// Package output provides console output formatting and colorization
// for the fpm command line.
package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Color schemes, one per message class.
var (
	ColorSuccess = color.New(color.FgGreen)
	ColorError   = color.New(color.FgRed)
	ColorWarning = color.New(color.FgYellow)
	ColorInfo    = color.New(color.FgCyan)
	ColorDebug   = color.New(color.FgWhite)
)

// IsColorEnabled reports whether color output should be used: stdout
// must be a real terminal, NO_COLOR must be unset, and TERM must be
// set and not "dumb".
func IsColorEnabled() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if term := os.Getenv("TERM"); term == "dumb" || term == "" {
		return false
	}
	return true
}

// DisableColors turns off all color output globally.
func DisableColors() { color.NoColor = true }

// EnableColors turns on color output globally.
func EnableColors() { color.NoColor = false }
