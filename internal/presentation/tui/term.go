package tui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, zero when unknown.
func Width(f *os.File) int {
	if !IsTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Profile picks the colour profile for f. Colours are off when disabled or when f
// is not a terminal.
func Profile(f *os.File, colour bool) termenv.Profile {
	if !colour || !IsTerminal(f) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).ColorProfile()
}
