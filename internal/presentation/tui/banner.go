package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Cerberus banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, colour string }{
		{"   ___         _                       ", "#818cf8"},
		{"  / __|___ _ _| |__  ___ _ _ _  _ ___ ", "#a78bfa"},
		{" | (__/ -_) '_| '_ \\/ -_) '_| || (_-< ", "#c084fc"},
		{"  \\___\\___|_| |_.__/\\___|_|  \\_,_/__/ ", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.colour)))
	}
	fmt.Fprintln(w, p.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
