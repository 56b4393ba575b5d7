package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the aware banner and version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"   __ ___      ____ _ _ __ ___ ", "#818cf8"},
		{"  / _` \\ \\ /\\ / / _` | '__/ _ \\", "#a78bfa"},
		{" | (_| |\\ V  V / (_| | | |  __/", "#c084fc"},
		{"  \\__,_| \\_/\\_/ \\__,_|_|  \\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
