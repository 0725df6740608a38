package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cyrkana banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`   ___ _   _ _ __| | ____ _ _ __   __ _ `, "#818cf8"},
		{`  / __| | | | '__| |/ / _' | '_ \ / _' |`, "#a78bfa"},
		{` | (__| |_| | |  |   < (_| | | | | (_| |`, "#c084fc"},
		{`  \___|\__, |_|  |_|\_\__,_|_| |_|\__,_|`, "#e879f9"},
		{`       |___/   кириллица → かな`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
