package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vmchat banner followed by the version and a usage hint.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                        _           _   ", "#38bdf8"},
		{" __   ___ __ ___   ___| |__   __ _| |_ ", "#22d3ee"},
		{" \\ \\ / / '_ ` _ \\ / __| '_ \\ / _` | __|", "#2dd4bf"},
		{"  \\ V /| | | | | | (__| | | | (_| | |_ ", "#34d399"},
		{"   \\_/ |_| |_| |_|\\___|_| |_|\\__,_|\\__|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)

	hint := termenv.String(fmt.Sprintf("  v%s  ·  type 'exit' or 'quit' to leave", strings.TrimSpace(version))).Faint()
	fmt.Fprintln(w, hint)
	fmt.Fprintln(w)
}
