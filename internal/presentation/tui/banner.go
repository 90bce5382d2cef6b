package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the assetflow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                     _    __ _               ", "#34d399"},
		{"   __ _ ___ ___  ___| |_ / _| | _____      __", "#2dd4bf"},
		{"  / _` / __/ __|/ _ \\ __| |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{" | (_| \\__ \\__ \\  __/ |_|  _| | (_) \\ V  V / ", "#38bdf8"},
		{"  \\__,_|___/___/\\___|\\__|_| |_|\\___/ \\_/\\_/  ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
