package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return PlainRenderer
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns the markdown untouched.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RendererFor picks the glamour renderer for terminals and the plain one otherwise.
func RendererFor(w io.Writer) func(string) (string, error) {
	if IsTerminal(w) {
		return NewRenderer()
	}
	return PlainRenderer
}
