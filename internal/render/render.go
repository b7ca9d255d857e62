// Package render formats tree contents for the cowtree CLI.
package render

import "github.com/dkoosis/cowtree/pkg/btree"

// Pair is a key with its value.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Setting is one resolved configuration value and where it came from.
type Setting struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Renderer converts tree data to output text.
type Renderer interface {
	Value(key, value string) string
	Pairs(pairs []Pair) string
	Stats(s btree.Stats) string
	Node(n btree.NodeInfo) string
	Config(file string, settings []Setting) string
}

// New returns the renderer for format: "json" or "text".
func New(format string, theme Theme, width int) Renderer {
	if format == "json" {
		return NewJSON()
	}
	return NewTerminal(theme, width)
}
