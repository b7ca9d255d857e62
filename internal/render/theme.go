package render

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the set of styles and glyphs used to draw keys, nodes and
// recovery notices.
type Theme struct {
	Name    string
	Key     lipgloss.Style
	Faint   lipgloss.Style
	Heading lipgloss.Style
	Alert   lipgloss.Style
	Error   lipgloss.Style
	Glyphs  Glyphs
}

// Glyphs marks node kinds and message severities.
type Glyphs struct {
	Branch string
	Leaf   string
	Empty  string
	Alert  string
	Error  string
	Trail  string
}

// NodeGlyph returns the glyph drawn in front of a node title.
func (t Theme) NodeGlyph(leaf bool) string {
	if leaf {
		return t.Glyphs.Leaf
	}
	return t.Glyphs.Branch
}

type palette struct {
	key, faint, alert, err lipgloss.Color
}

// Colors are 256-color ANSI codes.
var palettes = map[string]palette{
	"default": {key: "45", faint: "244", alert: "220", err: "203"},
	"orca":    {key: "110", faint: "246", alert: "180", err: "174"},
}

var (
	unicodeGlyphs = Glyphs{Branch: "▸", Leaf: "◆", Empty: "·", Alert: "⚠", Error: "✗", Trail: "›"}
	asciiGlyphs   = Glyphs{Branch: ">", Leaf: "*", Empty: "-", Alert: "!", Error: "x", Trail: ">"}
)

// ThemeNames lists the themes ThemeByName knows.
func ThemeNames() []string {
	names := []string{"mono"}
	for name := range palettes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ThemeByName returns the named theme. Unknown names get the default theme
// and noColor always yields the mono theme.
func ThemeByName(name string, noColor bool) Theme {
	if noColor || name == "mono" {
		return MonoTheme()
	}
	p, ok := palettes[name]
	if !ok {
		name, p = "default", palettes["default"]
	}
	return Theme{
		Name:    name,
		Key:     lipgloss.NewStyle().Foreground(p.key),
		Faint:   lipgloss.NewStyle().Foreground(p.faint),
		Heading: lipgloss.NewStyle().Bold(true),
		Alert:   lipgloss.NewStyle().Foreground(p.alert),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(p.err),
		Glyphs:  unicodeGlyphs,
	}
}

// MonoTheme draws plain ASCII without styling.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    "mono",
		Key:     plain,
		Faint:   plain,
		Heading: plain,
		Alert:   plain,
		Error:   plain,
		Glyphs:  asciiGlyphs,
	}
}
