package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/cowtree/pkg/btree"
)

const (
	defaultWidth = 80
	maxKeyColumn = btree.MaxKeySize
)

var titler = cases.Title(language.English)

// Terminal renders styled output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = defaultWidth
	}
	return &Terminal{theme: theme, width: width}
}

// Value renders a single lookup result.
func (t *Terminal) Value(_, value string) string {
	return value + "\n"
}

// Pairs renders one line per pair with keys aligned and values cut to fit
// the width.
func (t *Terminal) Pairs(pairs []Pair) string {
	if len(pairs) == 0 {
		return t.theme.Faint.Render(t.theme.Glyphs.Empty+" no keys") + "\n"
	}

	keyCol := 0
	for _, p := range pairs {
		keyCol = max(keyCol, runewidth.StringWidth(p.Key))
	}
	keyCol = min(keyCol, maxKeyColumn)
	valueCol := max(t.width-keyCol-3, 8)

	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(t.theme.Key.Render(runewidth.FillRight(p.Key, keyCol)))
		sb.WriteString(t.theme.Faint.Render(" = "))
		sb.WriteString(Preview(p.Value, valueCol))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Stats renders a tree summary.
func (t *Terminal) Stats(s btree.Stats) string {
	rows := []struct {
		label string
		value string
	}{
		{"branching parameter", fmt.Sprint(s.B)},
		{"root offset", fmt.Sprint(s.Root)},
		{"height", fmt.Sprint(s.Height)},
		{"internal nodes", fmt.Sprint(s.InternalNodes)},
		{"leaves", fmt.Sprint(s.Leaves)},
		{"keys", fmt.Sprint(s.Pairs)},
		{"file pages", fmt.Sprintf("%d (%d bytes)", s.FilePages, s.FilePages*btree.PageSize)},
		{"root log records", fmt.Sprint(s.LogRecords)},
	}

	var sb strings.Builder
	sb.WriteString(t.theme.Heading.Render(titler.String("tree statistics")))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Faint.Render(runewidth.FillRight(r.label, 20)))
		sb.WriteString(t.theme.Key.Render(r.value))
		sb.WriteString("\n")
	}

	notices := []struct {
		bytes int64
		what  string
	}{
		{s.TornBytes, "of a partial page cut from the table file"},
		{s.DroppedLogBytes, "of uncommitted root records cut from the root log"},
	}
	for _, n := range notices {
		if n.bytes > 0 {
			fmt.Fprintf(&sb, "  %s\n", t.theme.Alert.Render(fmt.Sprintf("%s recovered: %d bytes %s", t.theme.Glyphs.Alert, n.bytes, n.what)))
		}
	}
	return sb.String()
}

// Node renders one node as stored on disk.
func (t *Terminal) Node(n btree.NodeInfo) string {
	var sb strings.Builder
	sb.WriteString(t.theme.Heading.Render(t.theme.NodeGlyph(n.Leaf) + " " + NodeTitle(n)))
	sb.WriteString("\n")

	if !n.Leaf {
		for i, child := range n.Children {
			bound := "+inf"
			if i < len(n.Keys) {
				bound = "<= " + n.Keys[i]
			}
			fmt.Fprintf(&sb, "  %s %s %s\n",
				t.theme.Glyphs.Trail,
				t.theme.Key.Render(fmt.Sprintf("child @%d", child)),
				t.theme.Faint.Render(bound))
		}
		return sb.String()
	}

	sb.WriteString(t.theme.Faint.Render(fmt.Sprintf("  data page @%d", n.DataPage)))
	sb.WriteString("\n")
	pairs := make([]Pair, len(n.Pairs))
	for i, p := range n.Pairs {
		pairs[i] = Pair{Key: p.Key, Value: p.Value}
	}
	for _, line := range strings.SplitAfter(NewTerminal(t.theme, t.width-2).Pairs(pairs), "\n") {
		if line != "" {
			sb.WriteString("  " + line)
		}
	}
	return sb.String()
}

// Config renders resolved settings as aligned columns. file is empty when no
// config file was found.
func (t *Terminal) Config(file string, settings []Setting) string {
	if file == "" {
		file = "(none)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "config file: %s\n", file)
	for _, st := range settings {
		fmt.Fprintf(&sb, "%-9s %-12s (%s)\n", st.Name, st.Value, st.Source)
	}
	return sb.String()
}

// NodeTitle is a one-line description of a node.
func NodeTitle(n btree.NodeInfo) string {
	kind := "internal"
	count := fmt.Sprintf("%d keys", len(n.Keys))
	if n.Leaf {
		kind = "leaf"
		count = fmt.Sprintf("%d pairs", len(n.Pairs))
	}
	if n.Root {
		kind = "root " + kind
	}
	return fmt.Sprintf("%s @%d (%s)", titler.String(kind), n.Offset, count)
}

// Preview flattens value to one line and truncates it to width cells.
func Preview(value string, width int) string {
	flat := strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(value)
	return runewidth.Truncate(flat, width, "…")
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or the default when w is not a
// terminal.
func Width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return defaultWidth
}
