// Package browse is an interactive terminal browser for a tree's nodes.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/cowtree/internal/render"
	"github.com/dkoosis/cowtree/pkg/btree"
)

// Inspector is the read-only view of a tree the browser walks.
type Inspector interface {
	RootOffset() (int64, error)
	Inspect(off int64) (btree.NodeInfo, error)
}

type entry struct {
	title string
	desc  string
	child int64
	leaf  bool
}

func (e entry) Title() string       { return e.title }
func (e entry) Description() string { return e.desc }
func (e entry) FilterValue() string { return e.title }

// Model is the bubbletea model of the browser.
type Model struct {
	tree  Inspector
	theme render.Theme
	list  list.Model

	node  btree.NodeInfo
	trail []int64
	err   error
}

// New returns a browser positioned at the committed root.
func New(tree Inspector, theme render.Theme) (Model, error) {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	m := Model{tree: tree, theme: theme, list: l}
	root, err := tree.RootOffset()
	if err != nil {
		return Model{}, err
	}
	if err := m.load(root); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Run starts the browser on the alternate screen and blocks until it quits.
func Run(tree Inspector, theme render.Theme) error {
	m, err := New(tree, theme)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) load(off int64) error {
	info, err := m.tree.Inspect(off)
	if err != nil {
		return err
	}
	m.node = info
	m.list.Title = render.NodeTitle(info)
	m.list.ResetFilter()
	m.list.SetItems(entries(info))
	m.list.ResetSelected()
	return nil
}

func entries(info btree.NodeInfo) []list.Item {
	if info.Leaf {
		items := make([]list.Item, len(info.Pairs))
		for i, p := range info.Pairs {
			items[i] = entry{
				title: p.Key,
				desc:  render.Preview(p.Value, 60),
				leaf:  true,
			}
		}
		return items
	}

	items := make([]list.Item, len(info.Children))
	for i, child := range info.Children {
		var desc string
		switch {
		case i < len(info.Keys):
			desc = "keys <= " + info.Keys[i]
		case len(info.Keys) > 0:
			desc = "keys > " + info.Keys[len(info.Keys)-1]
		default:
			desc = "all keys"
		}
		items[i] = entry{title: fmt.Sprintf("child @%d", child), desc: desc, child: child}
	}
	return items
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "enter", "right", "l":
			it, ok := m.list.SelectedItem().(entry)
			if !ok || it.leaf {
				return m, nil
			}
			from := m.node.Offset
			if err := m.load(it.child); err != nil {
				m.err = err
				return m, nil
			}
			m.trail = append(m.trail, from)
			m.err = nil
			return m, nil

		case "esc", "backspace", "left", "h", "b":
			if len(m.trail) == 0 {
				return m, nil
			}
			parent := m.trail[len(m.trail)-1]
			if err := m.load(parent); err != nil {
				m.err = err
				return m, nil
			}
			m.trail = m.trail[:len(m.trail)-1]
			m.err = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	wrap := lipgloss.NewStyle().Padding(1, 2)

	var sb strings.Builder
	sb.WriteString(m.theme.Faint.Render(m.breadcrumb()))
	sb.WriteString("\n")
	sb.WriteString(m.theme.Heading.Render(m.theme.NodeGlyph(m.node.Leaf) + " " + render.NodeTitle(m.node)))
	sb.WriteString("\n")
	sb.WriteString(m.list.View())
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(m.theme.Error.Render(m.theme.Glyphs.Error + " " + m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.theme.Faint.Render("↑/↓ navigate • enter open • esc back • / filter • q quit"))
	return wrap.Render(sb.String())
}

func (m Model) breadcrumb() string {
	parts := make([]string, 0, len(m.trail)+1)
	for _, off := range m.trail {
		parts = append(parts, fmt.Sprintf("@%d", off))
	}
	parts = append(parts, fmt.Sprintf("@%d", m.node.Offset))
	return strings.Join(parts, " "+m.theme.Glyphs.Trail+" ")
}

// Node returns the node currently shown.
func (m Model) Node() btree.NodeInfo {
	return m.node
}

// Depth returns how many levels below the root the browser is.
func (m Model) Depth() int {
	return len(m.trail)
}
