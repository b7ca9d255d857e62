package browse

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/cowtree/internal/render"
	"github.com/dkoosis/cowtree/pkg/btree"
)

type fakeTree map[int64]btree.NodeInfo

func (f fakeTree) RootOffset() (int64, error) { return 4096, nil }

func (f fakeTree) Inspect(off int64) (btree.NodeInfo, error) {
	n, ok := f[off]
	if !ok {
		return btree.NodeInfo{}, fmt.Errorf("no node at %d", off)
	}
	return n, nil
}

func sampleTree() fakeTree {
	return fakeTree{
		4096:  {Offset: 4096, Root: true, Keys: []string{"b"}, Children: []int64{8192, 12288}},
		8192:  {Offset: 8192, Leaf: true, Pairs: []btree.PairInfo{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}},
		12288: {Offset: 12288, Leaf: true, Pairs: []btree.PairInfo{{Key: "c", Value: "3"}}},
	}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestNew_StartsAtRoot(t *testing.T) {
	m, err := New(sampleTree(), render.MonoTheme())
	require.NoError(t, err)
	assert.Equal(t, int64(4096), m.Node().Offset)
	assert.Zero(t, m.Depth())

	items := m.list.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "child @8192", items[0].(entry).Title())
	assert.Equal(t, "keys <= b", items[0].(entry).Description())
	assert.Equal(t, "keys > b", items[1].(entry).Description())
}

func TestUpdate_NavigatesDownAndBack(t *testing.T) {
	m, err := New(sampleTree(), render.MonoTheme())
	require.NoError(t, err)

	m = press(t, m, down, enter)
	assert.Equal(t, int64(12288), m.Node().Offset)
	assert.Equal(t, 1, m.Depth())
	assert.Contains(t, m.View(), "@4096 > @12288")
	assert.Contains(t, m.View(), "* Leaf @12288 (1 pairs)")

	// Entering a leaf pair does nothing.
	m = press(t, m, enter)
	assert.Equal(t, int64(12288), m.Node().Offset)

	m = press(t, m, esc)
	assert.Equal(t, int64(4096), m.Node().Offset)
	assert.Zero(t, m.Depth())

	// Going back from the root stays put.
	m = press(t, m, esc)
	assert.Equal(t, int64(4096), m.Node().Offset)
}

func TestUpdate_ShowsLoadErrors(t *testing.T) {
	tree := sampleTree()
	delete(tree, 8192)
	m, err := New(tree, render.MonoTheme())
	require.NoError(t, err)

	m = press(t, m, enter)
	assert.Equal(t, int64(4096), m.Node().Offset)
	assert.Contains(t, m.View(), "x no node at 8192")
}

func TestUpdate_Quit(t *testing.T) {
	m, err := New(sampleTree(), render.MonoTheme())
	require.NoError(t, err)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

type brokenTree struct{}

func (brokenTree) RootOffset() (int64, error) { return 0, errors.New("closed") }
func (brokenTree) Inspect(int64) (btree.NodeInfo, error) {
	return btree.NodeInfo{}, errors.New("closed")
}

func TestNew_PropagatesErrors(t *testing.T) {
	_, err := New(brokenTree{}, render.MonoTheme())
	assert.EqualError(t, err, "closed")
}

func TestBrowseRealTree(t *testing.T) {
	tree, err := btree.Open(filepath.Join(t.TempDir(), "db"), btree.WithB(2), btree.WithSync(false))
	require.NoError(t, err)
	defer tree.Close()
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
	}

	m, err := New(tree, render.MonoTheme())
	require.NoError(t, err)
	assert.False(t, m.Node().Leaf)

	for !m.Node().Leaf {
		m = press(t, m, enter)
	}
	assert.Equal(t, "k0", m.list.Items()[0].(entry).Title())
	assert.Equal(t, "v0", m.list.Items()[0].(entry).Description())
}
