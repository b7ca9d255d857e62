package btree

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkoosis/cowtree/internal/page"
)

// NodeInfo describes one node as stored on disk.
type NodeInfo struct {
	Offset int64
	Leaf   bool
	Root   bool
	Parent int64

	// Internal nodes: separator keys and child offsets.
	Keys     []string
	Children []int64

	// Leaves: the data page and the pairs it backs, in key order.
	DataPage int64
	Pairs    []PairInfo
}

// PairInfo is a leaf pair together with its value.
type PairInfo struct {
	Key   string
	Index uint64
	Value string
}

// Stats summarizes the reachable part of a tree and what Open recovered.
type Stats struct {
	B             int
	Root          int64
	Height        int
	InternalNodes int
	Leaves        int
	Pairs         int
	FilePages     int64

	// LogRecords counts the root commits held by the root log since it was
	// last compacted.
	LogRecords int

	// TornBytes and DroppedLogBytes are the partial page and the
	// uncommitted root records cut off when the database was opened.
	TornBytes       int64
	DroppedLogBytes int64
}

// RootOffset returns the offset of the committed root node.
func (t *BTree) RootOffset() (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	off, err := t.rootOffset()
	return int64(off), err
}

// Inspect decodes the node at off.
func (t *BTree) Inspect(off int64) (NodeInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return NodeInfo{}, ErrClosed
	}
	return t.inspect(page.Offset(off))
}

func (t *BTree) inspect(off page.Offset) (NodeInfo, error) {
	n, err := t.readNode(off)
	if err != nil {
		return NodeInfo{}, err
	}

	info := NodeInfo{
		Offset: int64(off),
		Leaf:   n.IsLeaf(),
		Root:   n.IsRoot,
		Parent: int64(n.Parent),
	}
	if !n.IsLeaf() {
		info.Keys = append([]string(nil), n.Keys...)
		info.Children = make([]int64, len(n.Children))
		for i, c := range n.Children {
			info.Children[i] = int64(c)
		}
		return info, nil
	}

	values, err := t.readValues(n)
	if err != nil {
		return NodeInfo{}, err
	}
	info.DataPage = int64(n.Data)
	info.Pairs = make([]PairInfo, len(n.Pairs))
	for i, pair := range n.Pairs {
		info.Pairs[i] = PairInfo{Key: pair.Key, Index: pair.Index, Value: values[i]}
	}
	return info, nil
}

// Stats walks the tree from the committed root.
func (t *BTree) Stats() (Stats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		B:               t.b,
		Root:            int64(rootOff),
		FilePages:       t.pager.Pages(),
		LogRecords:      t.log.Records(),
		TornBytes:       t.pager.TornBytes(),
		DroppedLogBytes: t.log.DroppedBytes(),
	}
	if err := t.collect(rootOff, 1, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (t *BTree) collect(off page.Offset, depth int, s *Stats) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: tree deeper than %d levels", ErrCorrupt, maxDepth)
	}
	n, err := t.readNode(off)
	if err != nil {
		return err
	}
	s.Height = max(s.Height, depth)
	if n.IsLeaf() {
		s.Leaves++
		s.Pairs += len(n.Pairs)
		return nil
	}
	s.InternalNodes++
	for _, child := range n.Children {
		if err := t.collect(child, depth+1, s); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes an indented description of every reachable node to w.
//
//	Node at offset: 12288
//	|->Keys: [foo]
//	|->Children: [4096 8192]
//	   |  Node at offset: 4096
//	   |  |->DataOffset: 0, Key value pairs: [foo:0]
func (t *BTree) Dump(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return err
	}
	return t.dump(w, "", rootOff, 0)
}

func (t *BTree) dump(w io.Writer, prefix string, off page.Offset, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: tree deeper than %d levels", ErrCorrupt, maxDepth)
	}
	n, err := t.readNode(off)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%sNode at offset: %d\n", prefix, off); err != nil {
		return err
	}
	branch := prefix + "|->"

	if n.IsLeaf() {
		pairs := make([]string, len(n.Pairs))
		for i, pair := range n.Pairs {
			pairs[i] = fmt.Sprintf("%s:%d", pair.Key, pair.Index)
		}
		_, err := fmt.Fprintf(w, "%sDataOffset: %d, Key value pairs: [%s]\n", branch, n.Data, strings.Join(pairs, " "))
		return err
	}

	if _, err := fmt.Fprintf(w, "%sKeys: %v\n", branch, n.Keys); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sChildren: %v\n", branch, n.Children); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := t.dump(w, prefix+"   |  ", child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
