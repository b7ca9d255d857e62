package btree

import (
	"fmt"

	"github.com/dkoosis/cowtree/internal/node"
	"github.com/dkoosis/cowtree/internal/page"
)

// Search returns the value stored under key.
func (t *BTree) Search(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return "", err
	}
	return t.search(rootOff, key)
}

func (t *BTree) search(off page.Offset, key string) (string, error) {
	// Bounds the walk on a corrupt file whose child pointers form a cycle.
	for depth := 0; depth <= maxDepth; depth++ {
		n, err := t.readNode(off)
		if err != nil {
			return "", err
		}
		if !n.IsLeaf() {
			off = n.Children[n.ChildIndex(key)]
			continue
		}

		i, found := n.PairIndex(key)
		if !found {
			return "", ErrKeyNotFound
		}
		dp, err := t.readDataPage(n)
		if err != nil {
			return "", err
		}
		v, err := dp.Get(int(n.Pairs[i].Index))
		if err != nil {
			return "", fmt.Errorf("%w: key %q: %w", ErrCorrupt, key, err)
		}
		return v, nil
	}
	return "", fmt.Errorf("%w: tree deeper than %d levels", ErrCorrupt, maxDepth)
}

// maxDepth is far beyond the height of any tree a file can hold.
const maxDepth = 64

// Ascend calls fn for every pair in key order until fn returns false. The
// tree is read-locked for the duration, so fn must not modify it.
func (t *BTree) Ascend(fn func(key, value string) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return err
	}
	_, err = t.ascend(rootOff, 0, fn)
	return err
}

func (t *BTree) ascend(off page.Offset, depth int, fn func(key, value string) bool) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("%w: tree deeper than %d levels", ErrCorrupt, maxDepth)
	}
	n, err := t.readNode(off)
	if err != nil {
		return false, err
	}

	if n.IsLeaf() {
		return t.ascendLeaf(n, fn)
	}
	for _, child := range n.Children {
		more, err := t.ascend(child, depth+1, fn)
		if err != nil || !more {
			return false, err
		}
	}
	return true, nil
}

func (t *BTree) ascendLeaf(n *node.Node, fn func(key, value string) bool) (bool, error) {
	values, err := t.readValues(n)
	if err != nil {
		return false, err
	}
	for i, pair := range n.Pairs {
		if !fn(pair.Key, values[i]) {
			return false, nil
		}
	}
	return true, nil
}

// Len returns the number of stored pairs.
func (t *BTree) Len() (int, error) {
	count := 0
	err := t.Ascend(func(string, string) bool {
		count++
		return true
	})
	return count, err
}
