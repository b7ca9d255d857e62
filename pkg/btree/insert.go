package btree

import (
	"slices"

	"github.com/dkoosis/cowtree/internal/node"
	"github.com/dkoosis/cowtree/internal/page"
)

// Insert stores value under key, replacing any existing value.
//
// Full nodes are split on the way down, so the descent never has to revisit a
// parent. The new root is committed only after every copied page is written.
func (t *BTree) Insert(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := t.validateValue(value); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return err
	}
	root, err := t.readNode(rootOff)
	if err != nil {
		return err
	}

	var (
		newRoot    *node.Node
		newRootOff page.Offset
	)
	if t.isFull(root) {
		newRoot, newRootOff, err = t.growRoot(root)
	} else {
		newRoot = root.Clone()
		newRootOff, err = t.appendNode(newRoot)
	}
	if err != nil {
		return err
	}

	if err := t.insertNonFull(newRoot, newRootOff, key, value); err != nil {
		return err
	}
	return t.commit(newRootOff)
}

// growRoot splits a full root under a new internal root and returns the new
// root, already written.
func (t *BTree) growRoot(root *node.Node) (*node.Node, page.Offset, error) {
	newRoot := node.NewInternal(nil, nil, true)
	newRootOff, err := t.pager.Append(page.New())
	if err != nil {
		return nil, 0, err
	}

	old := root.Clone()
	old.IsRoot = false
	old.Parent = newRootOff

	median, _, leftOff, _, rightOff, err := t.split(old)
	if err != nil {
		return nil, 0, err
	}
	newRoot.Children = []page.Offset{leftOff, rightOff}
	newRoot.Keys = []string{median}
	if err := t.writeNode(newRoot, newRootOff); err != nil {
		return nil, 0, err
	}

	t.logger.Debug().Str("median", median).Int64("root", int64(newRootOff)).Msg("tree grew a level")
	return newRoot, newRootOff, nil
}

// split divides n and appends both halves. Leaf halves get rebuilt data pages.
func (t *BTree) split(n *node.Node) (string, *node.Node, page.Offset, *node.Node, page.Offset, error) {
	var values []string
	if n.IsLeaf() {
		var err error
		if values, err = t.readValues(n); err != nil {
			return "", nil, 0, nil, 0, err
		}
	}

	median, sibling, err := n.Split(t.b)
	if err != nil {
		return "", nil, 0, nil, 0, err
	}

	if n.IsLeaf() {
		kept := len(n.Pairs)
		if err := t.writeLeafData(n, values[:kept]); err != nil {
			return "", nil, 0, nil, 0, err
		}
		if err := t.writeLeafData(sibling, values[kept:]); err != nil {
			return "", nil, 0, nil, 0, err
		}
	}

	leftOff, err := t.appendNode(n)
	if err != nil {
		return "", nil, 0, nil, 0, err
	}
	rightOff, err := t.appendNode(sibling)
	if err != nil {
		return "", nil, 0, nil, 0, err
	}

	t.logger.Debug().
		Stringer("kind", n.Kind).
		Str("median", median).
		Int64("left", int64(leftOff)).
		Int64("right", int64(rightOff)).
		Msg("split node")
	return median, n, leftOff, sibling, rightOff, nil
}

// insertNonFull inserts into n, a private copy already stored at off that is
// known not to be full.
func (t *BTree) insertNonFull(n *node.Node, off page.Offset, key, value string) error {
	if n.IsLeaf() {
		values, err := t.readValues(n)
		if err != nil {
			return err
		}
		i, found := n.PairIndex(key)
		if found {
			values[i] = value
		} else {
			n.Pairs = slices.Insert(n.Pairs, i, node.Pair{Key: key})
			values = slices.Insert(values, i, value)
		}
		if err := t.writeLeafData(n, values); err != nil {
			return err
		}
		return t.writeNode(n, off)
	}

	i := n.ChildIndex(key)
	child, err := t.readNode(n.Children[i])
	if err != nil {
		return err
	}
	child.Parent = off

	if !t.isFull(child) {
		childOff, err := t.appendNode(child)
		if err != nil {
			return err
		}
		n.Children[i] = childOff
		if err := t.writeNode(n, off); err != nil {
			return err
		}
		return t.insertNonFull(child, childOff, key, value)
	}

	median, left, leftOff, right, rightOff, err := t.split(child)
	if err != nil {
		return err
	}
	n.Children[i] = leftOff
	n.Children = slices.Insert(n.Children, i+1, rightOff)
	n.Keys = slices.Insert(n.Keys, i, median)
	if err := t.writeNode(n, off); err != nil {
		return err
	}

	if key <= median {
		return t.insertNonFull(left, leftOff, key, value)
	}
	return t.insertNonFull(right, rightOff, key, value)
}
