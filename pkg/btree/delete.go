package btree

import (
	"slices"

	"github.com/dkoosis/cowtree/internal/node"
	"github.com/dkoosis/cowtree/internal/page"
)

// Delete removes key. It returns ErrKeyNotFound, and writes nothing, when the
// key is absent.
//
// A child left with fewer than b-1 keys borrows from a sibling that can spare
// one, or is merged with it. An internal root left without keys is replaced
// by its only child.
func (t *BTree) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rootOff, err := t.rootOffset()
	if err != nil {
		return err
	}
	if _, err := t.search(rootOff, key); err != nil {
		return err
	}

	root, err := t.readNode(rootOff)
	if err != nil {
		return err
	}
	newRootOff, err := t.appendNode(root)
	if err != nil {
		return err
	}
	if err := t.deleteFrom(root, newRootOff, key); err != nil {
		return err
	}

	if !root.IsLeaf() && len(root.Keys) == 0 {
		child, err := t.readNode(root.Children[0])
		if err != nil {
			return err
		}
		child.IsRoot = true
		child.Parent = 0
		if newRootOff, err = t.appendNode(child); err != nil {
			return err
		}
		t.logger.Debug().Int64("root", int64(newRootOff)).Msg("tree shrank a level")
	}

	return t.commit(newRootOff)
}

// deleteFrom removes key from the subtree rooted at n, a private copy stored
// at off.
func (t *BTree) deleteFrom(n *node.Node, off page.Offset, key string) error {
	if n.IsLeaf() {
		i, found := n.PairIndex(key)
		if !found {
			return ErrKeyNotFound
		}
		values, err := t.readValues(n)
		if err != nil {
			return err
		}
		n.Pairs = slices.Delete(n.Pairs, i, i+1)
		values = slices.Delete(values, i, i+1)
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
	childOff, err := t.appendNode(child)
	if err != nil {
		return err
	}
	n.Children[i] = childOff

	if err := t.deleteFrom(child, childOff, key); err != nil {
		return err
	}
	if t.underflows(child) {
		if err := t.rebalance(n, off, i, child, childOff); err != nil {
			return err
		}
	}
	return t.writeNode(n, off)
}

// rebalance restores the minimum fill of parent.Children[i]. The caller
// writes parent afterwards.
func (t *BTree) rebalance(parent *node.Node, parentOff page.Offset, i int, child *node.Node, childOff page.Offset) error {
	var left, right *node.Node
	var err error

	if i > 0 {
		if left, err = t.readNode(parent.Children[i-1]); err != nil {
			return err
		}
		left.Parent = parentOff
		if left.NumKeys() > t.b-1 {
			if err := t.borrowFromLeft(parent, i, left, child); err != nil {
				return err
			}
			if parent.Children[i-1], err = t.appendNode(left); err != nil {
				return err
			}
			t.logger.Debug().Stringer("kind", child.Kind).Msg("borrowed from left sibling")
			return t.writeNode(child, childOff)
		}
	}

	if i < len(parent.Children)-1 {
		if right, err = t.readNode(parent.Children[i+1]); err != nil {
			return err
		}
		right.Parent = parentOff
		if right.NumKeys() > t.b-1 {
			if err := t.borrowFromRight(parent, i, child, right); err != nil {
				return err
			}
			if parent.Children[i+1], err = t.appendNode(right); err != nil {
				return err
			}
			t.logger.Debug().Stringer("kind", child.Kind).Msg("borrowed from right sibling")
			return t.writeNode(child, childOff)
		}
	}

	if left != nil {
		if err := t.merge(left, child, parent.Keys[i-1]); err != nil {
			return err
		}
		leftOff, err := t.appendNode(left)
		if err != nil {
			return err
		}
		parent.Children[i-1] = leftOff
		parent.Children = slices.Delete(parent.Children, i, i+1)
		parent.Keys = slices.Delete(parent.Keys, i-1, i)
		t.logger.Debug().Stringer("kind", child.Kind).Int64("into", int64(leftOff)).Msg("merged with left sibling")
		return nil
	}

	if right == nil {
		return nil
	}
	if err := t.merge(child, right, parent.Keys[i]); err != nil {
		return err
	}
	if err := t.writeNode(child, childOff); err != nil {
		return err
	}
	parent.Children = slices.Delete(parent.Children, i+1, i+2)
	parent.Keys = slices.Delete(parent.Keys, i, i+1)
	t.logger.Debug().Stringer("kind", child.Kind).Int64("into", int64(childOff)).Msg("merged with right sibling")
	return nil
}

// borrowFromLeft moves the last entry of left to the front of child.
func (t *BTree) borrowFromLeft(parent *node.Node, i int, left, child *node.Node) error {
	if !child.IsLeaf() {
		last := len(left.Keys) - 1
		child.Keys = slices.Insert(child.Keys, 0, parent.Keys[i-1])
		child.Children = slices.Insert(child.Children, 0, left.Children[last+1])
		parent.Keys[i-1] = left.Keys[last]
		left.Keys = left.Keys[:last]
		left.Children = left.Children[:last+1]
		return nil
	}

	leftValues, err := t.readValues(left)
	if err != nil {
		return err
	}
	childValues, err := t.readValues(child)
	if err != nil {
		return err
	}
	last := len(left.Pairs) - 1
	child.Pairs = slices.Insert(child.Pairs, 0, left.Pairs[last])
	childValues = slices.Insert(childValues, 0, leftValues[last])
	left.Pairs = left.Pairs[:last]
	leftValues = leftValues[:last]
	parent.Keys[i-1] = left.Pairs[last-1].Key

	if err := t.writeLeafData(left, leftValues); err != nil {
		return err
	}
	return t.writeLeafData(child, childValues)
}

// borrowFromRight moves the first entry of right to the end of child.
func (t *BTree) borrowFromRight(parent *node.Node, i int, child, right *node.Node) error {
	if !child.IsLeaf() {
		child.Keys = append(child.Keys, parent.Keys[i])
		child.Children = append(child.Children, right.Children[0])
		parent.Keys[i] = right.Keys[0]
		right.Keys = slices.Delete(right.Keys, 0, 1)
		right.Children = slices.Delete(right.Children, 0, 1)
		return nil
	}

	rightValues, err := t.readValues(right)
	if err != nil {
		return err
	}
	childValues, err := t.readValues(child)
	if err != nil {
		return err
	}
	child.Pairs = append(child.Pairs, right.Pairs[0])
	childValues = append(childValues, rightValues[0])
	right.Pairs = slices.Delete(right.Pairs, 0, 1)
	rightValues = slices.Delete(rightValues, 0, 1)
	parent.Keys[i] = child.Pairs[len(child.Pairs)-1].Key

	if err := t.writeLeafData(right, rightValues); err != nil {
		return err
	}
	return t.writeLeafData(child, childValues)
}

// merge appends right, and for internal nodes the separator between them, to
// left.
func (t *BTree) merge(left, right *node.Node, separator string) error {
	if !left.IsLeaf() {
		left.Keys = append(append(left.Keys, separator), right.Keys...)
		left.Children = append(left.Children, right.Children...)
		return nil
	}

	leftValues, err := t.readValues(left)
	if err != nil {
		return err
	}
	rightValues, err := t.readValues(right)
	if err != nil {
		return err
	}
	left.Pairs = append(left.Pairs, right.Pairs...)
	return t.writeLeafData(left, append(leftValues, rightValues...))
}
