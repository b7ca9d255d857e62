// Package node models B+tree nodes and their page encoding.
package node

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dkoosis/cowtree/internal/page"
)

// Kind distinguishes internal nodes from leaves. The values are the on-disk
// type bytes.
type Kind uint8

const (
	KindInternal Kind = 0x01
	KindLeaf     Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("unknown(%#x)", uint8(k))
	}
}

// Capacity of a single page.
const (
	MaxLeafPairs        = (page.Size - page.LeafHeaderSize) / page.LeafPairSize
	MaxInternalChildren = (page.Size - page.InternalHeaderSize + page.KeySize) / (page.PtrSize + page.KeySize)
)

var (
	// ErrCorrupt is returned when a page does not decode to a valid node.
	ErrCorrupt = errors.New("node: corrupt page")

	// ErrOverflow is returned when a node has more entries than a page holds.
	ErrOverflow = errors.New("node: too many entries for a page")

	// ErrSplit is returned when a node is too small to split.
	ErrSplit = errors.New("node: not enough entries to split")
)

// MaxB is the largest branching parameter whose full nodes (2b-1 keys) still
// fit a page.
func MaxB() int {
	return min((MaxLeafPairs+1)/2, MaxInternalChildren/2)
}

// Pair is a leaf entry: a key and the index of its value in the leaf's data
// page.
type Pair struct {
	Key   string
	Index uint64
}

// Node is the decoded form of a tree page.
type Node struct {
	Kind   Kind
	IsRoot bool
	Parent page.Offset

	// Internal nodes.
	Children []page.Offset
	Keys     []string

	// Leaves.
	Data  page.Offset
	Pairs []Pair
}

// NewLeaf returns a leaf whose values live in the data page at data.
func NewLeaf(data page.Offset, pairs []Pair, isRoot bool) *Node {
	return &Node{Kind: KindLeaf, IsRoot: isRoot, Data: data, Pairs: pairs}
}

// NewInternal returns an internal node.
func NewInternal(children []page.Offset, keys []string, isRoot bool) *Node {
	return &Node{Kind: KindInternal, IsRoot: isRoot, Children: children, Keys: keys}
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Kind == KindLeaf
}

// NumKeys returns the number of keys: separator keys for internal nodes,
// pairs for leaves.
func (n *Node) NumKeys() int {
	if n.IsLeaf() {
		return len(n.Pairs)
	}
	return len(n.Keys)
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	c.Children = append([]page.Offset(nil), n.Children...)
	c.Keys = append([]string(nil), n.Keys...)
	c.Pairs = append([]Pair(nil), n.Pairs...)
	return &c
}

// ChildIndex returns the index of the child that may hold key.
func (n *Node) ChildIndex(key string) int {
	return sort.SearchStrings(n.Keys, key)
}

// PairIndex returns the position of key in a leaf and whether it is present.
// When absent, the position is where key would be inserted.
func (n *Node) PairIndex(key string) (int, bool) {
	i := sort.Search(len(n.Pairs), func(i int) bool { return n.Pairs[i].Key >= key })
	return i, i < len(n.Pairs) && n.Pairs[i].Key == key
}

// Split divides n around its median and returns the median key and the new
// right sibling. Internal nodes keep keys[:b-1] and children[:b]; keys[b-1]
// moves up. Leaves keep pairs[:b] and the median is the last key kept.
func (n *Node) Split(b int) (string, *Node, error) {
	if b < 2 {
		return "", nil, fmt.Errorf("%w: b=%d", ErrSplit, b)
	}

	switch n.Kind {
	case KindInternal:
		if len(n.Keys) < b || len(n.Children) != len(n.Keys)+1 {
			return "", nil, fmt.Errorf("%w: %d keys, %d children, b=%d", ErrSplit, len(n.Keys), len(n.Children), b)
		}
		median := n.Keys[b-1]
		sibling := NewInternal(
			append([]page.Offset(nil), n.Children[b:]...),
			append([]string(nil), n.Keys[b:]...),
			false,
		)
		sibling.Parent = n.Parent
		n.Keys = n.Keys[:b-1]
		n.Children = n.Children[:b]
		return median, sibling, nil

	case KindLeaf:
		if len(n.Pairs) <= b {
			return "", nil, fmt.Errorf("%w: %d pairs, b=%d", ErrSplit, len(n.Pairs), b)
		}
		median := n.Pairs[b-1].Key
		sibling := NewLeaf(0, append([]Pair(nil), n.Pairs[b:]...), false)
		sibling.Parent = n.Parent
		n.Pairs = n.Pairs[:b]
		return median, sibling, nil

	default:
		return "", nil, fmt.Errorf("%w: kind %s", ErrCorrupt, n.Kind)
	}
}

// Encode serializes n into a page.
func (n *Node) Encode() (*page.Page, error) {
	pg := page.New()

	var isRoot byte
	if n.IsRoot {
		isRoot = 0x01
	}
	if err := pg.PutByteAt(page.IsRootOffset, isRoot); err != nil {
		return nil, err
	}
	if err := pg.PutByteAt(page.NodeKindOffset, byte(n.Kind)); err != nil {
		return nil, err
	}
	parent := n.Parent
	if n.IsRoot {
		parent = 0
	}
	if err := pg.PutUint64At(page.ParentOffset, uint64(parent)); err != nil {
		return nil, err
	}

	switch n.Kind {
	case KindInternal:
		return pg, n.encodeInternal(pg)
	case KindLeaf:
		return pg, n.encodeLeaf(pg)
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrCorrupt, n.Kind)
	}
}

func (n *Node) encodeInternal(pg *page.Page) error {
	if len(n.Children) > MaxInternalChildren {
		return fmt.Errorf("%w: %d children", ErrOverflow, len(n.Children))
	}
	if len(n.Children) != len(n.Keys)+1 {
		return fmt.Errorf("%w: %d children for %d keys", ErrCorrupt, len(n.Children), len(n.Keys))
	}
	if err := pg.PutUint64At(page.InternalNumChildrenOffset, uint64(len(n.Children))); err != nil {
		return err
	}
	off := page.InternalHeaderSize
	for _, child := range n.Children {
		if err := pg.PutUint64At(off, uint64(child)); err != nil {
			return err
		}
		off += page.PtrSize
	}
	for _, key := range n.Keys {
		if err := pg.PutBytes(off, page.KeySize, []byte(key)); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		off += page.KeySize
	}
	return nil
}

func (n *Node) encodeLeaf(pg *page.Page) error {
	if len(n.Pairs) > MaxLeafPairs {
		return fmt.Errorf("%w: %d pairs", ErrOverflow, len(n.Pairs))
	}
	if err := pg.PutUint64At(page.LeafDataPageOffset, uint64(n.Data)); err != nil {
		return err
	}
	if err := pg.PutUint64At(page.LeafNumPairsOffset, uint64(len(n.Pairs))); err != nil {
		return err
	}
	off := page.LeafHeaderSize
	for _, pair := range n.Pairs {
		if err := pg.PutBytes(off, page.KeySize, []byte(pair.Key)); err != nil {
			return fmt.Errorf("key %q: %w", pair.Key, err)
		}
		off += page.KeySize
		if err := pg.PutUint64At(off, pair.Index); err != nil {
			return err
		}
		off += page.ValueSize
	}
	return nil
}

// Decode reads a node from pg.
func Decode(pg *page.Page) (*Node, error) {
	rootByte, err := pg.ByteAt(page.IsRootOffset)
	if err != nil {
		return nil, err
	}
	kindByte, err := pg.ByteAt(page.NodeKindOffset)
	if err != nil {
		return nil, err
	}

	n := &Node{Kind: Kind(kindByte), IsRoot: rootByte == 0x01}
	if !n.IsRoot {
		parent, err := pg.Uint64At(page.ParentOffset)
		if err != nil {
			return nil, err
		}
		n.Parent = page.Offset(parent)
	}

	switch n.Kind {
	case KindInternal:
		return n, n.decodeInternal(pg)
	case KindLeaf:
		return n, n.decodeLeaf(pg)
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrCorrupt, n.Kind)
	}
}

func (n *Node) decodeInternal(pg *page.Page) error {
	count, err := pg.Uint64At(page.InternalNumChildrenOffset)
	if err != nil {
		return err
	}
	if count == 0 || count > MaxInternalChildren {
		return fmt.Errorf("%w: %d children", ErrCorrupt, count)
	}

	off := page.InternalHeaderSize
	n.Children = make([]page.Offset, 0, count)
	for range count {
		child, err := pg.Uint64At(off)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, page.Offset(child))
		off += page.PtrSize
	}

	// Internal nodes always carry one key fewer than children.
	n.Keys = make([]string, 0, count-1)
	for i := uint64(1); i < count; i++ {
		key, err := readKey(pg, off)
		if err != nil {
			return err
		}
		n.Keys = append(n.Keys, key)
		off += page.KeySize
	}
	return nil
}

func (n *Node) decodeLeaf(pg *page.Page) error {
	data, err := pg.Uint64At(page.LeafDataPageOffset)
	if err != nil {
		return err
	}
	n.Data = page.Offset(data)

	count, err := pg.Uint64At(page.LeafNumPairsOffset)
	if err != nil {
		return err
	}
	if count > MaxLeafPairs {
		return fmt.Errorf("%w: %d pairs", ErrCorrupt, count)
	}

	off := page.LeafHeaderSize
	n.Pairs = make([]Pair, 0, count)
	for range count {
		key, err := readKey(pg, off)
		if err != nil {
			return err
		}
		off += page.KeySize
		idx, err := pg.Uint64At(off)
		if err != nil {
			return err
		}
		off += page.ValueSize
		n.Pairs = append(n.Pairs, Pair{Key: key, Index: idx})
	}
	return nil
}

func readKey(pg *page.Page, off int) (string, error) {
	raw, err := pg.Slice(off, page.KeySize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: key at %d is not valid UTF-8", ErrCorrupt, off)
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}
