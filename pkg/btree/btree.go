// Package btree implements a copy-on-write B+tree stored in a single table
// file.
//
// Every node touched by a write is copied to the end of the table file before
// it is modified, so committed pages are never overwritten. A write becomes
// visible once the offset of its new root is appended to the root log that
// lives next to the table file (<path>.wal). Leaves keep their values in a
// separate data page.
package btree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dkoosis/cowtree/internal/datapage"
	"github.com/dkoosis/cowtree/internal/node"
	"github.com/dkoosis/cowtree/internal/page"
	"github.com/dkoosis/cowtree/internal/pager"
	"github.com/dkoosis/cowtree/internal/rootlog"
)

const (
	// DefaultB is the branching parameter used when none is given.
	DefaultB = 8

	// MinB is the smallest supported branching parameter.
	MinB = 2

	// MaxKeySize is the longest key, in bytes.
	MaxKeySize = page.KeySize

	// PageSize is the size of every page in the table file.
	PageSize = page.Size
)

var (
	ErrKeyNotFound       = errors.New("btree: key not found")
	ErrInvalidKey        = errors.New("btree: invalid key")
	ErrInvalidValue      = errors.New("btree: invalid value")
	ErrValueTooLarge     = errors.New("btree: value too large")
	ErrClosed            = errors.New("btree: closed")
	ErrCorrupt           = errors.New("btree: corrupt database")
	ErrParameterMismatch = errors.New("btree: b parameter does not match the database")
	ErrInvalidOption     = errors.New("btree: invalid option")
)

// MaxB returns the largest supported branching parameter.
func MaxB() int {
	return node.MaxB()
}

// MaxValueSize returns the largest value accepted by a tree with parameter b.
func MaxValueSize(b int) int {
	return datapage.MaxValueSize(b)
}

type options struct {
	b        int
	truncate bool
	sync     bool
	logger   zerolog.Logger
}

// Option configures Open.
type Option func(*options)

// WithB sets the branching parameter. Internal nodes hold between b-1 and
// 2b-1 keys; the root may hold fewer.
func WithB(b int) Option {
	return func(o *options) { o.b = b }
}

// WithTruncate discards any existing database at the path.
func WithTruncate() Option {
	return func(o *options) { o.truncate = true }
}

// WithSync controls whether commits are flushed to stable storage.
func WithSync(enabled bool) Option {
	return func(o *options) { o.sync = enabled }
}

// WithLogger sets the logger used for structural events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// BTree is an open database. It is safe for concurrent use.
type BTree struct {
	mu       sync.RWMutex
	path     string
	pager    *pager.Pager
	log      *rootlog.Log
	b        int
	maxValue int
	sync     bool
	logger   zerolog.Logger
	closed   bool
}

// Open opens the database at path, creating it when the table file is missing
// or empty.
func Open(path string, opts ...Option) (*BTree, error) {
	o := options{b: DefaultB, sync: true, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidOption)
	}
	if o.b < MinB || o.b > MaxB() {
		return nil, fmt.Errorf("%w: b=%d outside [%d, %d]", ErrInvalidOption, o.b, MinB, MaxB())
	}

	fresh := o.truncate
	if !fresh {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fresh = true
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", path, err)
		case info.Size() == 0:
			fresh = true
		}
	}

	p, err := pager.Open(path, fresh)
	if err != nil {
		return nil, err
	}

	t := &BTree{
		path:     path,
		pager:    p,
		b:        o.b,
		maxValue: datapage.MaxValueSize(o.b),
		sync:     o.sync,
		logger:   o.logger.With().Str("db", path).Logger(),
	}

	if fresh {
		err = t.create()
	} else {
		err = t.reopen()
	}
	if err != nil {
		_ = p.Close()
		if t.log != nil {
			_ = t.log.Close()
		}
		return nil, err
	}
	return t, nil
}

func (t *BTree) walPath() string {
	return t.path + ".wal"
}

func (t *BTree) create() error {
	log, err := rootlog.Create(t.walPath(), t.b, t.sync)
	if err != nil {
		return err
	}
	t.log = log

	leaf := node.NewLeaf(0, nil, true)
	if err := t.writeLeafData(leaf, nil); err != nil {
		return err
	}
	rootOff, err := t.appendNode(leaf)
	if err != nil {
		return err
	}
	if err := t.commit(rootOff); err != nil {
		return err
	}

	t.logger.Debug().Int("b", t.b).Int64("root", int64(rootOff)).Msg("created database")
	return nil
}

func (t *BTree) reopen() error {
	log, err := rootlog.Open(t.walPath(), t.sync)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: table %s has no root log", ErrCorrupt, t.path)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	t.log = log

	if log.B() != t.b {
		return fmt.Errorf("%w: database uses b=%d, opened with b=%d", ErrParameterMismatch, log.B(), t.b)
	}

	root, err := log.Root()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if int64(root) >= t.pager.Pages()*page.Size {
		return fmt.Errorf("%w: root %d lies past the end of the table", ErrCorrupt, root)
	}

	if torn := t.pager.TornBytes(); torn > 0 {
		t.logger.Warn().Int64("bytes", torn).Msg("dropped partial page from table file")
	}
	if dropped := log.DroppedBytes(); dropped > 0 {
		t.logger.Warn().Int64("bytes", dropped).Msg("dropped uncommitted root log records")
	}
	t.logger.Debug().Int("b", t.b).Int64("root", int64(root)).Msg("reopened database")
	return nil
}

// B returns the branching parameter.
func (t *BTree) B() int {
	return t.b
}

// MaxValueSize returns the largest value this tree accepts.
func (t *BTree) MaxValueSize() int {
	return t.maxValue
}

// Close releases the table and the root log. Further calls fail with
// ErrClosed.
func (t *BTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return errors.Join(t.pager.Close(), t.log.Close())
}

func (t *BTree) commit(root page.Offset) error {
	if t.sync {
		if err := t.pager.Sync(); err != nil {
			return fmt.Errorf("sync table: %w", err)
		}
	}
	return t.log.SetRoot(root)
}

func (t *BTree) rootOffset() (page.Offset, error) {
	if t.closed {
		return 0, ErrClosed
	}
	off, err := t.log.Root()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return off, nil
}

func (t *BTree) readNode(off page.Offset) (*node.Node, error) {
	pg, err := t.pager.Read(off)
	if err != nil {
		return nil, fmt.Errorf("%w: node at %d: %w", ErrCorrupt, off, err)
	}
	n, err := node.Decode(pg)
	if err != nil {
		return nil, fmt.Errorf("%w: node at %d: %w", ErrCorrupt, off, err)
	}
	return n, nil
}

func (t *BTree) appendNode(n *node.Node) (page.Offset, error) {
	pg, err := n.Encode()
	if err != nil {
		return 0, err
	}
	return t.pager.Append(pg)
}

func (t *BTree) writeNode(n *node.Node, off page.Offset) error {
	pg, err := n.Encode()
	if err != nil {
		return err
	}
	return t.pager.WriteAt(pg, off)
}

func (t *BTree) readDataPage(leaf *node.Node) (*datapage.DataPage, error) {
	pg, err := t.pager.Read(leaf.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data page at %d: %w", ErrCorrupt, leaf.Data, err)
	}
	dp, err := datapage.Decode(pg)
	if err != nil {
		return nil, fmt.Errorf("%w: data page at %d: %w", ErrCorrupt, leaf.Data, err)
	}
	return dp, nil
}

// readValues returns the values of leaf in pair order.
func (t *BTree) readValues(leaf *node.Node) ([]string, error) {
	dp, err := t.readDataPage(leaf)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(leaf.Pairs))
	for i, pair := range leaf.Pairs {
		v, err := dp.Get(int(pair.Index))
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrCorrupt, pair.Key, err)
		}
		values[i] = v
	}
	return values, nil
}

// writeLeafData appends a fresh data page holding values, which must be in
// pair order, and points leaf at it. Pair indexes are renumbered to match.
func (t *BTree) writeLeafData(leaf *node.Node, values []string) error {
	if len(values) != len(leaf.Pairs) {
		return fmt.Errorf("%w: %d values for %d pairs", ErrCorrupt, len(values), len(leaf.Pairs))
	}
	pg, err := datapage.New(values...).Encode()
	if err != nil {
		return err
	}
	off, err := t.pager.Append(pg)
	if err != nil {
		return err
	}
	leaf.Data = off
	for i := range leaf.Pairs {
		leaf.Pairs[i].Index = uint64(i)
	}
	return nil
}

func (t *BTree) isFull(n *node.Node) bool {
	return n.NumKeys() >= 2*t.b-1
}

func (t *BTree) underflows(n *node.Node) bool {
	return n.NumKeys() < t.b-1
}

func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case len(key) > page.KeySize:
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrInvalidKey, len(key), page.KeySize)
	case strings.IndexByte(key, 0) >= 0:
		return fmt.Errorf("%w: contains NUL", ErrInvalidKey)
	case !utf8.ValidString(key):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidKey)
	}
	return nil
}

func (t *BTree) validateValue(value string) error {
	if len(value) > t.maxValue {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrValueTooLarge, len(value), t.maxValue)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidValue)
	}
	return nil
}
