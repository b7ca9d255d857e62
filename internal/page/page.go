// Package page defines the fixed-size page used by every file in a cowtree
// database and the byte layout of tree nodes inside it.
package page

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Page geometry.
const (
	Size      = 4096
	PtrSize   = 8
	KeySize   = 32
	ValueSize = 8
)

// Node header layout, shared by internal and leaf nodes.
const (
	IsRootOffset     = 0
	IsRootSize       = 1
	NodeKindOffset   = IsRootOffset + IsRootSize
	NodeKindSize     = 1
	ParentOffset     = NodeKindOffset + NodeKindSize
	ParentSize       = PtrSize
	CommonHeaderSize = IsRootSize + NodeKindSize + ParentSize
)

// Internal node layout.
const (
	InternalNumChildrenOffset = CommonHeaderSize
	InternalNumChildrenSize   = PtrSize
	InternalHeaderSize        = CommonHeaderSize + InternalNumChildrenSize
)

// Leaf node layout.
const (
	LeafDataPageOffset = CommonHeaderSize
	LeafDataPageSize   = PtrSize
	LeafNumPairsOffset = LeafDataPageOffset + LeafDataPageSize
	LeafNumPairsSize   = PtrSize
	LeafHeaderSize     = CommonHeaderSize + LeafDataPageSize + LeafNumPairsSize
	LeafPairSize       = KeySize + ValueSize
)

// ErrOutOfBounds is returned when an access crosses the end of a page.
var ErrOutOfBounds = errors.New("page: access out of bounds")

// Offset is the byte position of a page inside a file. Valid offsets are
// multiples of Size.
type Offset int64

// Aligned reports whether the offset falls on a page boundary.
func (o Offset) Aligned() bool {
	return o >= 0 && o%Size == 0
}

// Page is one Size-byte block.
type Page struct {
	data [Size]byte
}

// New returns a zeroed page.
func New() *Page {
	return &Page{}
}

// FromBytes copies b into a new page. b must be exactly Size bytes long.
func FromBytes(b []byte) (*Page, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrOutOfBounds, len(b), Size)
	}
	p := &Page{}
	copy(p.data[:], b)
	return p, nil
}

// Bytes returns the underlying buffer. Callers must not retain it across
// writes to the page.
func (p *Page) Bytes() []byte {
	return p.data[:]
}

// Uint64At reads a big-endian uint64 at off.
func (p *Page) Uint64At(off int) (uint64, error) {
	if off < 0 || off+PtrSize > Size {
		return 0, fmt.Errorf("%w: uint64 at %d", ErrOutOfBounds, off)
	}
	return binary.BigEndian.Uint64(p.data[off : off+PtrSize]), nil
}

// PutUint64At writes v big-endian at off.
func (p *Page) PutUint64At(off int, v uint64) error {
	if off < 0 || off+PtrSize > Size {
		return fmt.Errorf("%w: uint64 at %d", ErrOutOfBounds, off)
	}
	binary.BigEndian.PutUint64(p.data[off:off+PtrSize], v)
	return nil
}

// Uint32At reads a big-endian uint32 at off.
func (p *Page) Uint32At(off int) (uint32, error) {
	if off < 0 || off+4 > Size {
		return 0, fmt.Errorf("%w: uint32 at %d", ErrOutOfBounds, off)
	}
	return binary.BigEndian.Uint32(p.data[off : off+4]), nil
}

// PutUint32At writes v big-endian at off.
func (p *Page) PutUint32At(off int, v uint32) error {
	if off < 0 || off+4 > Size {
		return fmt.Errorf("%w: uint32 at %d", ErrOutOfBounds, off)
	}
	binary.BigEndian.PutUint32(p.data[off:off+4], v)
	return nil
}

// ByteAt returns the byte at off.
func (p *Page) ByteAt(off int) (byte, error) {
	if off < 0 || off >= Size {
		return 0, fmt.Errorf("%w: byte at %d", ErrOutOfBounds, off)
	}
	return p.data[off], nil
}

// PutByteAt sets the byte at off.
func (p *Page) PutByteAt(off int, b byte) error {
	if off < 0 || off >= Size {
		return fmt.Errorf("%w: byte at %d", ErrOutOfBounds, off)
	}
	p.data[off] = b
	return nil
}

// Slice returns size bytes starting at off.
func (p *Page) Slice(off, size int) ([]byte, error) {
	if off < 0 || size < 0 || off+size > Size {
		return nil, fmt.Errorf("%w: %d bytes at %d", ErrOutOfBounds, size, off)
	}
	return p.data[off : off+size], nil
}

// PutBytes copies b to off, zero-filling up to size bytes. It fails when b is
// longer than size.
func (p *Page) PutBytes(off, size int, b []byte) error {
	if len(b) > size {
		return fmt.Errorf("%w: %d bytes do not fit a %d byte slot", ErrOutOfBounds, len(b), size)
	}
	dst, err := p.Slice(off, size)
	if err != nil {
		return err
	}
	n := copy(dst, b)
	clear(dst[n:])
	return nil
}
