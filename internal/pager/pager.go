// Package pager reads and writes fixed-size pages of a single file.
//
// New pages are always appended at the end of the file. Pages are only
// overwritten in place while they are private to an operation that has not
// yet been committed.
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dkoosis/cowtree/internal/page"
)

var (
	// ErrOutOfRange is returned for offsets at or past the end of the file.
	ErrOutOfRange = errors.New("pager: offset out of range")

	// ErrUnaligned is returned for offsets that are not page boundaries.
	ErrUnaligned = errors.New("pager: offset not page aligned")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("pager: closed")
)

// Pager owns the table file.
type Pager struct {
	mu     sync.Mutex
	file   *os.File
	cursor int64
	torn   int64
}

// Open opens or creates the file at path. With truncate set, existing
// content is discarded. A trailing partial page left by an interrupted append
// is cut off.
func Open(path string, truncate bool) (*Pager, error) {
	flags := os.O_RDWR | os.O_CREATE
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o600) // #nosec G304 - path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat table file: %w", err)
	}

	size := info.Size()
	whole := size - size%page.Size
	if whole != size {
		if err := f.Truncate(whole); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("truncate torn page: %w", err)
		}
	}

	return &Pager{file: f, cursor: whole, torn: size - whole}, nil
}

// TornBytes reports how many bytes of a partial trailing page were dropped by
// Open.
func (p *Pager) TornBytes() int64 {
	return p.torn
}

// Pages returns the number of pages in the file.
func (p *Pager) Pages() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor / page.Size
}

// Read returns the page stored at off.
func (p *Pager) Read(off page.Offset) (*page.Page, error) {
	if !off.Aligned() {
		return nil, fmt.Errorf("%w: %d", ErrUnaligned, off)
	}

	p.mu.Lock()
	f, cursor := p.file, p.cursor
	p.mu.Unlock()

	if f == nil {
		return nil, ErrClosed
	}
	if int64(off) >= cursor {
		return nil, fmt.Errorf("%w: %d (file holds %d bytes)", ErrOutOfRange, off, cursor)
	}

	pg := page.New()
	if _, err := f.ReadAt(pg.Bytes(), int64(off)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %d", ErrOutOfRange, off)
		}
		return nil, fmt.Errorf("read page %d: %w", off, err)
	}
	return pg, nil
}

// Append writes pg after the last page and returns its offset.
func (p *Pager) Append(pg *page.Page) (page.Offset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return 0, ErrClosed
	}
	off := p.cursor
	if _, err := p.file.WriteAt(pg.Bytes(), off); err != nil {
		return 0, fmt.Errorf("append page at %d: %w", off, err)
	}
	p.cursor += page.Size
	return page.Offset(off), nil
}

// WriteAt overwrites the existing page at off.
func (p *Pager) WriteAt(pg *page.Page, off page.Offset) error {
	if !off.Aligned() {
		return fmt.Errorf("%w: %d", ErrUnaligned, off)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrClosed
	}
	if int64(off) >= p.cursor {
		return fmt.Errorf("%w: %d (file holds %d bytes)", ErrOutOfRange, off, p.cursor)
	}
	if _, err := p.file.WriteAt(pg.Bytes(), int64(off)); err != nil {
		return fmt.Errorf("write page at %d: %w", off, err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (p *Pager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	return p.file.Sync()
}

// Close closes the file. Closing twice is a no-op.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}
