// Package rootlog persists the offset of the current tree root.
//
// The log is an append-only file: a fixed header followed by fixed-size
// records. Each record carries a sequence number, a root offset and a BLAKE3
// keyed checksum. The newest record with a valid checksum and an unbroken
// sequence is the committed root; anything after it is discarded on open.
package rootlog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/dkoosis/cowtree/internal/page"
)

const (
	headerSize = 16
	recordSize = 8 + 8 + checksumSize

	checksumSize = 32

	// CompactThreshold is the record count past which the log is rewritten
	// down to a single record.
	CompactThreshold = 4096
)

var magic = [8]byte{'C', 'W', 'T', 'R', 'L', 'O', 'G', '1'}

// recordKey is the BLAKE3 key for record checksums, the ASCII domain name
// zero-padded to 32 bytes.
var recordKey = [32]byte{
	'c', 'o', 'w', 't', 'r', 'e', 'e', '.', 'r', 'o', 'o', 't', 'l', 'o', 'g', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var (
	// ErrBadHeader is returned when the file is not a root log.
	ErrBadHeader = errors.New("rootlog: bad header")

	// ErrEmpty is returned by Root when no record was ever committed.
	ErrEmpty = errors.New("rootlog: no root recorded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("rootlog: closed")
)

// Log is an open root log.
type Log struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	b       int
	sync    bool
	seq     uint64
	root    page.Offset
	records int
	dropped int64
}

// Create starts a new, empty log at path, replacing any existing file.
func Create(path string, b int, syncWrites bool) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304 - path derives from the table path
	if err != nil {
		return nil, fmt.Errorf("create root log: %w", err)
	}
	if _, err := f.WriteAt(encodeHeader(b), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write root log header: %w", err)
	}
	if syncWrites {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sync root log: %w", err)
		}
	}
	return &Log{path: path, file: f, b: b, sync: syncWrites}, nil
}

// Open reads an existing log and recovers the last committed root. Bytes
// after the last valid record are truncated.
func Open(path string, syncWrites bool) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600) // #nosec G304 - path derives from the table path
	if err != nil {
		return nil, fmt.Errorf("open root log: %w", err)
	}

	l := &Log{path: path, file: f, sync: syncWrites}
	if err := l.recover(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) recover() error {
	data, err := io.ReadAll(l.file)
	if err != nil {
		return fmt.Errorf("read root log: %w", err)
	}
	if len(data) < headerSize || !bytes.Equal(data[:8], magic[:]) {
		return ErrBadHeader
	}
	l.b = int(binary.BigEndian.Uint32(data[8:12]))
	if ps := binary.BigEndian.Uint32(data[12:16]); ps != page.Size {
		return fmt.Errorf("%w: page size %d, want %d", ErrBadHeader, ps, page.Size)
	}

	end := headerSize
	for end+recordSize <= len(data) {
		seq, root, ok := decodeRecord(data[end : end+recordSize])
		if !ok || seq != l.seq+1 {
			break
		}
		l.seq, l.root = seq, root
		l.records++
		end += recordSize
	}

	if end < len(data) {
		l.dropped = int64(len(data) - end)
		if err := l.file.Truncate(int64(end)); err != nil {
			return fmt.Errorf("truncate root log: %w", err)
		}
	}
	return nil
}

// B returns the branching parameter stored in the header.
func (l *Log) B() int {
	return l.b
}

// DroppedBytes reports how many trailing bytes Open discarded.
func (l *Log) DroppedBytes() int64 {
	return l.dropped
}

// Records returns the number of records currently in the file.
func (l *Log) Records() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records
}

// Root returns the committed root offset.
func (l *Log) Root() (page.Offset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return 0, ErrClosed
	}
	if l.seq == 0 {
		return 0, ErrEmpty
	}
	return l.root, nil
}

// SetRoot commits off as the new root.
func (l *Log) SetRoot(off page.Offset) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}
	if l.records >= CompactThreshold {
		if err := l.compact(); err != nil {
			return err
		}
	}

	seq := l.seq + 1
	pos := int64(headerSize + l.records*recordSize)
	if _, err := l.file.WriteAt(encodeRecord(seq, off), pos); err != nil {
		return fmt.Errorf("append root record: %w", err)
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("sync root log: %w", err)
		}
	}
	l.seq, l.root = seq, off
	l.records++
	return nil
}

// compact rewrites the log as header plus the current record. The sequence
// restarts at one.
func (l *Log) compact() error {
	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304 - path derives from the table path
	if err != nil {
		return fmt.Errorf("compact root log: %w", err)
	}

	buf := append(encodeHeader(l.b), encodeRecord(1, l.root)...)
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compact root log: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compact root log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compact root log: %w", err)
	}
	if dir, err := os.Open(filepath.Dir(l.path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}

	_ = l.file.Close()
	l.file = f
	l.seq = 1
	l.records = 1
	return nil
}

// Close closes the log. Closing twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func encodeHeader(b int) []byte {
	buf := make([]byte, headerSize)
	copy(buf, magic[:])
	binary.BigEndian.PutUint32(buf[8:12], uint32(b))
	binary.BigEndian.PutUint32(buf[12:16], page.Size)
	return buf
}

func encodeRecord(seq uint64, root page.Offset) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[0:8], seq)
	binary.BigEndian.PutUint64(buf[8:16], uint64(root))
	sum := checksum(buf[:16])
	copy(buf[16:], sum[:])
	return buf
}

func decodeRecord(buf []byte) (uint64, page.Offset, bool) {
	sum := checksum(buf[:16])
	if !bytes.Equal(sum[:], buf[16:recordSize]) {
		return 0, 0, false
	}
	seq := binary.BigEndian.Uint64(buf[0:8])
	root := page.Offset(binary.BigEndian.Uint64(buf[8:16]))
	return seq, root, root.Aligned()
}

func checksum(data []byte) [checksumSize]byte {
	// NewKeyed only fails for keys that are not 32 bytes long.
	hasher, err := blake3.NewKeyed(recordKey[:])
	if err != nil {
		panic("rootlog: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var sum [checksumSize]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}
