package pager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/cowtree/internal/page"
)

func filledPage(t *testing.T, b byte) *page.Page {
	t.Helper()
	pg := page.New()
	for i := range pg.Bytes() {
		pg.Bytes()[i] = b
	}
	return pg
}

func TestAppend_AssignsSequentialOffsets(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "pager"), true)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Append(filledPage(t, 1))
	require.NoError(t, err)
	second, err := p.Append(filledPage(t, 2))
	require.NoError(t, err)

	assert.Equal(t, page.Offset(0), first)
	assert.Equal(t, page.Offset(page.Size), second)
	assert.Equal(t, int64(2), p.Pages())

	got, err := p.Read(second)
	require.NoError(t, err)
	assert.Equal(t, filledPage(t, 2).Bytes(), got.Bytes())
}

func TestWriteAt_OverwritesInPlace(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "pager"), true)
	require.NoError(t, err)
	defer p.Close()

	off, err := p.Append(filledPage(t, 1))
	require.NoError(t, err)
	require.NoError(t, p.WriteAt(filledPage(t, 9), off))

	got, err := p.Read(off)
	require.NoError(t, err)
	assert.Equal(t, byte(9), got.Bytes()[100])
	assert.Equal(t, int64(1), p.Pages())
}

func TestRead_RejectsBadOffsets(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "pager"), true)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Read(0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = p.Read(7)
	assert.ErrorIs(t, err, ErrUnaligned)

	assert.ErrorIs(t, p.WriteAt(page.New(), page.Size), ErrOutOfRange)
}

func TestOpen_ReopensAndDropsTornPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pager")
	p, err := Open(path, true)
	require.NoError(t, err)
	_, err = p.Append(filledPage(t, 3))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	p, err = Open(path, false)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, int64(len("partial")), p.TornBytes())
	assert.Equal(t, int64(1), p.Pages())

	off, err := p.Append(filledPage(t, 4))
	require.NoError(t, err)
	assert.Equal(t, page.Offset(page.Size), off)
}

func TestOpen_TruncateDiscardsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pager")
	p, err := Open(path, true)
	require.NoError(t, err)
	_, err = p.Append(filledPage(t, 3))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p, err = Open(path, true)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, int64(0), p.Pages())
}

func TestClose_IsIdempotent(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "pager"), true)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Append(page.New())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = p.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
}
