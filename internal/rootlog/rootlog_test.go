package rootlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/cowtree/internal/page"
)

func TestCreate_StartsEmpty(t *testing.T) {
	l, err := Create(filepath.Join(t.TempDir(), "db.wal"), 4, false)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Root()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 4, l.B())
}

func TestSetRoot_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.wal")
	l, err := Create(path, 8, true)
	require.NoError(t, err)
	require.NoError(t, l.SetRoot(page.Size))
	require.NoError(t, l.SetRoot(5*page.Size))
	require.NoError(t, l.Close())

	l, err = Open(path, true)
	require.NoError(t, err)
	defer l.Close()

	root, err := l.Root()
	require.NoError(t, err)
	assert.Equal(t, page.Offset(5*page.Size), root)
	assert.Equal(t, 8, l.B())
	assert.Equal(t, 2, l.Records())
	assert.Zero(t, l.DroppedBytes())
}

func TestOpen_DropsTornRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.wal")
	l, err := Create(path, 2, false)
	require.NoError(t, err)
	require.NoError(t, l.SetRoot(page.Size))
	require.NoError(t, l.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.Write(encodeRecord(2, 9*page.Size)[:20])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = Open(path, false)
	require.NoError(t, err)
	defer l.Close()

	root, err := l.Root()
	require.NoError(t, err)
	assert.Equal(t, page.Offset(page.Size), root)
	assert.Equal(t, int64(20), l.DroppedBytes())

	// The next commit lands where the torn record was.
	require.NoError(t, l.SetRoot(3*page.Size))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+2*recordSize), info.Size())
}

func TestOpen_StopsAtBadChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.wal")
	l, err := Create(path, 2, false)
	require.NoError(t, err)
	require.NoError(t, l.SetRoot(page.Size))
	require.NoError(t, l.SetRoot(2*page.Size))
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[headerSize+recordSize+9] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	l, err = Open(path, false)
	require.NoError(t, err)
	defer l.Close()

	root, err := l.Root()
	require.NoError(t, err)
	assert.Equal(t, page.Offset(page.Size), root)
	assert.Equal(t, 1, l.Records())
}

func TestOpen_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.wal")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a root log"), 0o600))

	_, err := Open(path, false)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestSetRoot_CompactsLongLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.wal")
	l, err := Create(path, 3, false)
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < CompactThreshold; i++ {
		require.NoError(t, l.SetRoot(page.Offset(i)*page.Size))
	}
	assert.Equal(t, CompactThreshold, l.Records())

	require.NoError(t, l.SetRoot(7*page.Size))
	assert.Equal(t, 2, l.Records())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+2*recordSize), info.Size())

	reopened, err := Open(path, false)
	require.NoError(t, err)
	defer reopened.Close()
	root, err := reopened.Root()
	require.NoError(t, err)
	assert.Equal(t, page.Offset(7*page.Size), root)
	assert.Equal(t, 3, reopened.B())
}

func TestClosedLog(t *testing.T) {
	l, err := Create(filepath.Join(t.TempDir(), "db.wal"), 2, false)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.SetRoot(0), ErrClosed)
	_, err = l.Root()
	assert.ErrorIs(t, err, ErrClosed)
}
