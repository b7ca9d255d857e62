package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_MatchesOnDiskFormat(t *testing.T) {
	assert.Equal(t, 10, CommonHeaderSize)
	assert.Equal(t, 18, InternalHeaderSize)
	assert.Equal(t, 26, LeafHeaderSize)
	assert.Equal(t, 40, LeafPairSize)
}

func TestUint64_RoundTripsBigEndian(t *testing.T) {
	p := New()
	require.NoError(t, p.PutUint64At(8, 4096))

	raw, err := p.Slice(8, PtrSize)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x10, 0}, raw)

	v, err := p.Uint64At(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), v)
}

func TestAccess_RejectsOutOfBounds(t *testing.T) {
	p := New()

	_, err := p.Uint64At(Size - 4)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.ErrorIs(t, p.PutUint32At(Size-2, 1), ErrOutOfBounds)
	assert.ErrorIs(t, p.PutByteAt(Size, 1), ErrOutOfBounds)

	_, err = p.Slice(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestPutBytes_ZeroPadsSlot(t *testing.T) {
	p := New()
	require.NoError(t, p.PutBytes(0, KeySize, []byte("a long key that fills some room")))
	require.NoError(t, p.PutBytes(0, KeySize, []byte("hi")))

	slot, err := p.Slice(0, KeySize)
	require.NoError(t, err)
	assert.Equal(t, byte('h'), slot[0])
	assert.Equal(t, byte('i'), slot[1])
	for _, b := range slot[2:] {
		assert.Zero(t, b)
	}

	assert.ErrorIs(t, p.PutBytes(0, 2, []byte("abc")), ErrOutOfBounds)
}

func TestFromBytes(t *testing.T) {
	_, err := FromBytes(make([]byte, 10))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	raw := make([]byte, Size)
	raw[3] = 7
	p, err := FromBytes(raw)
	require.NoError(t, err)
	b, err := p.ByteAt(3)
	require.NoError(t, err)
	assert.Equal(t, byte(7), b)
}

func TestOffset_Aligned(t *testing.T) {
	assert.True(t, Offset(0).Aligned())
	assert.True(t, Offset(2*Size).Aligned())
	assert.False(t, Offset(12).Aligned())
	assert.False(t, Offset(-Size).Aligned())
}
