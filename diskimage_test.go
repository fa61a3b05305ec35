package diskimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUnadornedDOS(t *testing.T) *DiskImage {
	t.Helper()
	buf := NewBufferSource(make([]byte, StdDiskBytes))
	di, err := Open(buf, OpenOptions{Filename: "blank.dsk", ForceOrder: OrderDOS})
	require.NoError(t, err)
	return di
}

func TestOpenDerivesDOSGeometry(t *testing.T) {
	di := openUnadornedDOS(t)
	assert.Equal(t, TracksPerDisk, di.NumTracks())
	assert.Equal(t, SectorsPerTrack16, di.NumSectors())
	assert.True(t, di.HasSectors())
	assert.True(t, di.HasBlocks())
	assert.False(t, di.IsDirty())
}

func TestWriteTrackSectorRoundTrip(t *testing.T) {
	di := openUnadornedDOS(t)

	var data [256]byte
	copy(data[:], []byte("HELLO FROM TRACK 3 SECTOR 5"))

	require.NoError(t, di.WriteTrackSector(3, 5, OrderDOS, data))
	assert.True(t, di.IsDirty())

	got, err := di.ReadTrackSector(3, 5, OrderDOS)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadTrackSectorOutOfRange(t *testing.T) {
	di := openUnadornedDOS(t)

	_, err := di.ReadTrackSector(di.NumTracks(), 0, OrderDOS)
	assert.Equal(t, ErrInvalidTrack, CodeOf(err))

	_, err = di.ReadTrackSector(0, di.NumSectors(), OrderDOS)
	assert.Equal(t, ErrInvalidSector, CodeOf(err))
}

func TestWriteBlockRoundTripsThroughPairedSectors(t *testing.T) {
	di := openUnadornedDOS(t)

	var blk [512]byte
	copy(blk[:], []byte("BLOCK ZERO PAYLOAD"))
	require.NoError(t, di.WriteBlock(0, blk))

	got, err := di.ReadBlock(0)
	require.NoError(t, err)
	assert.Equal(t, blk, got)
}

// TestReadBlockIsLinearUnderProDOSOrder exercises spec.md §4.8's "linear
// fast path when image_order == fs_order" for an unadorned .po payload
// (spec.md §8 scenario 2): block 2 must sit at the contiguous payload
// offset block*512, not at the DOS-interleaved sector pair.
func TestReadBlockIsLinearUnderProDOSOrder(t *testing.T) {
	buf := NewBufferSource(make([]byte, ProDOS800KDiskBytes))
	di, err := Open(buf, OpenOptions{Filename: "vol.po", ForceOrder: OrderProDOS})
	require.NoError(t, err)

	var want [512]byte
	copy(want[:], []byte("LINEAR PRODOS BLOCK TWO"))
	require.NoError(t, di.WriteBlock(2, want))

	got, err := di.ReadBlock(2)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw := make([]byte, 512)
	_, err = di.payload.ReadAt(1024, raw)
	require.NoError(t, err)
	assert.Equal(t, want[:], raw, "ProDOS-ordered block 2 must sit at linear payload offset 1024")
}

func TestReadOnlyImageRejectsWrite(t *testing.T) {
	buf := NewBufferSource(make([]byte, StdDiskBytes))
	di, err := Open(buf, OpenOptions{Filename: "blank.dsk", ForceOrder: OrderDOS, ReadOnly: true})
	require.NoError(t, err)

	var data [256]byte
	err = di.WriteTrackSector(0, 0, OrderDOS, data)
	assert.Equal(t, ErrWriteProtected, CodeOf(err))
}

func TestCloseAfterCloseIsNoop(t *testing.T) {
	di := openUnadornedDOS(t)
	require.NoError(t, di.Close())
	assert.NoError(t, di.Close())
}

func TestOpenEmptySourceFails(t *testing.T) {
	buf := NewBufferSource(nil)
	_, err := Open(buf, OpenOptions{})
	assert.Equal(t, ErrInvalidCreateReq, CodeOf(err))
}

func TestOpenSubImageSharesDirtyFlag(t *testing.T) {
	di := openUnadornedDOS(t)

	child, err := di.OpenSubImage(0, StdDiskBytesOld, "part.dsk")
	require.NoError(t, err)
	require.NotNil(t, child)

	var data [256]byte
	copy(data[:], []byte("CHILD WRITE"))
	require.NoError(t, child.WriteTrackSector(0, 0, OrderDOS, data))

	assert.True(t, di.IsDirty(), "writes through a sub-image must mark the parent dirty")
}
