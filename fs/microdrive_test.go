package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildMicroDriveVolume(t *testing.T, di *diskimg.DiskImage, name string, start, count int) {
	t.Helper()
	var blk [512]byte
	blk[0], blk[1] = 'M', 'D'
	blk[2] = byte(len(name))
	copy(blk[3:3+len(name)], name)
	blk[0x10] = byte(start)
	blk[0x11] = byte(start >> 8)
	blk[0x12] = byte(start >> 16)
	blk[0x13] = byte(start >> 24)
	blk[0x14] = byte(count)
	blk[0x15] = byte(count >> 8)
	blk[0x16] = byte(count >> 16)
	blk[0x17] = byte(count >> 24)
	require.NoError(t, di.WriteBlock(0, blk))
}

func TestMicroDriveProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildMicroDriveVolume(t, di, "MYVOL", 0, 800)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatMicroDrive, result.Driver.Format())
	assert.Equal(t, "MYVOL", result.Driver.VolumeName())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MYVOL", entries[0].Name)
	assert.Equal(t, int64(800*512), entries[0].SizeBytes)
}

func TestMicroDriveReadAndWriteRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildMicroDriveVolume(t, di, "MYVOL", 0, 800)

	result, err := Probe(di, false)
	require.NoError(t, err)

	_, err = result.Driver.ReadFile(FileEntry{Name: "MYVOL"})
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
