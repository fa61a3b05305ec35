package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildMacPartVolume(t *testing.T, di *diskimg.DiskImage) {
	t.Helper()
	writeEntry := func(block int, mapEntries, start, count int, name, ptype string) {
		var blk [512]byte
		blk[0], blk[1] = 'P', 'M'
		blk[4] = byte(mapEntries >> 24)
		blk[5] = byte(mapEntries >> 16)
		blk[6] = byte(mapEntries >> 8)
		blk[7] = byte(mapEntries)
		blk[8] = byte(start >> 24)
		blk[9] = byte(start >> 16)
		blk[10] = byte(start >> 8)
		blk[11] = byte(start)
		blk[12] = byte(count >> 24)
		blk[13] = byte(count >> 16)
		blk[14] = byte(count >> 8)
		blk[15] = byte(count)
		copy(blk[16:48], name)
		copy(blk[48:80], ptype)
		require.NoError(t, di.WriteBlock(block, blk))
	}
	writeEntry(1, 2, 20, 200, "ProDOS_Vol", "Apple_PRODOS")
	writeEntry(2, 2, 220, 200, "Driver_Vol", "Apple_Driver")
}

func TestMacPartProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS800KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildMacPartVolume(t, di)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatMacPart, result.Driver.Format())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ProDOS_Vol", entries[0].Name)
	assert.Equal(t, "Apple_PRODOS", entries[0].TypeName)
	assert.Equal(t, int64(200*512), entries[0].SizeBytes)
}

func TestMacPartReadAndWriteRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS800KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildMacPartVolume(t, di)

	result, err := Probe(di, false)
	require.NoError(t, err)

	_, err = result.Driver.ReadFile(FileEntry{Name: "ProDOS_Vol"})
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
