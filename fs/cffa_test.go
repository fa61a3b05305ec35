package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildCFFAVolume(t *testing.T, di *diskimg.DiskImage, starts, counts []int) {
	t.Helper()
	var blk [512]byte
	copy(blk[0:4], []byte("CFFA"))
	for i := range starts {
		off := 8 + i*8
		blk[off] = byte(starts[i])
		blk[off+1] = byte(starts[i] >> 8)
		blk[off+2] = byte(starts[i] >> 16)
		blk[off+3] = byte(starts[i] >> 24)
		blk[off+4] = byte(counts[i])
		blk[off+5] = byte(counts[i] >> 8)
		blk[off+6] = byte(counts[i] >> 16)
		blk[off+7] = byte(counts[i] >> 24)
	}
	require.NoError(t, di.WriteBlock(0, blk))
}

func TestCFFAProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS800KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildCFFAVolume(t, di, []int{10, 410}, []int{400, 400})

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatCFFA, result.Driver.Format())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "PARTITION0", entries[0].Name)
	assert.Equal(t, "PARTITION1", entries[1].Name)
	assert.Equal(t, int64(400*512), entries[0].SizeBytes)
}

func TestCFFAReadAndWriteRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS800KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildCFFAVolume(t, di, []int{10}, []int{400})

	result, err := Probe(di, false)
	require.NoError(t, err)

	_, err = result.Driver.ReadFile(FileEntry{Name: "PARTITION0"})
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
