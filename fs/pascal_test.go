package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

// buildPascalVolume writes a minimal valid volume directory block into
// block 2: a header entry (unused startBlock/endBlock, zero entry type,
// volume name) followed by one file entry spanning blocks 5-7.
func buildPascalVolume(t *testing.T, di *diskimg.DiskImage, volName, fileName string) {
	t.Helper()
	var blk [512]byte
	blk[4], blk[5] = 0, 0
	blk[0x10], blk[0x11] = 1, 0 // numFiles = 1
	blk[6] = byte(len(volName))
	copy(blk[7:7+len(volName)], volName)

	entry := blk[26 : 26+pascalEntryLen]
	entry[0], entry[1] = 5, 0 // startBlock
	entry[2], entry[3] = 7, 0 // endBlock
	entry[4] = 5              // kind: DATA
	entry[5] = byte(len(fileName))
	copy(entry[6:6+len(fileName)], fileName)

	require.NoError(t, di.WriteBlock(2, blk))

	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}
	var b1, b2 [512]byte
	copy(b1[:], payload)
	copy(b2[:], payload)
	require.NoError(t, di.WriteBlock(5, b1))
	require.NoError(t, di.WriteBlock(6, b2))
}

func TestPascalProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildPascalVolume(t, di, "MYDISK", "HELLO.TEXT")

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatPascal, result.Driver.Format())
	assert.Equal(t, "MYDISK", result.Driver.VolumeName())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HELLO.TEXT", entries[0].Name)
	assert.Equal(t, "DATA", entries[0].TypeName)
	assert.Equal(t, int64(2*512), entries[0].SizeBytes)

	data, err := result.Driver.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Len(t, data, 1024)
}

func TestPascalWriteFileRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildPascalVolume(t, di, "MYDISK", "HELLO.TEXT")

	result, err := Probe(di, false)
	require.NoError(t, err)

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
