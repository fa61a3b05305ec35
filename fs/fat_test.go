package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildFATVolume(t *testing.T, di *diskimg.DiskImage, fileName string, size int) {
	t.Helper()
	var boot [512]byte
	boot[0x0B], boot[0x0C] = 0x00, 0x02 // bytesPerSec = 512
	boot[0x0D] = 1                     // secPerClus
	boot[0x0E], boot[0x0F] = 1, 0       // reserved
	boot[0x10] = 1                     // numFATs
	boot[0x11], boot[0x12] = 16, 0     // rootEntries
	boot[0x16], boot[0x17] = 1, 0      // fatSize
	boot[0x1FE], boot[0x1FF] = 0x55, 0xAA
	require.NoError(t, di.WriteBlock(0, boot))

	// rootStart = reserved(1) + numFATs(1)*fatSize(1) = 2
	var root [512]byte
	copy(root[0:8], []byte("HELLO   "))
	copy(root[8:11], []byte("TXT"))
	root[11] = 0x20 // archive attribute
	root[28] = byte(size & 0xff)
	root[29] = byte((size >> 8) & 0xff)
	require.NoError(t, di.WriteBlock(2, root))
}

func TestFATProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildFATVolume(t, di, "HELLO.TXT", 1234)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatFAT, result.Driver.Format())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HELLO.TXT", entries[0].Name)
	assert.Equal(t, int64(1234), entries[0].SizeBytes)
}

func TestFATReadAndWriteRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	buildFATVolume(t, di, "HELLO.TXT", 1234)

	result, err := Probe(di, false)
	require.NoError(t, err)

	_, err = result.Driver.ReadFile(FileEntry{Name: "HELLO.TXT"})
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
