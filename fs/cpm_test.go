package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildCPMVolume(t *testing.T, di *diskimg.DiskImage, name, ext string, blocks []int, records int) {
	t.Helper()
	var dir [256]byte
	dir[0] = 0 // user number
	for i := 0; i < 8; i++ {
		if i < len(name) {
			dir[1+i] = name[i]
		} else {
			dir[1+i] = ' '
		}
	}
	for i := 0; i < 3; i++ {
		if i < len(ext) {
			dir[9+i] = ext[i]
		} else {
			dir[9+i] = ' '
		}
	}
	dir[15] = byte(records)
	for i, b := range blocks {
		dir[16+i] = byte(b)
	}
	require.NoError(t, di.WriteTrackSector(cpmDirTrack, 0, diskimg.OrderCPM, dir))

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	spt := di.NumSectors()
	for _, b := range blocks {
		var sec [256]byte
		copy(sec[:], payload)
		require.NoError(t, di.WriteTrackSector(b/spt, b%spt, diskimg.OrderCPM, sec))
	}
}

func TestCPMProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.dsk", ForceOrder: diskimg.OrderCPM})
	require.NoError(t, err)
	buildCPMVolume(t, di, "HELLO", "TXT", []int{64, 65}, 4)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatCPM, result.Driver.Format())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HELLO.TXT", entries[0].Name)
	assert.Equal(t, int64(4*128), entries[0].SizeBytes)

	data, err := result.Driver.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Len(t, data, 512)
}

func TestCPMWriteFileRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.dsk", ForceOrder: diskimg.OrderCPM})
	require.NoError(t, err)
	buildCPMVolume(t, di, "HELLO", "TXT", []int{64, 65}, 4)

	result, err := Probe(di, false)
	require.NoError(t, err)

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
