package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func buildRDOSVolume(t *testing.T, di *diskimg.DiskImage, fileName string, startSector, sectorCount int) {
	t.Helper()
	var sig [256]byte
	sig[0] = 'R' + 0x80
	sig[1] = 'D' + 0x80
	sig[2] = 'O' + 0x80
	sig[3] = 'S' + 0x80
	sig[4] = ' ' + 0x80
	sig[5] = '3' + 0x80

	for i := 6; i < rdosNameLength; i++ {
		sig[i] = ' ' + 0x80
	}

	// Entry 0 holds the signature; the file's entry follows it.
	entry := sig[rdosEntryLength : 2*rdosEntryLength]
	for i := 0; i < rdosNameLength; i++ {
		if i < len(fileName) {
			entry[i] = fileName[i] | 0x80
		} else {
			entry[i] = ' ' + 0x80
		}
	}
	entry[0x1A] = byte(startSector & 0xff)
	entry[0x1B] = byte(startSector >> 8)
	entry[0x1C] = byte(sectorCount & 0xff)
	entry[0x1D] = byte(sectorCount >> 8)

	require.NoError(t, di.WriteTrackSector(rdosCatalogTrack, 0, diskimg.OrderPhysical, sig))

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	spt := di.NumSectors()
	for i := 0; i < sectorCount; i++ {
		abs := startSector + i
		var sec [256]byte
		copy(sec[:], payload)
		require.NoError(t, di.WriteTrackSector(abs/spt, abs%spt, diskimg.OrderPhysical, sec))
	}
}

func TestRDOSProbeAndList(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.dsk", ForceOrder: diskimg.OrderPhysical})
	require.NoError(t, err)
	buildRDOSVolume(t, di, "HELLO", 32, 2)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatRDOS33, result.Driver.Format())

	entries, err := result.Driver.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "RDOS 3", entries[0].Name)
	assert.Equal(t, "HELLO", entries[1].Name)
	assert.Equal(t, int64(2*256), entries[1].SizeBytes)

	data, err := result.Driver.ReadFile(entries[1])
	require.NoError(t, err)
	assert.Len(t, data, 512)
}

func TestRDOSWriteFileRejected(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.dsk", ForceOrder: diskimg.OrderPhysical})
	require.NoError(t, err)
	buildRDOSVolume(t, di, "HELLO", 32, 2)

	result, err := Probe(di, false)
	require.NoError(t, err)

	err = result.Driver.WriteFile("NEW", []byte("x"))
	assert.Equal(t, diskimg.ErrUnsupportedAccess, diskimg.CodeOf(err))
}
