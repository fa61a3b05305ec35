package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func newBlankDOS33(t *testing.T) *diskimg.DiskImage {
	t.Helper()
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.dsk", ForceOrder: diskimg.OrderDOS})
	require.NoError(t, err)
	return di
}

func TestFormatDOS33ThenProbe(t *testing.T) {
	di := newBlankDOS33(t)

	drv, err := FormatNew(di, FormatDOS33, "NEWDISK")
	require.NoError(t, err)
	assert.Equal(t, FormatDOS33, drv.Format())

	entries, err := drv.List("*")
	require.NoError(t, err)
	assert.Empty(t, entries)

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatDOS33, result.Driver.Format())
}

func TestDOS33WriteReadDeleteRoundTrip(t *testing.T) {
	di := newBlankDOS33(t)
	drv, err := FormatNew(di, FormatDOS33, "NEWDISK")
	require.NoError(t, err)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, drv.WriteFile("HELLO", payload))

	entries, err := drv.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HELLO", entries[0].Name)
	assert.Equal(t, "BIN", entries[0].TypeName)

	data, err := drv.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Equal(t, payload, data[:len(payload)])

	require.NoError(t, drv.DeleteFile(entries[0]))
	after, err := drv.List("*")
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestDOS33ListPatternMatchesGlob(t *testing.T) {
	di := newBlankDOS33(t)
	drv, err := FormatNew(di, FormatDOS33, "NEWDISK")
	require.NoError(t, err)

	require.NoError(t, drv.WriteFile("HELLO.BAS", []byte("10 PRINT")))
	require.NoError(t, drv.WriteFile("README", []byte("text")))

	matches, err := drv.List("*.BAS")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "HELLO.BAS", matches[0].Name)
}

func TestProbeRejectsWrongSectorCount(t *testing.T) {
	buf := diskimg.NewBufferSource(make([]byte, diskimg.StdDiskBytesOld))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.d13", ForceOrder: diskimg.OrderDOS})
	require.NoError(t, err)

	_, err = Probe(di, false)
	assert.Equal(t, diskimg.ErrFilesystemNotFound, diskimg.CodeOf(err))
}
