package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eightbit-archive/diskimg"
)

func newBlankProDOS(t *testing.T) *diskimg.DiskImage {
	t.Helper()
	buf := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(buf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	return di
}

func TestFormatProDOSThenProbe(t *testing.T) {
	di := newBlankProDOS(t)

	drv, err := FormatNew(di, FormatProDOS, "NEWVOL")
	require.NoError(t, err)
	assert.Equal(t, FormatProDOS, drv.Format())
	assert.Equal(t, "NEWVOL", drv.VolumeName())

	result, err := Probe(di, false)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, FormatProDOS, result.Driver.Format())
	assert.Equal(t, "NEWVOL", result.Driver.VolumeName())
}

func TestProDOSWriteReadDeleteRoundTrip(t *testing.T) {
	di := newBlankProDOS(t)
	drv, err := FormatNew(di, FormatProDOS, "NEWVOL")
	require.NoError(t, err)

	payload := make([]byte, 1200)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	require.NoError(t, drv.WriteFile("BIGFILE", payload))

	entries, err := drv.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BIGFILE", entries[0].Name)
	assert.Equal(t, int64(len(payload)), entries[0].SizeBytes)

	data, err := drv.ReadFile(entries[0])
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NoError(t, drv.DeleteFile(entries[0]))
	after, err := drv.List("*")
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestProDOSWriteMultipleFilesUseDistinctSlots(t *testing.T) {
	di := newBlankProDOS(t)
	drv, err := FormatNew(di, FormatProDOS, "NEWVOL")
	require.NoError(t, err)

	require.NoError(t, drv.WriteFile("FIRST", []byte("one")))
	require.NoError(t, drv.WriteFile("SECOND", []byte("two")))
	require.NoError(t, drv.WriteFile("THIRD", []byte("three")))

	entries, err := drv.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["FIRST"])
	assert.True(t, names["SECOND"])
	assert.True(t, names["THIRD"])

	var second FileEntry
	for _, e := range entries {
		if e.Name == "SECOND" {
			second = e
		}
	}
	require.NoError(t, drv.DeleteFile(second))

	after, err := drv.List("*")
	require.NoError(t, err)
	require.Len(t, after, 2)

	require.NoError(t, drv.WriteFile("FOURTH", []byte("four")))
	final, err := drv.List("*")
	require.NoError(t, err)
	require.Len(t, final, 3)
}

func TestProDOSRejectsWriteWhenReadOnly(t *testing.T) {
	seed := diskimg.NewBufferSource(make([]byte, diskimg.ProDOS400KDiskBytes))
	di, err := diskimg.Open(seed, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS})
	require.NoError(t, err)
	_, err = FormatNew(di, FormatProDOS, "NEWVOL")
	require.NoError(t, err)
	formatted := append([]byte(nil), seed.Bytes()...)

	roBuf := diskimg.NewBufferSource(formatted)
	roDi, err := diskimg.Open(roBuf, diskimg.OpenOptions{Filename: "blank.po", ForceOrder: diskimg.OrderProDOS, ReadOnly: true})
	require.NoError(t, err)

	result, err := Probe(roDi, false)
	require.NoError(t, err)

	err = result.Driver.WriteFile("X", []byte("y"))
	assert.Equal(t, diskimg.ErrWriteProtected, diskimg.CodeOf(err))
}
