package diskimg

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDC42(t *testing.T, data []byte, checksum uint32) []byte {
	t.Helper()
	buf := make([]byte, dc42HeaderLen+len(data))
	buf[0] = 0 // empty Pascal name
	binary.BigEndian.PutUint32(buf[64:68], uint32(len(data)))
	binary.BigEndian.PutUint32(buf[68:72], 0)
	binary.BigEndian.PutUint32(buf[74:78], checksum)
	binary.BigEndian.PutUint16(buf[82:84], 0x0100)
	copy(buf[dc42HeaderLen:], data)
	return buf
}

func TestDC42ChecksumRoundTripsThroughFlush(t *testing.T) {
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i * 7)
	}

	w := &DiskCopy42Wrapper{}
	dst := NewGrowableBufferSource(nil)
	payload := NewBufferSource(data)

	n, err := w.Flush(dst, payload, int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(dc42HeaderLen+len(data)), n)

	assert.Equal(t, TestMatch, w.Test(dst, n), "a freshly flushed image must carry a checksum that verifies")
}

func TestDC42TestDetectsGoodChecksum(t *testing.T) {
	data := []byte("APPLE DISKCOPY 4.2 TEST PAYLOAD!")
	raw := buildDC42(t, data, dc42Checksum(data))

	w := &DiskCopy42Wrapper{}
	src := NewBufferSource(raw)
	assert.Equal(t, TestMatch, w.Test(src, int64(len(raw))))
}

func TestDC42TestFlagsBadChecksumAsCorruptNotNone(t *testing.T) {
	data := []byte("APPLE DISKCOPY 4.2 TEST PAYLOAD!")
	raw := buildDC42(t, data, dc42Checksum(data)^0xFFFFFFFF)

	w := &DiskCopy42Wrapper{}
	src := NewBufferSource(raw)
	assert.Equal(t, TestDefinitelyThisButCorrupt, w.Test(src, int64(len(raw))))
}

// TestOpenDowngradesCorruptDiskCopy42ToReadOnly exercises spec.md §7's
// "wrapper-level BadChecksum on open is recoverable": Open must still
// succeed on a checksum mismatch, but mark the image read-only and leave
// a note behind instead of rejecting it.
func TestOpenDowngradesCorruptDiskCopy42ToReadOnly(t *testing.T) {
	data := make([]byte, StdDiskBytes)
	raw := buildDC42(t, data, dc42Checksum(data)^0xFFFFFFFF)

	di, err := Open(NewBufferSource(raw), OpenOptions{Filename: "bad.dc42"})
	require.NoError(t, err)
	assert.True(t, di.IsReadOnly(), "a bad data checksum must force the image read-only")

	notes := di.Notes()
	require.NotEmpty(t, notes)
	assert.Equal(t, SeverityWarning, notes[len(notes)-1].Severity)

	var sector [256]byte
	err = di.WriteTrackSector(0, 0, OrderDOS, sector)
	assert.Equal(t, ErrWriteProtected, CodeOf(err))
}
