package diskimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNibbleTrackRoundTrip exercises spec.md §8 invariant 3: decoding an
// encoded track must reproduce the original 256-byte sectors, for the
// standard DOS 3.3 6-and-2 profile.
func TestNibbleTrackRoundTrip(t *testing.T) {
	descr := &StdNibbleDescrs[0] // "DOS 3.3 Standard"
	require.Equal(t, 16, descr.NumSectors)

	sectors := make(map[int][256]byte, descr.NumSectors)
	for s := 0; s < descr.NumSectors; s++ {
		var data [256]byte
		for i := range data {
			data[i] = byte((s*37 + i*7 + 11) & 0xff)
		}
		sectors[s] = data
	}

	trackLen := int(trackLenFor(PhysicalNib525_6656))
	encoded := EncodeTrack(sectors, physicalOrder, descr, 0, trackLen)
	require.Len(t, encoded, trackLen)

	decoded := DecodeTrack(encoded, descr, 0)
	require.Len(t, decoded, descr.NumSectors)

	got := make(map[int][256]byte, len(decoded))
	for _, d := range decoded {
		require.NoError(t, d.Err, "sector %d", d.Sector)
		got[d.Sector] = d.Data
	}
	for s, want := range sectors {
		assert.Equal(t, want, got[s], "sector %d round-trip mismatch", s)
	}
}

// TestNibbleTrackRoundTrip53 is the 5-and-3 analogue, for DOS 3.2's
// 13-sector encoding.
func TestNibbleTrackRoundTrip53(t *testing.T) {
	descr := &StdNibbleDescrs[3] // "DOS 3.2 Standard"
	require.Equal(t, 13, descr.NumSectors)
	require.Equal(t, Encoding53, descr.Encoding)

	order := physicalOrder[:descr.NumSectors]
	sectors := make(map[int][256]byte, descr.NumSectors)
	for s := 0; s < descr.NumSectors; s++ {
		var data [256]byte
		for i := range data {
			data[i] = byte((s*53 + i*13 + 3) & 0xff)
		}
		sectors[s] = data
	}

	trackLen := int(trackLenFor(PhysicalNib525_6384))
	encoded := EncodeTrack(sectors, order, descr, 0, trackLen)
	require.Len(t, encoded, trackLen)

	decoded := DecodeTrack(encoded, descr, 0)
	require.Len(t, decoded, descr.NumSectors)

	got := make(map[int][256]byte, len(decoded))
	for _, d := range decoded {
		require.NoError(t, d.Err, "sector %d", d.Sector)
		got[d.Sector] = d.Data
	}
	for s, want := range sectors {
		assert.Equal(t, want, got[s], "sector %d round-trip mismatch", s)
	}
}
