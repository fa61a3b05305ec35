package diskimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectorOffsetIdentityWhenSameOrder(t *testing.T) {
	for sector := 0; sector < 16; sector++ {
		got := SectorOffset(1, sector, 16, OrderDOS, OrderDOS)
		want := int64(1)*16*256 + int64(sector)*256
		assert.Equal(t, want, got)
	}
}

func TestSectorOffsetDOSToProDOSPermutation(t *testing.T) {
	// Sector 0 is raw 0 in both tables, so it lands at the same offset
	// under any imageOrder/fsOrder pairing.
	got := SectorOffset(0, 0, 16, OrderProDOS, OrderDOS)
	assert.Equal(t, int64(0), got)
}

func TestSectorOffset13SectorIsIdentity(t *testing.T) {
	got := SectorOffset(2, 5, 13, OrderDOS, OrderDOS)
	want := int64(2)*13*256 + int64(5)*256
	assert.Equal(t, want, got)
}

func TestSectorOffset32SectorSplitsHalves(t *testing.T) {
	lowHalf := SectorOffset(0, 3, 32, OrderDOS, OrderDOS)
	highHalf := SectorOffset(0, 19, 32, OrderDOS, OrderDOS)
	assert.Less(t, lowHalf, int64(16*256))
	assert.GreaterOrEqual(t, highHalf, int64(16*256))
}

// TestSectorOffset32SectorAppliesPermutationWithinHalf checks UNIDOS's
// 32-sectors-per-track addressing (spec.md §4.4): each 16-sector half
// gets the same fs_order/image_order permutation independently, and the
// second half is offset by exactly 16*256 from the first.
func TestSectorOffset32SectorAppliesPermutationWithinHalf(t *testing.T) {
	lowHalf := SectorOffset(0, 3, 32, OrderProDOS, OrderDOS)
	lowHalfPlain := SectorOffset(0, 3, 16, OrderProDOS, OrderDOS)
	assert.Equal(t, lowHalfPlain, lowHalf, "first half must match the plain 16-sector permutation")

	highHalf := SectorOffset(0, 16+3, 32, OrderProDOS, OrderDOS)
	assert.Equal(t, lowHalf+16*256, highHalf, "second half offset by exactly one 16-sector half")
}

// TestPairedSectorOffsetSelectsHalf exercises OzDOS's sector pairing
// (spec.md §4.4): two logical 16-sector tracks share one physical
// 32-sector slot, chosen by SectorPairing.Offset.
func TestPairedSectorOffsetSelectsHalf(t *testing.T) {
	pairing0 := SectorPairing{Enabled: true, Offset: 0}
	pairing1 := SectorPairing{Enabled: true, Offset: 1}

	off0 := PairedSectorOffset(2, 3, pairing0, OrderDOS, OrderDOS)
	off1 := PairedSectorOffset(2, 3, pairing1, OrderDOS, OrderDOS)

	assert.Equal(t, off0+16*256, off1, "offset=1 must select the second 16-sector half of the paired slot")

	wantTrackBase := int64(2*2) * 32 * 256 // pairedTrack = track*2
	assert.Equal(t, wantTrackBase, off0-int64(3)*256)
}

func TestInvertIsSelfInverse(t *testing.T) {
	inv := invert(dosOrder)
	back := invert(inv)
	assert.Equal(t, dosOrder, back)
}

func TestOrderStringNames(t *testing.T) {
	assert.Equal(t, "DOS", OrderDOS.String())
	assert.Equal(t, "ProDOS", OrderProDOS.String())
	assert.Equal(t, "CPM", OrderCPM.String())
	assert.Equal(t, "Unknown", OrderUnknown.String())
}
