package diskimg

import "encoding/binary"

// TrackStarWrapper implements the TrackStar .app format: a sequence of
// fixed-size track slots (6656 bytes data + small trailer) regardless
// of how many nibbles a track actually used, addressed by a constant
// per-track stride (spec.md §4.3 "TrackStar").
type TrackStarWrapper struct {
	slotLen    int64
	trackCount int
}

const (
	trackStarSlotLen    = 6656 + 96 // data area + trailer
	trackStarHeaderLen  = 0
	trackStarTrailerLen = 96
)

func (w *TrackStarWrapper) Format() FileFormat { return FileFormatTrackStar }

func (w *TrackStarWrapper) Test(src ByteSource, length int64) TestResult {
	if length <= 0 || length%trackStarSlotLen != 0 {
		return TestNone
	}
	n := length / trackStarSlotLen
	if n < 1 || n > 80 {
		return TestNone
	}
	return TestMatch
}

func (w *TrackStarWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	if length%trackStarSlotLen != 0 {
		return nil, New(ErrOddLength, "trackstar length %d", length)
	}
	w.slotLen = trackStarSlotLen
	w.trackCount = int(length / trackStarSlotLen)

	return &PrepResult{
		Payload:         src,
		Length:          length,
		Physical:        PhysicalNib525Var,
		Order:           OrderPhysical,
		DOSVolumeNumber: -1,
	}, nil
}

func (w *TrackStarWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return payloadLen, nil
}

func (w *TrackStarWrapper) HasFastFlush() bool { return true }

// NibbleTrackLength reports the full 6656-byte data area of a track's
// slot for every track; the length word in the slot trailer is not
// read.
func (w *TrackStarWrapper) NibbleTrackLength(track int) int {
	return 6656
}

func (w *TrackStarWrapper) NibbleTrackOffset(track int) int64 {
	return int64(track) * w.slotLen
}

func trackStarTrailerLenFor(buf []byte) int {
	if len(buf) < 2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(buf))
}
