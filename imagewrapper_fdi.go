package diskimg

import "encoding/binary"

// FDIWrapper implements a simplified FDI (Formatted Disk Image)
// container: an ASCII-signature header followed by a per-track offset
// table, each track stored at its own recorded bit length (spec.md
// §4.3 "FDI").
type FDIWrapper struct {
	trackOffsets []int64
	trackLens    []int
	dataStart    int64
}

var fdiSignature = [3]byte{'F', 'D', 'I'}

const fdiHeaderLen = 14

func (w *FDIWrapper) Format() FileFormat { return FileFormatFDI }

func (w *FDIWrapper) Test(src ByteSource, length int64) TestResult {
	if length < fdiHeaderLen {
		return TestNone
	}
	var sig [3]byte
	if _, err := src.ReadAt(0, sig[:]); err != nil {
		return TestNone
	}
	if sig != fdiSignature {
		return TestNone
	}
	return TestMatch
}

func (w *FDIWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	var hdr [fdiHeaderLen]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return nil, Wrap(ErrReadFailed, err, "fdi header")
	}
	numTracks := int(binary.LittleEndian.Uint16(hdr[8:10]))
	tableOffset := int64(binary.LittleEndian.Uint32(hdr[10:14]))
	if numTracks <= 0 || numTracks > 254 {
		return nil, New(ErrBadFileFormat, "fdi track count %d", numTracks)
	}

	table := make([]byte, numTracks*8)
	if _, err := src.ReadAt(tableOffset, table); err != nil {
		return nil, Wrap(ErrReadFailed, err, "fdi track table")
	}
	w.trackOffsets = make([]int64, numTracks)
	w.trackLens = make([]int, numTracks)
	for i := 0; i < numTracks; i++ {
		entry := table[i*8 : i*8+8]
		w.trackOffsets[i] = int64(binary.LittleEndian.Uint32(entry[0:4]))
		w.trackLens[i] = int(binary.LittleEndian.Uint32(entry[4:8]))
	}
	w.dataStart = tableOffset + int64(numTracks*8)

	return &PrepResult{
		Payload:         NewWindowSource(src, w.dataStart, length-w.dataStart, nil),
		Length:          length - w.dataStart,
		Physical:        PhysicalNib525Var,
		Order:           OrderPhysical,
		DOSVolumeNumber: -1,
	}, nil
}

func (w *FDIWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return 0, New(ErrUnsupportedImageFeature, "fdi write-back not supported")
}

func (w *FDIWrapper) HasFastFlush() bool { return false }

func (w *FDIWrapper) NibbleTrackLength(track int) int {
	if track < 0 || track >= len(w.trackLens) {
		return 0
	}
	return w.trackLens[track]
}

func (w *FDIWrapper) NibbleTrackOffset(track int) int64 {
	if track < 0 || track >= len(w.trackOffsets) {
		return 0
	}
	return w.trackOffsets[track] - w.dataStart
}
