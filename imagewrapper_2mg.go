package diskimg

import "encoding/binary"

// TwoMGWrapper implements the 2MG format (spec.md §4.3/§6): a 64-byte
// header with magic "2IMG", preserved round-trip, wrapping DOS/ProDOS-
// ordered sectors or a 6656-byte-per-track nibble image.
type TwoMGWrapper struct {
	header  [64]byte
	comment []byte
	creator []byte
}

var magic2MG = [4]byte{'2', 'I', 'M', 'G'}

const (
	off2MGMagic       = 0x00
	off2MGCreator     = 0x04
	off2MGHeaderSize  = 0x08
	off2MGVersion     = 0x0A
	off2MGFormat      = 0x0C
	off2MGFlags       = 0x10
	off2MGBlocks      = 0x14
	off2MGDataOffset  = 0x18
	off2MGDataLength  = 0x1C
	off2MGCommentOff  = 0x20
	off2MGCommentLen  = 0x24
	off2MGCreatorOff  = 0x28
	off2MGCreatorLen  = 0x2C
)

const (
	flag2MGLocked  = 1 << 31
	flag2MGVolSet  = 1 << 8
	flag2MGVolMask = 0xFF
)

func (w *TwoMGWrapper) Format() FileFormat { return FileFormatTwoMG }

func (w *TwoMGWrapper) Test(src ByteSource, length int64) TestResult {
	if length < 64 {
		return TestNone
	}
	var hdr [4]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return TestNone
	}
	if hdr != magic2MG {
		return TestNone
	}
	return TestMatch
}

func (w *TwoMGWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	if _, err := src.ReadAt(0, w.header[:]); err != nil {
		return nil, Wrap(ErrReadFailed, err, "2mg header")
	}

	headerSize := int64(le16(w.header[off2MGHeaderSize:]))
	if headerSize < 64 {
		return nil, New(ErrBadFileFormat, "2mg header size %d < 64", headerSize)
	}
	format := le32(w.header[off2MGFormat:])
	flags := le32(w.header[off2MGFlags:])
	dataOffset := int64(le32(w.header[off2MGDataOffset:]))
	dataLength := int64(le32(w.header[off2MGDataLength:]))
	commentOffset := int64(le32(w.header[off2MGCommentOff:]))
	commentLength := int64(le32(w.header[off2MGCommentLen:]))
	creatorOffset := int64(le32(w.header[off2MGCreatorOff:]))
	creatorLength := int64(le32(w.header[off2MGCreatorLen:]))

	if dataOffset <= 0 {
		dataOffset = headerSize
	}
	if dataLength <= 0 || dataOffset+dataLength > length {
		dataLength = length - dataOffset
	}

	if commentLength > 0 {
		w.comment = make([]byte, commentLength)
		src.ReadAt(commentOffset, w.comment)
	}
	if creatorLength > 0 {
		w.creator = make([]byte, creatorLength)
		src.ReadAt(creatorOffset, w.creator)
	}

	dosVol := -1
	if flags&flag2MGVolSet != 0 {
		dosVol = int(flags & flag2MGVolMask)
	}

	payload := NewWindowSource(src, dataOffset, dataLength, nil)

	physical := PhysicalSectors
	order := OrderDOS
	switch format {
	case 0: // DOS
		order = OrderDOS
	case 1: // ProDOS
		order = OrderProDOS
	case 2: // NIB
		physical = PhysicalNib525_6656
		order = OrderPhysical
	default:
		return nil, New(ErrUnsupportedFileFmt, "2mg format byte %d", format)
	}

	return &PrepResult{
		Payload:         payload,
		Length:          dataLength,
		Physical:        physical,
		Order:           order,
		DOSVolumeNumber: dosVol,
	}, nil
}

// Flush rewrites the 64-byte 2MG header around payload, preserving the
// comment/creator chunks byte-for-byte (spec.md §6 "Round-trip: all
// fields preserved").
func (w *TwoMGWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	hdr := w.header // creator, version, format, flags and reserved bytes as read by Prep
	copy(hdr[off2MGMagic:], magic2MG[:])
	if le32(hdr[off2MGCreator:]) == 0 {
		copy(hdr[off2MGCreator:], []byte("GoIM"))
	}
	putLE16(hdr[off2MGHeaderSize:], 64)
	if le16(hdr[off2MGVersion:]) == 0 {
		putLE16(hdr[off2MGVersion:], 1)
	}
	putLE32(hdr[off2MGDataOffset:], 64)
	putLE32(hdr[off2MGDataLength:], uint32(payloadLen))
	if payloadLen%BytesPerBlock == 0 {
		putLE32(hdr[off2MGBlocks:], uint32(payloadLen/BytesPerBlock))
	}

	commentOffset := int64(64) + payloadLen
	if len(w.comment) > 0 {
		putLE32(hdr[off2MGCommentOff:], uint32(commentOffset))
		putLE32(hdr[off2MGCommentLen:], uint32(len(w.comment)))
	}
	creatorOffset := commentOffset + int64(len(w.comment))
	if len(w.creator) > 0 {
		putLE32(hdr[off2MGCreatorOff:], uint32(creatorOffset))
		putLE32(hdr[off2MGCreatorLen:], uint32(len(w.creator)))
	}

	if _, err := dst.WriteAt(0, hdr[:]); err != nil {
		return 0, err
	}
	buf := make([]byte, payloadLen)
	if _, err := payload.ReadAt(0, buf); err != nil {
		return 0, err
	}
	if _, err := dst.WriteAt(64, buf); err != nil {
		return 0, err
	}
	total := int64(64) + payloadLen
	if len(w.comment) > 0 {
		dst.WriteAt(total, w.comment)
		total += int64(len(w.comment))
	}
	if len(w.creator) > 0 {
		dst.WriteAt(total, w.creator)
		total += int64(len(w.creator))
	}
	return total, nil
}

func (w *TwoMGWrapper) HasFastFlush() bool { return true }

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func putLE16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putLE32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
