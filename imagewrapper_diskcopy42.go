package diskimg

import "encoding/binary"

// DiskCopy42Wrapper implements Apple's DiskCopy 4.2 format: an 84-byte
// header (Pascal string name, data/tag byte counts, checksums, disk
// encoding/format bytes) followed by the raw data fork (spec.md §4.3).
type DiskCopy42Wrapper struct {
	name []byte
}

const dc42HeaderLen = 84

// dc42Checksum computes Apple's DiskCopy 4.2 data checksum: each
// big-endian 16-bit word of buf is added into a running 32-bit
// accumulator, which is then rotated right by one bit (original_source/
// diskimg/DiskImg.cpp's WrapperDiskCopy42 notes on kDIErrBadChecksum; the
// algorithm itself is Apple's, documented in the DiskCopy 4.2 file
// format). A trailing odd byte, if any, is folded in as a high byte with
// an implicit zero low byte.
func dc42Checksum(buf []byte) uint32 {
	var sum uint32
	n := len(buf) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
		sum = (sum >> 1) | (sum << 31)
	}
	if len(buf) > n {
		sum += uint32(buf[n]) << 8
		sum = (sum >> 1) | (sum << 31)
	}
	return sum
}

func (w *DiskCopy42Wrapper) Format() FileFormat { return FileFormatDiskCopy42 }

func (w *DiskCopy42Wrapper) Test(src ByteSource, length int64) TestResult {
	if length <= dc42HeaderLen {
		return TestNone
	}
	var hdr [dc42HeaderLen]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return TestNone
	}
	nameLen := int(hdr[0])
	if nameLen > 63 {
		return TestNone
	}
	dataSize := binary.BigEndian.Uint32(hdr[64:68])
	tagSize := binary.BigEndian.Uint32(hdr[68:72])
	if int64(dataSize)+int64(tagSize)+dc42HeaderLen != length {
		return TestNone
	}
	privID := binary.BigEndian.Uint16(hdr[82:84])
	if privID != 0x0100 {
		return TestNone
	}

	data := make([]byte, dataSize)
	if _, err := src.ReadAt(dc42HeaderLen, data); err != nil {
		return TestNone
	}
	wantChecksum := binary.BigEndian.Uint32(hdr[74:78])
	if dc42Checksum(data) != wantChecksum {
		return TestDefinitelyThisButCorrupt
	}
	return TestMatch
}

func (w *DiskCopy42Wrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	var hdr [dc42HeaderLen]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return nil, Wrap(ErrReadFailed, err, "diskcopy42 header")
	}
	nameLen := int(hdr[0])
	if nameLen > 63 {
		nameLen = 63
	}
	w.name = append([]byte(nil), hdr[1:1+nameLen]...)

	dataSize := int64(binary.BigEndian.Uint32(hdr[64:68]))
	diskFormat := hdr[72]

	physical := PhysicalSectors
	order := OrderProDOS
	if diskFormat == 2 { // 5.25in 140K disk stored physical-order
		order = OrderPhysical
	}

	payload := NewWindowSource(src, dc42HeaderLen, dataSize, nil)
	return &PrepResult{
		Payload:         payload,
		Length:          dataSize,
		Physical:        physical,
		Order:           order,
		DOSVolumeNumber: -1,
	}, nil
}

func (w *DiskCopy42Wrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	buf := make([]byte, payloadLen)
	if _, err := payload.ReadAt(0, buf); err != nil {
		return 0, err
	}

	var hdr [dc42HeaderLen]byte
	hdr[0] = byte(len(w.name))
	copy(hdr[1:], w.name)
	binary.BigEndian.PutUint32(hdr[64:68], uint32(payloadLen))
	binary.BigEndian.PutUint32(hdr[68:72], 0)
	hdr[72] = 0
	hdr[73] = 0
	binary.BigEndian.PutUint32(hdr[74:78], dc42Checksum(buf))
	binary.BigEndian.PutUint32(hdr[78:82], 0) // tag checksum: no tag data is ever written
	binary.BigEndian.PutUint16(hdr[82:84], 0x0100)

	if _, err := dst.WriteAt(0, hdr[:]); err != nil {
		return 0, err
	}
	if _, err := dst.WriteAt(dc42HeaderLen, buf); err != nil {
		return 0, err
	}
	return dc42HeaderLen + payloadLen, nil
}

func (w *DiskCopy42Wrapper) HasFastFlush() bool { return true }
