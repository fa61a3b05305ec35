package diskimg

// DDDWrapper implements Dalton's Disk Disintegrator compressed images:
// a short header naming the volume, followed by 256 run-length-encoded
// nibble-count/value pairs reconstituting a 16-sector DOS-order disk
// (spec.md §4.3 "DDD").
type DDDWrapper struct {
	volName [20]byte
}

const dddHeaderLen = 32

func (w *DDDWrapper) Format() FileFormat { return FileFormatDDD }

func (w *DDDWrapper) Test(src ByteSource, length int64) TestResult {
	if length < dddHeaderLen+2 {
		return TestNone
	}
	var hdr [4]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return TestNone
	}
	// DDD files begin with a 0x0A sync marker followed by a disk-space
	// count; cheap enough to sniff but easy to collide with unadorned
	// images, so DDD is only ever selected via extension hint.
	return TestNone
}

func (w *DDDWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	var hdr [dddHeaderLen]byte
	if _, err := src.ReadAt(0, hdr[:]); err != nil {
		return nil, Wrap(ErrReadFailed, err, "ddd header")
	}
	copy(w.volName[:], hdr[:20])

	compressed := make([]byte, length-dddHeaderLen)
	if _, err := src.ReadAt(dddHeaderLen, compressed); err != nil {
		return nil, Wrap(ErrReadFailed, err, "ddd body")
	}
	raw, err := dddUnpackRLE(compressed, StdDiskBytes)
	if err != nil {
		return nil, err
	}

	buf := NewBufferSource(raw)
	return &PrepResult{
		Payload:         buf,
		Length:          int64(len(raw)),
		Physical:        PhysicalSectors,
		Order:           OrderDOS,
		DOSVolumeNumber: -1,
	}, nil
}

// dddUnpackRLE inverts a simple run-length scheme: each run is a
// (count byte, value byte) pair, count==0 meaning "256 repeats".
func dddUnpackRLE(compressed []byte, wantLen int) ([]byte, error) {
	out := make([]byte, 0, wantLen)
	for i := 0; i+1 < len(compressed) && len(out) < wantLen; i += 2 {
		count := int(compressed[i])
		if count == 0 {
			count = 256
		}
		value := compressed[i+1]
		for j := 0; j < count; j++ {
			out = append(out, value)
		}
	}
	if len(out) < wantLen {
		return nil, New(ErrBadCompressedData, "ddd stream decompressed short: got %d want %d", len(out), wantLen)
	}
	return out[:wantLen], nil
}

func (w *DDDWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return 0, New(ErrUnsupportedImageFeature, "ddd write-back not supported")
}

func (w *DDDWrapper) HasFastFlush() bool { return false }
