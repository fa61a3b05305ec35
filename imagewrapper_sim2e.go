package diskimg

// Sim2eHDVWrapper implements Sim //e's .hdv hard-disk container: no
// header at all, ProDOS-block order, sized in exact 512-byte multiples
// (spec.md §4.3 "Sim//e HDV").
type Sim2eHDVWrapper struct{}

func (w *Sim2eHDVWrapper) Format() FileFormat { return FileFormatSim2eHDV }

func (w *Sim2eHDVWrapper) Test(src ByteSource, length int64) TestResult {
	if length <= 0 || length%BytesPerBlock != 0 {
		return TestNone
	}
	if length < BytesPerBlock*2 {
		return TestNone
	}
	// Headerless: only ever matched by extension hint, never by content,
	// to avoid swallowing every block-multiple unadorned image.
	return TestNone
}

func (w *Sim2eHDVWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	if length%BytesPerBlock != 0 {
		return nil, New(ErrOddLength, "hdv length %d not block-aligned", length)
	}
	return &PrepResult{
		Payload:         src,
		Length:          length,
		Physical:        PhysicalSectors,
		Order:           OrderProDOS,
		DOSVolumeNumber: -1,
	}, nil
}

func (w *Sim2eHDVWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return payloadLen, nil
}

func (w *Sim2eHDVWrapper) HasFastFlush() bool { return true }
