package diskimg

// UnadornedWrapper is the trivial wrapper: the payload is the whole
// source (spec.md §4.3 "Unadorned"). It is also the fallback any
// unrecognized-by-header file falls through to, with ordering inferred
// from file extension (spec.md §6: "raw payload, ordering inferred from
// extension").
type UnadornedWrapper struct {
	order Order
}

func (w *UnadornedWrapper) Format() FileFormat { return FileFormatUnadorned }

func (w *UnadornedWrapper) Test(src ByteSource, length int64) TestResult {
	if length <= 0 {
		return TestNone
	}
	return TestMatch
}

func (w *UnadornedWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	if length == 0 {
		return nil, New(ErrUnrecognizedFileFmt, "zero-length source")
	}
	physical := PhysicalSectors
	order := w.order
	if order == OrderUnknown {
		order = OrderDOS
	}
	if length == int64(DiskNibbleLength) {
		physical = PhysicalNib525_6656
		order = OrderPhysical
	}
	return &PrepResult{
		Payload:         src,
		Length:          length,
		Physical:        physical,
		Order:           order,
		DOSVolumeNumber: -1,
	}, nil
}

func (w *UnadornedWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return payloadLen, nil
}

func (w *UnadornedWrapper) HasFastFlush() bool { return true }

// WithExtensionOrder lets Open tell the unadorned wrapper what ordering
// the filename extension implies (.do => DOS, .po => ProDOS).
func (w *UnadornedWrapper) WithExtensionOrder(o Order) *UnadornedWrapper {
	w.order = o
	return w
}

// OrderFromExtension implements spec.md §6's ".do/.po/.d13/..." ordering
// inference.
func OrderFromExtension(filename string) Order {
	switch extOf(filename) {
	case ".po":
		return OrderProDOS
	case ".do", ".d13":
		return OrderDOS
	case ".dc6":
		return OrderDOS
	case ".img", ".hdv", ".raw", ".iso":
		return OrderProDOS
	case ".nib":
		return OrderPhysical
	}
	return OrderUnknown
}
