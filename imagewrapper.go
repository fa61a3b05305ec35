package diskimg

// FileFormat identifies the per-format adorned container wrapping the
// unadorned payload (spec.md §3 file_format).
type FileFormat int

const (
	FileFormatUnadorned FileFormat = iota
	FileFormatTwoMG
	FileFormatDiskCopy42
	FileFormatSim2eHDV
	FileFormatTrackStar
	FileFormatFDI
	FileFormatNuFX
	FileFormatDDD
)

func (f FileFormat) String() string {
	switch f {
	case FileFormatTwoMG:
		return "2MG"
	case FileFormatDiskCopy42:
		return "DiskCopy 4.2"
	case FileFormatSim2eHDV:
		return "Sim//e HDV"
	case FileFormatTrackStar:
		return "TrackStar"
	case FileFormatFDI:
		return "FDI"
	case FileFormatNuFX:
		return "NuFX"
	case FileFormatDDD:
		return "DDD"
	}
	return "Unadorned"
}

// PhysicalFormat identifies how the unadorned payload is laid out
// (spec.md §3 physical_format).
type PhysicalFormat int

const (
	PhysicalSectors PhysicalFormat = iota
	PhysicalNib525_6656
	PhysicalNib525_6384
	PhysicalNib525Var
)

func (p PhysicalFormat) String() string {
	switch p {
	case PhysicalNib525_6656:
		return "5.25in nibble (6656/track)"
	case PhysicalNib525_6384:
		return "5.25in nibble (6384/track)"
	case PhysicalNib525Var:
		return "5.25in nibble (variable length)"
	}
	return "Sectors"
}

// TestResult is returned by an ImageWrapper's Test method.
type TestResult int

const (
	TestNone TestResult = iota
	TestMatch
	TestDefinitelyThisButCorrupt
	TestIsFileArchive
)

// PrepResult is what ImageWrapper.Prep hands back to DiskImage.Open:
// everything needed to stand up a PhysicalDecoder over the unadorned
// payload (spec.md §4.3).
type PrepResult struct {
	Payload         ByteSource
	Length          int64
	Physical        PhysicalFormat
	Order           Order
	DOSVolumeNumber int // -1 if unset
	BadBlocks       map[int]bool
}

// ImageWrapper is the contract every per-format adorned container
// implements (spec.md §4.3).
type ImageWrapper interface {
	// Test inspects src (of the given wrapped length) and reports
	// whether it recognizes the format.
	Test(src ByteSource, length int64) TestResult

	// Prep parses the header and exposes the unadorned payload.
	Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error)

	// Flush rewrites dst's header/framing around payload, returning the
	// new total wrapped length.
	Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error)

	HasFastFlush() bool

	Format() FileFormat
}

// variableTrackWrapper is implemented by wrappers whose nibble tracks
// have per-track lengths and offsets (TrackStar, FDI; spec.md §4.3).
type variableTrackWrapper interface {
	NibbleTrackLength(track int) int
	NibbleTrackOffset(track int) int64
}

// imageWrapperRegistry lists the wrappers tried, in extension-hint order
// then content order, mirroring CiderPress's DiskImg::OpenImage probing
// (original_source/diskimg/DiskImg.cpp).
func imageWrapperRegistry() []ImageWrapper {
	return []ImageWrapper{
		&TwoMGWrapper{},
		&DiskCopy42Wrapper{},
		&Sim2eHDVWrapper{},
		&TrackStarWrapper{},
		&FDIWrapper{},
		&NuFXWrapper{},
		&DDDWrapper{},
		&UnadornedWrapper{},
	}
}

// extensionHint maps a filename extension to the wrapper format it most
// likely carries, consulted before content-sniffing (spec.md §4.9 Open
// step (c): "test image wrappers in extension order first then content
// order").
func extensionHint(filename string) FileFormat {
	ext := extOf(filename)
	switch ext {
	case ".2mg", ".2img":
		return FileFormatTwoMG
	case ".dc", ".dc42", ".image":
		return FileFormatDiskCopy42
	case ".hdv":
		return FileFormatSim2eHDV
	case ".app":
		return FileFormatTrackStar
	case ".fdi":
		return FileFormatFDI
	case ".shk", ".sdk":
		return FileFormatNuFX
	case ".ddd":
		return FileFormatDDD
	}
	return FileFormatUnadorned
}

func extOf(filename string) string {
	dot := -1
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			dot = i
			break
		}
		if filename[i] == '/' {
			break
		}
	}
	if dot < 0 {
		return ""
	}
	lower := make([]byte, len(filename)-dot)
	for i, c := range []byte(filename[dot:]) {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	return string(lower)
}
