package fs

import "github.com/eightbit-archive/diskimg"

// probeOrder is the fixed sequence spec.md §4.6 mandates, designed to
// resolve overlap between formats that would otherwise both claim a
// given image (e.g. a CFFA partition map looks block-addressable the
// same way a bare ProDOS volume does).
var probeOrder = []func(*diskimg.DiskImage, bool) ProbeResult{
	probeMacPart,
	probeMicroDrive,
	probeFocusDrive,
	probeCFFA,
	probeFAT,
	probeDOS3x,
	probeUNIDOS,
	probeOzDOS,
	probeProDOS,
	probePascal,
	probeCPM,
	probeRDOS,
	probeHFS,
}

// Probe runs the fixed probe order over di and returns the first match
// (spec.md §4.6). leniency relaxes internal-consistency checks, used by
// FormatOverride re-verification (spec.md §4.7).
func Probe(di *diskimg.DiskImage, leniency bool) (ProbeResult, error) {
	for _, probe := range probeOrder {
		r := probe(di, leniency)
		if r.Matched {
			return r, nil
		}
	}
	return ProbeResult{}, diskimg.New(diskimg.ErrFilesystemNotFound, "no filesystem probe matched")
}

// ProbeNamed re-runs a single named probe with leniency enabled, for
// FormatOverride (spec.md §4.7): "the override must re-run the
// corresponding probe with leniency enabled".
func ProbeNamed(di *diskimg.DiskImage, format Format, order diskimg.Order) (ProbeResult, error) {
	probe, ok := probeByFormat[format]
	if !ok {
		return ProbeResult{}, diskimg.New(diskimg.ErrUnsupportedFSFmt, "no probe for format %s", format)
	}
	r := probe(di, true)
	if !r.Matched {
		return ProbeResult{}, diskimg.New(diskimg.ErrFilesystemNotFound, "override probe for %s rejected image", format)
	}
	if order != diskimg.OrderUnknown && r.Order != order {
		return ProbeResult{}, diskimg.New(diskimg.ErrBadOrdering,
			"override requested order %s but %s requires %s", order, format, r.Order)
	}
	return r, nil
}

// ProbeOrGeneric runs Probe and, on ErrFilesystemNotFound, falls back to
// NewGeneric under fallbackOrder rather than failing outright — used by
// callers (cmd/diskimg) that want to inspect raw sectors/blocks on an
// image with no recognized catalog.
func ProbeOrGeneric(di *diskimg.DiskImage, fallbackOrder diskimg.Order) (ProbeResult, error) {
	r, err := Probe(di, false)
	if err == nil {
		return r, nil
	}
	if diskimg.CodeOf(err) != diskimg.ErrFilesystemNotFound {
		return ProbeResult{}, err
	}
	return ProbeResult{Matched: true, Driver: NewGeneric(di, fallbackOrder), Order: fallbackOrder,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}, nil
}

var probeByFormat = map[Format]func(*diskimg.DiskImage, bool) ProbeResult{
	FormatDOS33:      probeDOS3x,
	FormatDOS32:      probeDOS3x,
	FormatProDOS:     probeProDOS,
	FormatPascal:     probePascal,
	FormatCPM:        probeCPM,
	FormatRDOS3:      probeRDOS,
	FormatRDOS32:     probeRDOS,
	FormatRDOS33:     probeRDOS,
	FormatHFS:        probeHFS,
	FormatFAT:        probeFAT,
	FormatUNIDOS:     probeUNIDOS,
	FormatOzDOS:      probeOzDOS,
	FormatCFFA:       probeCFFA,
	FormatMacPart:    probeMacPart,
	FormatMicroDrive: probeMicroDrive,
	FormatFocusDrive: probeFocusDrive,
}
