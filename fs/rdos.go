package fs

import (
	"strings"

	"github.com/eightbit-archive/diskimg"
)

// rdosDriver reads an RDOS 3/3.2/3.3 catalog: track 1 holds an 11-sector
// run of 32-byte entries signed with a high-bit "RDOS " (plus a version
// digit for 3.2/3.3) signature, ported from the teacher's
// RDOS_SIGNATURE/RDOS_SIGNATURE_32/RDOS_SIGNATURE_33 constants
// (disk/diskimagerdos.go). Read-only: RDOS's track-relative addressing
// scheme for writes is not replicated here.
type rdosDriver struct {
	di      *diskimg.DiskImage
	variant Format
}

const (
	rdosCatalogTrack  = 1
	rdosCatalogLength = 0xB
	rdosEntryLength   = 0x20
	rdosNameLength    = 0x18
)

var rdosSignature = []byte{'R' + 0x80, 'D' + 0x80, 'O' + 0x80, 'S' + 0x80, ' ' + 0x80}

func probeRDOS(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasSectors() || di.NumSectors() != 16 {
		return ProbeResult{}
	}
	for _, order := range []diskimg.Order{diskimg.OrderPhysical, diskimg.OrderProDOS} {
		sector, err := di.ReadTrackSector(rdosCatalogTrack, 0, order)
		if err != nil {
			continue
		}
		if !hasPrefix(sector[:], rdosSignature) {
			continue
		}
		variant := FormatRDOS3
		if len(sector) > 5 {
			switch sector[5] {
			case '2' + 0x80:
				variant = FormatRDOS32
			case '3' + 0x80:
				variant = FormatRDOS33
			}
		}
		drv := &rdosDriver{di: di, variant: variant}
		return ProbeResult{Matched: true, Driver: drv, Order: order,
			NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
	}
	return ProbeResult{}
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}

func (d *rdosDriver) Format() Format              { return d.variant }
func (d *rdosDriver) RequiredOrder() diskimg.Order { return diskimg.OrderPhysical }
func (d *rdosDriver) VolumeName() string           { return "" }

type rdosEntryRef struct {
	startSector, sectorCount int
}

func (d *rdosDriver) List(pattern string) ([]FileEntry, error) {
	var out []FileEntry
	for s := 0; s < rdosCatalogLength; s++ {
		sector, err := d.di.ReadTrackSector(rdosCatalogTrack, s, diskimg.OrderPhysical)
		if err != nil {
			return out, err
		}
		for e := 0; e < 256/rdosEntryLength; e++ {
			pos := e * rdosEntryLength
			entry := sector[pos : pos+rdosEntryLength]
			if entry[0] == 0 {
				continue
			}
			nameBytes := make([]byte, rdosNameLength)
			for i, c := range entry[:rdosNameLength] {
				nameBytes[i] = c &^ 0x80
			}
			name := strings.TrimRight(string(nameBytes), " ")
			if name == "" || !matchPattern(pattern, name) {
				continue
			}
			startSector := int(entry[0x1A]) + 256*int(entry[0x1B])
			sectorCount := int(entry[0x1C]) + 256*int(entry[0x1D])
			out = append(out, FileEntry{
				Name:      name,
				TypeName:  "BIN",
				SizeBytes: int64(sectorCount) * 256,
				driverData: rdosEntryRef{startSector: startSector, sectorCount: sectorCount},
			})
		}
	}
	return out, nil
}

func (d *rdosDriver) ReadFile(entry FileEntry) ([]byte, error) {
	ref, ok := entry.driverData.(rdosEntryRef)
	if !ok {
		return nil, diskimg.New(diskimg.ErrInvalidArg, "entry not from this driver")
	}
	spt := d.di.NumSectors()
	var out []byte
	for i := 0; i < ref.sectorCount; i++ {
		abs := ref.startSector + i
		track := abs / spt
		sector := abs % spt
		data, err := d.di.ReadTrackSector(track, sector, diskimg.OrderPhysical)
		if err != nil {
			return out, err
		}
		out = append(out, data[:]...)
	}
	return out, nil
}

func (d *rdosDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "rdos driver is read-only")
}

func (d *rdosDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "rdos driver is read-only")
}
