package fs

import "github.com/eightbit-archive/diskimg"

// unidosDriver recognizes a UNIDOS volume: two independent DOS 3.3
// volumes packed as 32-sectors-per-track halves (spec.md §4.4's "32
// sectors/track" geometry, §4.6 "UNIDOS(wide 400K×2)"). It delegates
// enumeration to an inner dos3x-style VTOC read at track 17 of the
// first half only; the second half's volume is not listed. Unlike
// ozdosDriver the two halves are NOT sector-paired, each
// occupies a contiguous half of the track's 32 sectors.
type unidosDriver struct {
	di   *diskimg.DiskImage
	half int
}

func probeUNIDOS(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if di.NumSectors() != 32 {
		return ProbeResult{}
	}
	sector, err := di.ReadTrackSector(17, 0, diskimg.OrderDOS)
	if err != nil {
		return ProbeResult{}
	}
	if sector[6] == 0 && sector[3] == 0 {
		return ProbeResult{}
	}
	drv := &unidosDriver{di: di, half: 0}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: 16}
}

func (d *unidosDriver) Format() Format              { return FormatUNIDOS }
func (d *unidosDriver) RequiredOrder() diskimg.Order { return diskimg.OrderDOS }
func (d *unidosDriver) VolumeName() string           { return "" }

func (d *unidosDriver) List(pattern string) ([]FileEntry, error) {
	inner := &dos3xDriver{di: d.di, format: FormatDOS33, fsOrder: diskimg.OrderDOS}
	vtoc, err := d.di.ReadTrackSector(17, 0, diskimg.OrderDOS)
	if err != nil {
		return nil, err
	}
	inner.catTrack, inner.catSect = int(vtoc[1]), int(vtoc[2])
	return inner.List(pattern)
}

func (d *unidosDriver) ReadFile(entry FileEntry) ([]byte, error) {
	inner := &dos3xDriver{di: d.di, format: FormatDOS33, fsOrder: diskimg.OrderDOS}
	return inner.ReadFile(entry)
}

func (d *unidosDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "unidos driver is read-only")
}

func (d *unidosDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "unidos driver is read-only")
}
