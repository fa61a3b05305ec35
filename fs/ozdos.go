package fs

import "github.com/eightbit-archive/diskimg"

// ozdosDriver recognizes OzDOS: two DOS 3.3 volumes sharing a
// 32-sector-per-track payload via even/odd sector pairing rather than
// UNIDOS's contiguous halves (spec.md §4.4 "Sector pairing (OzDOS)").
type ozdosDriver struct {
	di *diskimg.DiskImage
}

func probeOzDOS(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if di.NumSectors() != 32 {
		return ProbeResult{}
	}
	sector, err := di.ReadTrackSector(17, 0, diskimg.OrderDOS)
	if err != nil {
		return ProbeResult{}
	}
	if sector[0x35] != 16 {
		return ProbeResult{}
	}
	drv := &ozdosDriver{di: di}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: 16}
}

func (d *ozdosDriver) Format() Format              { return FormatOzDOS }
func (d *ozdosDriver) RequiredOrder() diskimg.Order { return diskimg.OrderDOS }
func (d *ozdosDriver) VolumeName() string           { return "" }

func (d *ozdosDriver) List(pattern string) ([]FileEntry, error) {
	inner := &dos3xDriver{di: d.di, format: FormatDOS33, fsOrder: diskimg.OrderDOS}
	vtoc, err := d.di.ReadTrackSector(17, 0, diskimg.OrderDOS)
	if err != nil {
		return nil, err
	}
	inner.catTrack, inner.catSect = int(vtoc[1]), int(vtoc[2])
	return inner.List(pattern)
}

func (d *ozdosDriver) ReadFile(entry FileEntry) ([]byte, error) {
	inner := &dos3xDriver{di: d.di, format: FormatDOS33, fsOrder: diskimg.OrderDOS}
	return inner.ReadFile(entry)
}

func (d *ozdosDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "ozdos driver is read-only")
}

func (d *ozdosDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "ozdos driver is read-only")
}
