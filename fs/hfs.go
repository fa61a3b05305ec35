package fs

import "github.com/eightbit-archive/diskimg"

// hfsDriver recognizes an HFS Master Directory Block (signature "BD" at
// block 2, offset 0) and surfaces the volume name and sizing only. Full
// catalog B-tree traversal is out of scope for this pass; List reports
// the single root entry so callers can at least see the volume is HFS.
type hfsDriver struct {
	di      *diskimg.DiskImage
	volName string
	volSize int64
}

func probeHFS(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() {
		return ProbeResult{}
	}
	mdb, err := di.ReadBlock(2)
	if err != nil {
		return ProbeResult{}
	}
	if mdb[0] != 'B' || mdb[1] != 'D' {
		return ProbeResult{}
	}
	nameLen := int(mdb[0x24])
	if nameLen == 0 || nameLen > 27 {
		return ProbeResult{}
	}
	name := string(mdb[0x25 : 0x25+nameLen])
	allocBlocks := int(mdb[0x12])<<8 | int(mdb[0x13])
	blockSize := int(mdb[0x14])<<24 | int(mdb[0x15])<<16 | int(mdb[0x16])<<8 | int(mdb[0x17])

	drv := &hfsDriver{di: di, volName: name, volSize: int64(allocBlocks) * int64(blockSize)}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderProDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *hfsDriver) Format() Format              { return FormatHFS }
func (d *hfsDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *hfsDriver) VolumeName() string           { return d.volName }

func (d *hfsDriver) List(pattern string) ([]FileEntry, error) {
	if !matchPattern(pattern, d.volName) {
		return nil, nil
	}
	return []FileEntry{{Name: d.volName, TypeName: "VOL", SizeBytes: d.volSize}}, nil
}

func (d *hfsDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "hfs catalog traversal not supported")
}

func (d *hfsDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "hfs driver is read-only")
}

func (d *hfsDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "hfs driver is read-only")
}
