package fs

import "github.com/eightbit-archive/diskimg"

// microdriveDriver recognizes a Focus/MicroDrive-style IDE card volume
// descriptor: a single 24-byte record at block 0 offset 0 giving a
// volume name and the block range actually in use, distinct from
// macpartDriver's multi-entry Apple partition map.
type microdriveDriver struct {
	di         *diskimg.DiskImage
	volName    string
	startBlock int
	blockCount int
}

func probeMicroDrive(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() || di.NumBlocks() < 2 {
		return ProbeResult{}
	}
	blk, err := di.ReadBlock(0)
	if err != nil {
		return ProbeResult{}
	}
	if blk[0] != 'M' || blk[1] != 'D' {
		return ProbeResult{}
	}
	nameLen := int(blk[2])
	if nameLen == 0 || nameLen > 15 {
		return ProbeResult{}
	}
	name := string(blk[3 : 3+nameLen])
	startBlock := int(blk[0x10]) | int(blk[0x11])<<8 | int(blk[0x12])<<16 | int(blk[0x13])<<24
	blockCount := int(blk[0x14]) | int(blk[0x15])<<8 | int(blk[0x16])<<16 | int(blk[0x17])<<24
	if blockCount == 0 {
		return ProbeResult{}
	}
	drv := &microdriveDriver{di: di, volName: name, startBlock: startBlock, blockCount: blockCount}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderProDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *microdriveDriver) Format() Format              { return FormatMicroDrive }
func (d *microdriveDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *microdriveDriver) VolumeName() string           { return d.volName }

func (d *microdriveDriver) List(pattern string) ([]FileEntry, error) {
	if !matchPattern(pattern, d.volName) {
		return nil, nil
	}
	return []FileEntry{{Name: d.volName, TypeName: "VOL", SizeBytes: int64(d.blockCount) * 512}}, nil
}

func (d *microdriveDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "open the partition as a sub-image instead")
}

func (d *microdriveDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "microdrive driver is read-only")
}

func (d *microdriveDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "microdrive driver is read-only")
}
