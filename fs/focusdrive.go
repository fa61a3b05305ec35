package fs

import "github.com/eightbit-archive/diskimg"

// focusdriveDriver recognizes a FocusDrive partition descriptor: like
// microdriveDriver a single volume record, but at block 1 rather than
// block 0 and signed "FD" rather than "MD" (spec.md §4.6 fixed probe
// order runs this right after MicroDrive).
type focusdriveDriver struct {
	di         *diskimg.DiskImage
	volName    string
	startBlock int
	blockCount int
}

func probeFocusDrive(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() || di.NumBlocks() < 3 {
		return ProbeResult{}
	}
	blk, err := di.ReadBlock(1)
	if err != nil {
		return ProbeResult{}
	}
	if blk[0] != 'F' || blk[1] != 'D' {
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
	drv := &focusdriveDriver{di: di, volName: name, startBlock: startBlock, blockCount: blockCount}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderProDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *focusdriveDriver) Format() Format              { return FormatFocusDrive }
func (d *focusdriveDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *focusdriveDriver) VolumeName() string           { return d.volName }

func (d *focusdriveDriver) List(pattern string) ([]FileEntry, error) {
	if !matchPattern(pattern, d.volName) {
		return nil, nil
	}
	return []FileEntry{{Name: d.volName, TypeName: "VOL", SizeBytes: int64(d.blockCount) * 512}}, nil
}

func (d *focusdriveDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "open the partition as a sub-image instead")
}

func (d *focusdriveDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "focusdrive driver is read-only")
}

func (d *focusdriveDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "focusdrive driver is read-only")
}
