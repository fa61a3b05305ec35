package fs

import "github.com/eightbit-archive/diskimg"

// macpartDriver recognizes an Apple partition map (block 1 onward, each
// 512-byte entry signed "PM", spec.md §4.6's "MacPart" probe run first
// in fixed order since it can wrap any of the other filesystems). Like
// cffaDriver it only exposes the map; each partition is reopened as a
// sub-image and re-probed by its own driver.
type macpartDriver struct {
	di         *diskimg.DiskImage
	partitions []macpartEntry
}

type macpartEntry struct {
	name                   string
	partType               string
	startBlock, blockCount int
}

func probeMacPart(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() || di.NumBlocks() < 2 {
		return ProbeResult{}
	}
	first, err := di.ReadBlock(1)
	if err != nil {
		return ProbeResult{}
	}
	if first[0] != 'P' || first[1] != 'M' {
		return ProbeResult{}
	}
	mapEntries := int(first[4])<<24 | int(first[5])<<16 | int(first[6])<<8 | int(first[7])
	if mapEntries <= 0 || mapEntries > 64 {
		return ProbeResult{}
	}
	var partitions []macpartEntry
	for i := 1; i <= mapEntries && i < di.NumBlocks(); i++ {
		blk, err := di.ReadBlock(i)
		if err != nil {
			break
		}
		if blk[0] != 'P' || blk[1] != 'M' {
			break
		}
		startBlock := int(blk[8])<<24 | int(blk[9])<<16 | int(blk[10])<<8 | int(blk[11])
		blockCount := int(blk[12])<<24 | int(blk[13])<<16 | int(blk[14])<<8 | int(blk[15])
		name := cstring(blk[16:48])
		ptype := cstring(blk[48:80])
		partitions = append(partitions, macpartEntry{name: name, partType: ptype,
			startBlock: startBlock, blockCount: blockCount})
	}
	if len(partitions) == 0 {
		return ProbeResult{}
	}
	return ProbeResult{Matched: true, Driver: &macpartDriver{di: di, partitions: partitions},
		Order: diskimg.OrderProDOS, NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (d *macpartDriver) Format() Format              { return FormatMacPart }
func (d *macpartDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *macpartDriver) VolumeName() string           { return "" }

func (d *macpartDriver) List(pattern string) ([]FileEntry, error) {
	var out []FileEntry
	for _, p := range d.partitions {
		if !matchPattern(pattern, p.name) {
			continue
		}
		out = append(out, FileEntry{Name: p.name, TypeName: p.partType, SizeBytes: int64(p.blockCount) * 512})
	}
	return out, nil
}

func (d *macpartDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "open the partition as a sub-image instead")
}

func (d *macpartDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "macpart driver is read-only")
}

func (d *macpartDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "macpart driver is read-only")
}
