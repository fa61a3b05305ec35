package fs

import "github.com/eightbit-archive/diskimg"

// cffaDriver recognizes a CFFA4/CFFA8 partition map: block 0 holds up
// to 8 or 16 partition descriptors (4-byte start block, 4-byte block
// count, little-endian), each normally holding its own ProDOS or DOS
// volume. This driver only exposes the map itself; callers re-open each
// partition as a sub-image (diskimg.DiskImage.OpenSubImage) and probe it
// independently.
type cffaDriver struct {
	di         *diskimg.DiskImage
	partitions []cffaPartition
}

type cffaPartition struct {
	startBlock, blockCount int
}

func probeCFFA(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() || di.NumBlocks() < 100 {
		return ProbeResult{}
	}
	blk, err := di.ReadBlock(0)
	if err != nil {
		return ProbeResult{}
	}
	if blk[0] != 'C' || blk[1] != 'F' || blk[2] != 'F' || blk[3] != 'A' {
		return ProbeResult{}
	}
	var partitions []cffaPartition
	for i := 0; i < 16; i++ {
		off := 8 + i*8
		if off+8 > 512 {
			break
		}
		start := int(blk[off]) | int(blk[off+1])<<8 | int(blk[off+2])<<16 | int(blk[off+3])<<24
		count := int(blk[off+4]) | int(blk[off+5])<<8 | int(blk[off+6])<<16 | int(blk[off+7])<<24
		if count == 0 {
			continue
		}
		partitions = append(partitions, cffaPartition{startBlock: start, blockCount: count})
	}
	if len(partitions) == 0 {
		return ProbeResult{}
	}
	return ProbeResult{Matched: true, Driver: &cffaDriver{di: di, partitions: partitions},
		Order: diskimg.OrderProDOS, NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *cffaDriver) Format() Format              { return FormatCFFA }
func (d *cffaDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *cffaDriver) VolumeName() string           { return "" }

func (d *cffaDriver) List(pattern string) ([]FileEntry, error) {
	var out []FileEntry
	for i, p := range d.partitions {
		name := partitionName(i)
		if !matchPattern(pattern, name) {
			continue
		}
		out = append(out, FileEntry{Name: name, TypeName: "PART", SizeBytes: int64(p.blockCount) * 512})
	}
	return out, nil
}

func partitionName(i int) string {
	digits := "0123456789ABCDEF"
	return "PARTITION" + string(digits[i%16])
}

func (d *cffaDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "open the partition as a sub-image instead")
}

func (d *cffaDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "cffa driver is read-only")
}

func (d *cffaDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "cffa driver is read-only")
}
