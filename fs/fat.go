package fs

import (
	"strings"

	"github.com/eightbit-archive/diskimg"
)

// fatDriver recognizes a FAT12/16 boot sector (0x55AA signature at
// offset 510) and enumerates the root directory, used for CFFA/MicroDrive
// cards formatted under a PC-compatible filesystem rather than ProDOS.
type fatDriver struct {
	di          *diskimg.DiskImage
	rootStart   int
	rootEntries int
	bytesPerSec int
}

func probeFAT(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() {
		return ProbeResult{}
	}
	boot, err := di.ReadBlock(0)
	if err != nil {
		return ProbeResult{}
	}
	if boot[0x1FE] != 0x55 || boot[0x1FF] != 0xAA {
		return ProbeResult{}
	}
	bytesPerSec := int(boot[0x0B]) | int(boot[0x0C])<<8
	secPerClus := int(boot[0x0D])
	reserved := int(boot[0x0E]) | int(boot[0x0F])<<8
	numFATs := int(boot[0x10])
	rootEntries := int(boot[0x11]) | int(boot[0x12])<<8
	fatSize := int(boot[0x16]) | int(boot[0x17])<<8
	if bytesPerSec == 0 || secPerClus == 0 || rootEntries == 0 {
		return ProbeResult{}
	}

	rootStart := reserved + numFATs*fatSize
	drv := &fatDriver{di: di, rootStart: rootStart, rootEntries: rootEntries, bytesPerSec: bytesPerSec}
	return ProbeResult{Matched: true, Driver: drv, Order: diskimg.OrderProDOS,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *fatDriver) Format() Format              { return FormatFAT }
func (d *fatDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *fatDriver) VolumeName() string           { return "" }

func (d *fatDriver) List(pattern string) ([]FileEntry, error) {
	entriesPerBlock := 512 / 32
	var out []FileEntry
	for i := 0; i < (d.rootEntries+entriesPerBlock-1)/entriesPerBlock; i++ {
		blockIdx := d.rootStart*512/512 + i
		blk, err := d.di.ReadBlock(blockIdx)
		if err != nil {
			return out, err
		}
		for e := 0; e < entriesPerBlock; e++ {
			pos := e * 32
			entry := blk[pos : pos+32]
			if entry[0] == 0x00 || entry[0] == 0xE5 {
				continue
			}
			if entry[11] == 0x0F {
				continue // long-name fragment
			}
			name := strings.TrimRight(string(entry[0:8]), " ")
			ext := strings.TrimRight(string(entry[8:11]), " ")
			if ext != "" {
				name += "." + ext
			}
			if !matchPattern(pattern, name) {
				continue
			}
			size := int(entry[28]) | int(entry[29])<<8 | int(entry[30])<<16 | int(entry[31])<<24
			out = append(out, FileEntry{Name: name, TypeName: ext, SizeBytes: int64(size),
				Locked: entry[11]&0x01 != 0})
		}
	}
	return out, nil
}

func (d *fatDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "fat cluster-chain read not supported")
}

func (d *fatDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "fat driver is read-only")
}

func (d *fatDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "fat driver is read-only")
}
