package fs

import (
	"strings"

	"github.com/eightbit-archive/diskimg"
)

// pascalDriver reads the UCSD Pascal volume directory (block 2, a
// 26-byte header entry followed by per-file entries of the same
// length), adapted from the teacher's IsPascal/PascalVolumeHeader
// (disk/diskimagepas.go). Read-only: Pascal's contiguous-block file
// model and free-list bookkeeping are out of scope for this pass.
type pascalDriver struct {
	di      *diskimg.DiskImage
	volName string
}

const pascalEntryLen = 26

func probePascal(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasBlocks() {
		return ProbeResult{}
	}
	blk, err := di.ReadBlock(2)
	if err != nil {
		return ProbeResult{}
	}
	if blk[0] != 0 || blk[1] != 0 || blk[4] != 0 || blk[5] != 0 {
		return ProbeResult{}
	}
	nameLen := int(blk[6])
	if nameLen == 0 || nameLen > 7 {
		return ProbeResult{}
	}
	name := string(blk[7 : 7+nameLen])
	for _, c := range name {
		if c < 0x20 || c >= 0x7f || strings.ContainsRune("$=?,[#:", c) {
			return ProbeResult{}
		}
	}
	return ProbeResult{Matched: true, Driver: &pascalDriver{di: di, volName: name},
		Order: diskimg.OrderProDOS, NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func (d *pascalDriver) Format() Format              { return FormatPascal }
func (d *pascalDriver) RequiredOrder() diskimg.Order { return diskimg.OrderProDOS }
func (d *pascalDriver) VolumeName() string           { return d.volName }

type pascalEntryRef struct {
	startBlock, endBlock int
}

func (d *pascalDriver) List(pattern string) ([]FileEntry, error) {
	vol, err := d.di.ReadBlock(2)
	if err != nil {
		return nil, err
	}
	numFiles := int(vol[0x10]) + 256*int(vol[0x11])

	var out []FileEntry
	for i := 0; i < numFiles; i++ {
		offset := 26 + i*pascalEntryLen
		entry := vol[offset : offset+pascalEntryLen]
		start := int(entry[0]) + 256*int(entry[1])
		end := int(entry[2]) + 256*int(entry[3])
		kind := entry[4] & 0x0f
		nameLen := int(entry[5] & 0x0f)
		if nameLen == 0 || nameLen > 15 {
			continue
		}
		name := string(entry[6 : 6+nameLen])
		if !matchPattern(pattern, name) {
			continue
		}
		out = append(out, FileEntry{
			Name:      name,
			TypeName:  pascalTypeName(kind),
			SizeBytes: int64(end-start) * 512,
			driverData: pascalEntryRef{startBlock: start, endBlock: end},
		})
	}
	return out, nil
}

func (d *pascalDriver) ReadFile(entry FileEntry) ([]byte, error) {
	ref, ok := entry.driverData.(pascalEntryRef)
	if !ok {
		return nil, diskimg.New(diskimg.ErrInvalidArg, "entry not from this driver")
	}
	var out []byte
	for b := ref.startBlock; b < ref.endBlock; b++ {
		blk, err := d.di.ReadBlock(b)
		if err != nil {
			return out, err
		}
		out = append(out, blk[:]...)
	}
	return out, nil
}

func (d *pascalDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "pascal driver is read-only")
}

func (d *pascalDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "pascal driver is read-only")
}

func pascalTypeName(kind byte) string {
	names := map[byte]string{1: "BAD", 2: "PCD", 3: "PTX", 4: "INFO", 5: "DATA", 6: "GRAF", 7: "FOTO", 8: "SECD"}
	if n, ok := names[kind]; ok {
		return n
	}
	return "UNK"
}
