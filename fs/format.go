package fs

import "github.com/eightbit-archive/diskimg"

// FormatNew initializes a blank volume on di and returns a driver over it,
// used by the CLI's "format" verb (spec.md §6). Only the two read/write
// drivers can be freshly initialized; the enumerate-only formats have no
// writer to build a catalog with.
func FormatNew(di *diskimg.DiskImage, format Format, volName string) (FilesystemDriver, error) {
	switch format {
	case FormatDOS33, FormatDOS32:
		return formatDOS3x(di, format, volName)
	case FormatProDOS:
		return formatProDOS(di, volName)
	default:
		return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "%s cannot be freshly formatted", format)
	}
}

// formatDOS3x writes a blank VTOC at track 17 sector 0 plus an empty
// chain of 15 catalog sectors (track 17 sectors 1-15), all data tracks
// marked free except track 17 itself (spec.md's DOS3x layout, same
// fields dos3xDriver.probeDOS3x/allocate read back).
func formatDOS3x(di *diskimg.DiskImage, format Format, volName string) (FilesystemDriver, error) {
	if di.IsReadOnly() {
		return nil, diskimg.AsError(diskimg.ErrWriteProtected)
	}
	tracks := di.NumTracks()
	sectors := di.NumSectors()
	if sectors != 16 && sectors != 13 {
		return nil, diskimg.New(diskimg.ErrInvalidCreateReq, "DOS 3.x needs 13 or 16 sectors/track, got %d", sectors)
	}

	var vtoc [256]byte
	vtoc[1] = 17 // first catalog sector track
	vtoc[2] = 15 // first catalog sector number
	vtoc[3] = 3  // DOS release
	if len(volName) > 0 {
		vtoc[6] = volName[0]
	} else {
		vtoc[6] = 254
	}
	vtoc[0x27] = 122 // max T/S pairs per list sector
	vtoc[0x30] = 18  // last track bitmap allocated
	vtoc[0x31] = 1   // allocation direction
	vtoc[0x34] = byte(tracks)
	vtoc[0x35] = byte(sectors)
	vtoc[0x36] = 0
	vtoc[0x37] = 1

	for t := 0; t < tracks; t++ {
		offset := 0x38 + t*4
		for s := 0; s < sectors; s++ {
			bit := byte(1 << uint(s&7))
			idx := offset
			if s < 8 {
				idx++
			}
			if t == 17 {
				continue // track 17 starts fully allocated (VTOC + catalog)
			}
			vtoc[idx] |= bit
		}
	}
	if err := di.WriteTrackSector(17, 0, diskimg.OrderDOS, vtoc); err != nil {
		return nil, err
	}

	for s := 1; s <= 15; s++ {
		var cat [256]byte
		if s > 1 {
			cat[1] = 17
			cat[2] = byte(s - 1)
		}
		if err := di.WriteTrackSector(17, s, diskimg.OrderDOS, cat); err != nil {
			return nil, err
		}
	}

	return &dos3xDriver{di: di, format: format, volumeID: vtoc[6], catTrack: 17, catSect: 15, fsOrder: diskimg.OrderDOS}, nil
}

// formatProDOS writes blocks 0-1 (zeroed boot loader), the volume
// directory key block at block 2 with a VDH (spec.md's ProDOS fields,
// same offsets prodosDriver.probeProDOS/readVDH read back), and an
// initial bitmap at block 6 marking blocks 0-6 used.
func formatProDOS(di *diskimg.DiskImage, volName string) (FilesystemDriver, error) {
	if di.IsReadOnly() {
		return nil, diskimg.AsError(diskimg.ErrWriteProtected)
	}
	total := di.NumBlocks()
	if total < 8 {
		return nil, diskimg.New(diskimg.ErrInvalidCreateReq, "ProDOS volume needs at least 8 blocks")
	}
	upper := volName
	if len(upper) > 15 {
		upper = upper[:15]
	}

	var boot [512]byte
	if err := di.WriteBlock(0, boot); err != nil {
		return nil, err
	}
	if err := di.WriteBlock(1, boot); err != nil {
		return nil, err
	}

	var dir [512]byte
	dir[0], dir[1] = 0, 0 // prev key block pointer
	dir[2], dir[3] = 0, 0 // next directory block pointer
	vdh := dir[4 : 4+prodosEntrySize]
	vdh[0] = 0xF0 | byte(len(upper)) // storage_type=0xF (volume header), name_length
	copy(vdh[1:], upper)
	vdh[0x1F] = prodosEntrySize
	vdh[0x20] = prodosEntriesPerBlock
	vdh[0x21], vdh[0x22] = 0, 0 // file_count
	vdh[0x23] = 6               // bitmap block low byte
	vdh[0x24] = 0               // bitmap block high byte
	vdh[0x25] = byte(total & 0xff)
	vdh[0x26] = byte(total >> 8)
	if err := di.WriteBlock(2, dir); err != nil {
		return nil, err
	}
	for b := 3; b <= 5; b++ {
		var blk [512]byte
		if err := di.WriteBlock(b, blk); err != nil {
			return nil, err
		}
	}

	bitmapBlocks := (total + 4095) / 4096
	for i := 0; i < bitmapBlocks; i++ {
		var bmp [512]byte
		for j := range bmp {
			bmp[j] = 0xff
		}
		if err := di.WriteBlock(6+i, bmp); err != nil {
			return nil, err
		}
	}
	reserved, err := prodosAllocateReserved(di, 6, 0, 7)
	if err != nil {
		return nil, err
	}
	_ = reserved

	return &prodosDriver{di: di, volName: upper, totalBlks: total, bitmapBlk: 6}, nil
}

// prodosAllocateReserved clears the free-bits for blocks [start, start+count) in
// the bitmap starting at bitmapBlk, used once at format time to mark
// boot/VDH/bitmap blocks themselves as in use.
func prodosAllocateReserved(di *diskimg.DiskImage, bitmapBlk, start, count int) ([]int, error) {
	bitmap, err := di.ReadBlock(bitmapBlk)
	if err != nil {
		return nil, err
	}
	var marked []int
	for b := start; b < start+count; b++ {
		byteIdx := b / 8
		bit := 7 - uint(b%8)
		bitmap[byteIdx] &^= 1 << bit
		marked = append(marked, b)
	}
	return marked, di.WriteBlock(bitmapBlk, bitmap)
}
