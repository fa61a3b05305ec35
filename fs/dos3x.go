package fs

import (
	"strings"

	"github.com/eightbit-archive/diskimg"
)

// dos3xDriver implements DOS 3.3 (16 sectors/track) and DOS 3.2 (13
// sectors/track) catalog/file access, adapted from the teacher's
// AppleDOSGetVTOC/AppleDOSGetCatalog/AppleDOSGetFileSectors family
// (disk/diskimageappledos.go).
type dos3xDriver struct {
	di       *diskimg.DiskImage
	format   Format
	volumeID byte
	catTrack int
	catSect  int
	fsOrder  diskimg.Order
}

var dos3xTypeNames = map[byte]string{
	0x00: "TXT", 0x01: "INT", 0x02: "BAS", 0x04: "BIN",
	0x08: "S", 0x10: "REL", 0x20: "A", 0x40: "B",
}

func probeDOS3x(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasSectors() {
		return ProbeResult{}
	}
	if di.NumSectors() != 16 && di.NumSectors() != 13 {
		return ProbeResult{}
	}
	for _, order := range []diskimg.Order{diskimg.OrderDOS, diskimg.OrderProDOS, diskimg.OrderPhysical} {
		vtoc, err := di.ReadTrackSector(17, 0, order)
		if err != nil {
			continue
		}
		tracks := int(vtoc[0x34])
		sectors := int(vtoc[0x35])
		if tracks != di.NumTracks() || sectors != di.NumSectors() {
			if !leniency {
				continue
			}
		}
		catTrack, catSect := int(vtoc[1]), int(vtoc[2])
		if catTrack == 0 && catSect == 0 {
			continue
		}

		drv := &dos3xDriver{di: di, volumeID: vtoc[6], catTrack: catTrack, catSect: catSect, fsOrder: order}
		drv.format = FormatDOS33
		if di.NumSectors() == 13 {
			drv.format = FormatDOS32
		}

		if _, err := drv.List("*"); err != nil && !leniency {
			continue
		}
		return ProbeResult{Matched: true, Driver: drv, Order: order,
			NumTracks: tracks, NumSectorsPerTrack: sectors}
	}
	return ProbeResult{}
}

// dehighbit strips the high bit DOS 3.3 sets on every catalog-entry
// character (including its 0xa0 space padding), per the teacher's
// PokeToAscii (disk/diskimageappledos.go).
func dehighbit(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c &^ 0x80
	}
	return string(out)
}

func (d *dos3xDriver) Format() Format              { return d.format }
func (d *dos3xDriver) RequiredOrder() diskimg.Order { return d.fsOrder }
func (d *dos3xDriver) VolumeName() string           { return "" }

type dos3xEntryRef struct {
	track, sector, offset int
}

func (d *dos3xDriver) List(pattern string) ([]FileEntry, error) {
	var out []FileEntry
	ct, cs := d.catTrack, d.catSect
	count := 0
	seen := map[int]bool{}

	for count < 105 {
		if seen[ct*100+cs] {
			break
		}
		seen[ct*100+cs] = true

		sector, err := d.di.ReadTrackSector(ct, cs, d.fsOrder)
		if err != nil {
			return out, err
		}

		for slot := 0; slot < 7 && count < 105; slot++ {
			pos := 0x0b + 35*slot
			entry := sector[pos : pos+35]
			if entry[0] == 0xff || entry[0] == 0x00 {
				count++
				continue
			}
			typeByte := entry[0x02] & 0x7f
			locked := entry[0x02]&0x80 != 0
			name := strings.TrimRight(dehighbit(entry[0x03:0x03+30]), " ")
			sizeSectors := int(entry[0x21]) + 256*int(entry[0x22])

			if matchPattern(pattern, name) {
				out = append(out, FileEntry{
					Name:      name,
					TypeName:  dos3xTypeNames[typeByte],
					SizeBytes: int64(sizeSectors) * 256,
					Locked:    locked,
					driverData: dos3xEntryRef{track: ct, sector: cs, offset: pos},
				})
			}
			count++
		}

		nextT, nextS := int(sector[1]), int(sector[2])
		if nextT == 0 {
			break
		}
		ct, cs = nextT, nextS
	}
	return out, nil
}

func (d *dos3xDriver) ReadFile(entry FileEntry) ([]byte, error) {
	ref, ok := entry.driverData.(dos3xEntryRef)
	if !ok {
		return nil, diskimg.New(diskimg.ErrInvalidArg, "entry not from this driver")
	}
	cat, err := d.di.ReadTrackSector(ref.track, ref.sector, d.fsOrder)
	if err != nil {
		return nil, err
	}
	fileEntry := cat[ref.offset : ref.offset+35]
	tsListTrack, tsListSector := int(fileEntry[0]), int(fileEntry[1])

	var out []byte
	seen := map[int]bool{}
	for tsListTrack != 0 || tsListSector != 0 {
		key := tsListTrack*100 + tsListSector
		if seen[key] {
			break
		}
		seen[key] = true

		list, err := d.di.ReadTrackSector(tsListTrack, tsListSector, d.fsOrder)
		if err != nil {
			return out, err
		}
		for ptr := 0x0c; ptr < 0x100; ptr += 2 {
			t, s := int(list[ptr]), int(list[ptr+1])
			if t == 0 && s == 0 {
				break
			}
			data, err := d.di.ReadTrackSector(t, s, d.fsOrder)
			if err != nil {
				return out, err
			}
			out = append(out, data[:]...)
		}
		tsListTrack, tsListSector = int(list[1]), int(list[2])
	}
	return out, nil
}

// WriteFile allocates a single T/S list sector and writes data into
// consecutive free sectors found via the VTOC bitmap, then appends a
// catalog entry. Large files needing multiple T/S list sectors are not
// supported (matches the teacher's single-sector-list assumption in
// AppleDOSGetFileSectors' iteration bound).
func (d *dos3xDriver) WriteFile(name string, data []byte) error {
	if d.di.IsReadOnly() {
		return diskimg.AsError(diskimg.ErrWriteProtected)
	}
	sectorsNeeded := (len(data) + 255) / 256
	if sectorsNeeded > 122 {
		return diskimg.New(diskimg.ErrUnsupportedImageFeature, "file needs multiple T/S list sectors")
	}

	vtoc, err := d.di.ReadTrackSector(17, 0, d.fsOrder)
	if err != nil {
		return err
	}
	free, err := d.allocate(vtoc, sectorsNeeded+1)
	if err != nil {
		return err
	}
	tsList := free[0]
	dataSlots := free[1:]

	var list [256]byte
	for i, slot := range dataSlots {
		list[0x0c+i*2] = byte(slot / 16)
		list[0x0c+i*2+1] = byte(slot % 16)
	}
	if err := d.di.WriteTrackSector(tsList/16, tsList%16, d.fsOrder, list); err != nil {
		return err
	}

	for i, slot := range dataSlots {
		var sec [256]byte
		start := i * 256
		end := start + 256
		if end > len(data) {
			end = len(data)
		}
		copy(sec[:], data[start:end])
		if err := d.di.WriteTrackSector(slot/16, slot%16, d.fsOrder, sec); err != nil {
			return err
		}
	}

	if err := d.appendCatalogEntry(name, tsList, sectorsNeeded+1); err != nil {
		return err
	}
	return d.markVTOC(vtoc, append([]int{tsList}, dataSlots...), false)
}

func (d *dos3xDriver) allocate(vtoc [256]byte, count int) ([]int, error) {
	tracks := int(vtoc[0x34])
	sectors := int(vtoc[0x35])
	var free []int
	for t := 0; t < tracks && len(free) < count; t++ {
		if t == 0 || t == 17 {
			continue
		}
		for s := 0; s < sectors && len(free) < count; s++ {
			offset := 0x38 + t*4
			if s < 8 {
				offset++
			}
			bit := byte(1 << uint(s&7))
			if vtoc[offset]&bit != 0 {
				free = append(free, t*16+s)
			}
		}
	}
	if len(free) < count {
		return nil, diskimg.New(diskimg.ErrTooBig, "not enough free sectors: need %d", count)
	}
	return free, nil
}

func (d *dos3xDriver) markVTOC(vtoc [256]byte, slots []int, free bool) error {
	for _, slot := range slots {
		t, s := slot/16, slot%16
		offset := 0x38 + t*4
		if s < 8 {
			offset++
		}
		bit := byte(1 << uint(s&7))
		if free {
			vtoc[offset] |= bit
		} else {
			vtoc[offset] &^= bit
		}
	}
	return d.di.WriteTrackSector(17, 0, d.fsOrder, vtoc)
}

func (d *dos3xDriver) appendCatalogEntry(name string, tsListSlot, totalSectors int) error {
	ct, cs := d.catTrack, d.catSect
	for {
		sector, err := d.di.ReadTrackSector(ct, cs, d.fsOrder)
		if err != nil {
			return err
		}
		for slot := 0; slot < 7; slot++ {
			pos := 0x0b + 35*slot
			if sector[pos] == 0xff || sector[pos] == 0x00 {
				upper := strings.ToUpper(name)
				if len(upper) > 30 {
					upper = upper[:30]
				}
				sector[pos] = byte(tsListSlot / 16)
				sector[pos+1] = byte(tsListSlot % 16)
				sector[pos+2] = 0x04 // BIN
				for i := 0; i < 30; i++ {
					if i < len(upper) {
						sector[pos+3+i] = upper[i] | 0x80
					} else {
						sector[pos+3+i] = 0xA0 // high-bit space padding
					}
				}
				sector[pos+0x21] = byte(totalSectors & 0xff)
				sector[pos+0x22] = byte(totalSectors >> 8)
				return d.di.WriteTrackSector(ct, cs, d.fsOrder, sector)
			}
		}
		nextT, nextS := int(sector[1]), int(sector[2])
		if nextT == 0 {
			return diskimg.New(diskimg.ErrTooBig, "catalog is full")
		}
		ct, cs = nextT, nextS
	}
}

func (d *dos3xDriver) DeleteFile(entry FileEntry) error {
	ref, ok := entry.driverData.(dos3xEntryRef)
	if !ok {
		return diskimg.New(diskimg.ErrInvalidArg, "entry not from this driver")
	}
	sector, err := d.di.ReadTrackSector(ref.track, ref.sector, d.fsOrder)
	if err != nil {
		return err
	}
	sector[ref.offset+0x20] = sector[ref.offset] // DOS marks deleted by saving original track in byte 0x20
	sector[ref.offset] = 0xff
	return d.di.WriteTrackSector(ref.track, ref.sector, d.fsOrder, sector)
}
