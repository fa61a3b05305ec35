package fs

import (
	"strings"

	"github.com/eightbit-archive/diskimg"
)

// cpmDriver reads a CP/M directory (track 3 on an Apple II 140K CP/M
// volume: 32-byte extent entries, user number in byte 0, 0xE5 marking a
// deleted entry), following the same probe/driver shape as rdosDriver
// and pascalDriver. Read-only: extent chaining across multiple entries
// for files over 16KB is summarized, not followed for writes.
type cpmDriver struct {
	di *diskimg.DiskImage
}

const (
	cpmDirTrack  = 3
	cpmEntryLen  = 32
	cpmDeletedID = 0xE5
)

func probeCPM(di *diskimg.DiskImage, leniency bool) ProbeResult {
	if !di.HasSectors() || di.NumSectors() != 16 {
		return ProbeResult{}
	}
	sector, err := di.ReadTrackSector(cpmDirTrack, 0, diskimg.OrderCPM)
	if err != nil {
		return ProbeResult{}
	}
	valid := 0
	for e := 0; e < 256/cpmEntryLen; e++ {
		pos := e * cpmEntryLen
		entry := sector[pos : pos+cpmEntryLen]
		if entry[0] == cpmDeletedID {
			continue
		}
		if entry[0] > 31 {
			continue
		}
		if !isCPMName(entry[1:9]) {
			continue
		}
		valid++
	}
	if valid == 0 && !leniency {
		return ProbeResult{}
	}
	return ProbeResult{Matched: true, Driver: &cpmDriver{di: di}, Order: diskimg.OrderCPM,
		NumTracks: di.NumTracks(), NumSectorsPerTrack: di.NumSectors()}
}

func isCPMName(b []byte) bool {
	for _, c := range b {
		ch := c & 0x7f
		if ch < 0x20 || ch >= 0x7f {
			return false
		}
	}
	return true
}

func (d *cpmDriver) Format() Format              { return FormatCPM }
func (d *cpmDriver) RequiredOrder() diskimg.Order { return diskimg.OrderCPM }
func (d *cpmDriver) VolumeName() string           { return "" }

type cpmEntryRef struct {
	track, sector, offset int
	recordCount           int
}

func (d *cpmDriver) List(pattern string) ([]FileEntry, error) {
	var out []FileEntry
	for s := 0; s < d.di.NumSectors(); s++ {
		sector, err := d.di.ReadTrackSector(cpmDirTrack, s, diskimg.OrderCPM)
		if err != nil {
			return out, err
		}
		for e := 0; e < 256/cpmEntryLen; e++ {
			pos := e * cpmEntryLen
			entry := sector[pos : pos+cpmEntryLen]
			if entry[0] == cpmDeletedID || entry[0] > 31 {
				continue
			}
			if !isCPMName(entry[1:9]) {
				continue
			}
			nameBytes := make([]byte, 8)
			for i, c := range entry[1:9] {
				nameBytes[i] = c & 0x7f
			}
			extBytes := make([]byte, 3)
			for i, c := range entry[9:12] {
				extBytes[i] = c & 0x7f
			}
			name := strings.TrimRight(string(nameBytes), " ")
			ext := strings.TrimRight(string(extBytes), " ")
			if ext != "" {
				name += "." + ext
			}
			if !matchPattern(pattern, name) {
				continue
			}
			records := int(entry[15])
			out = append(out, FileEntry{
				Name:      name,
				TypeName:  ext,
				SizeBytes: int64(records) * 128,
				driverData: cpmEntryRef{track: cpmDirTrack, sector: s, offset: pos, recordCount: records},
			})
		}
	}
	return out, nil
}

func (d *cpmDriver) ReadFile(entry FileEntry) ([]byte, error) {
	ref, ok := entry.driverData.(cpmEntryRef)
	if !ok {
		return nil, diskimg.New(diskimg.ErrInvalidArg, "entry not from this driver")
	}
	sector, err := d.di.ReadTrackSector(ref.track, ref.sector, diskimg.OrderCPM)
	if err != nil {
		return nil, err
	}
	extent := sector[ref.offset : ref.offset+cpmEntryLen]
	var out []byte
	for i := 16; i < 32 && len(out) < ref.recordCount*128; i++ {
		block := int(extent[i])
		if block == 0 {
			break
		}
		t := block / d.di.NumSectors()
		s := block % d.di.NumSectors()
		data, err := d.di.ReadTrackSector(t, s, diskimg.OrderCPM)
		if err != nil {
			return out, err
		}
		out = append(out, data[:]...)
	}
	if len(out) > ref.recordCount*128 {
		out = out[:ref.recordCount*128]
	}
	return out, nil
}

func (d *cpmDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "cpm driver is read-only")
}

func (d *cpmDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "cpm driver is read-only")
}
