// Package fs implements the LogicalProbe and the per-filesystem drivers
// that sit on top of a diskimg.DiskImage (spec.md §4.6).
package fs

import (
	"time"

	"github.com/eightbit-archive/diskimg"
)

// Format identifies a detected filesystem (spec.md §4.6 fs_format).
type Format int

const (
	FormatUnknown Format = iota
	FormatDOS33
	FormatDOS32
	FormatProDOS
	FormatPascal
	FormatCPM
	FormatRDOS3
	FormatRDOS32
	FormatRDOS33
	FormatHFS
	FormatFAT
	FormatUNIDOS
	FormatOzDOS
	FormatCFFA
	FormatMacPart
	FormatMicroDrive
	FormatFocusDrive
	FormatGeneric
)

func (f Format) String() string {
	switch f {
	case FormatDOS33:
		return "DOS 3.3"
	case FormatDOS32:
		return "DOS 3.2"
	case FormatProDOS:
		return "ProDOS"
	case FormatPascal:
		return "Pascal"
	case FormatCPM:
		return "CP/M"
	case FormatRDOS3:
		return "RDOS 3"
	case FormatRDOS32:
		return "RDOS 3.2"
	case FormatRDOS33:
		return "RDOS 3.3"
	case FormatHFS:
		return "HFS"
	case FormatFAT:
		return "FAT"
	case FormatUNIDOS:
		return "UNIDOS"
	case FormatOzDOS:
		return "OzDOS"
	case FormatCFFA:
		return "CFFA"
	case FormatMacPart:
		return "MacPart"
	case FormatMicroDrive:
		return "MicroDrive"
	case FormatFocusDrive:
		return "FocusDrive"
	case FormatGeneric:
		return "Generic"
	}
	return "Unknown"
}

// FileEntry describes one catalog entry a driver enumerates (spec.md
// §4.6 "catalog listing").
type FileEntry struct {
	Name      string
	TypeName  string
	SizeBytes int64
	Locked    bool
	Deleted   bool
	ModTime   time.Time // zero value when the filesystem doesn't track one

	// Internal addressing the driver needs to re-locate this entry for
	// Read/Write/Delete; opaque to callers.
	driverData interface{}
}

// FilesystemDriver is what a LogicalProbe hands back on success (spec.md
// §4.6). Drivers that are read-only enumerate-only implementations
// return ErrUnsupportedAccess from WriteFile/DeleteFile.
type FilesystemDriver interface {
	Format() Format

	// RequiredOrder is the sector ordering this driver's addressing
	// assumes (spec.md §4.6 "canonical required-ordering").
	RequiredOrder() diskimg.Order

	VolumeName() string

	List(pattern string) ([]FileEntry, error)
	ReadFile(entry FileEntry) ([]byte, error)

	// WriteFile and DeleteFile return diskimg.ErrUnsupportedAccess for
	// drivers that only support enumeration.
	WriteFile(name string, data []byte) error
	DeleteFile(entry FileEntry) error
}

// ProbeResult is what a single filesystem probe reports (spec.md §4.6
// "mutable (ordering, fs_format) guess").
type ProbeResult struct {
	Matched   bool
	Driver    FilesystemDriver
	Order     diskimg.Order
	NumTracks int
	NumSectorsPerTrack int
}
