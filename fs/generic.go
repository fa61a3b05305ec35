package fs

import "github.com/eightbit-archive/diskimg"

// genericDriver is what callers get back when every probe in probeOrder
// rejects the image: an enumerate-nothing driver that still reports
// geometry and the ordering the caller asked for, so tools like
// dump-sector keep working on an image with no recognized catalog.
type genericDriver struct {
	di    *diskimg.DiskImage
	order diskimg.Order
}

// NewGeneric builds a fallback driver for ord, used when Probe exhausts
// probeOrder without a match (spec.md §4.6's Generic{Physical,DOS,ProDOS,CPM}
// variants name the ordering actually laid over the bytes, not a catalog).
func NewGeneric(di *diskimg.DiskImage, ord diskimg.Order) FilesystemDriver {
	return &genericDriver{di: di, order: ord}
}

func (d *genericDriver) Format() Format              { return FormatGeneric }
func (d *genericDriver) RequiredOrder() diskimg.Order { return d.order }
func (d *genericDriver) VolumeName() string           { return "" }

func (d *genericDriver) List(pattern string) ([]FileEntry, error) {
	return nil, nil
}

func (d *genericDriver) ReadFile(entry FileEntry) ([]byte, error) {
	return nil, diskimg.New(diskimg.ErrUnsupportedAccess, "generic driver has no catalog to read from")
}

func (d *genericDriver) WriteFile(name string, data []byte) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "generic driver has no catalog to write to")
}

func (d *genericDriver) DeleteFile(entry FileEntry) error {
	return diskimg.New(diskimg.ErrUnsupportedAccess, "generic driver has no catalog to delete from")
}
