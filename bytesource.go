package diskimg

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ByteSource is the uniform random-access stream every layer above it
// consumes: a file, an in-memory buffer, a window over a parent image, or
// a raw OS volume (spec.md §4.1).
type ByteSource interface {
	ReadAt(offset int64, buf []byte) (int, error)
	WriteAt(offset int64, data []byte) (int, error)
	Length() int64
	Flush() error
	Close() error
	ReadOnly() bool
}

// ---------------------------------------------------------------- Buffer

// BufferSource is an in-memory ByteSource, optionally growable when
// written past its current length.
type BufferSource struct {
	data     []byte
	growable bool
	readOnly bool
}

// NewBufferSource wraps data as a fixed-length (non-growable) source.
func NewBufferSource(data []byte) *BufferSource {
	return &BufferSource{data: data}
}

// NewGrowableBufferSource starts empty (or with seed data) and grows on
// out-of-range writes, as OuterWrapper.load decompresses into one.
func NewGrowableBufferSource(seed []byte) *BufferSource {
	return &BufferSource{data: seed, growable: true}
}

func (b *BufferSource) ReadAt(offset int64, buf []byte) (int, error) {
	if offset < 0 || offset > int64(len(b.data)) {
		return 0, Wrap(ErrInvalidIndex, nil, "offset %d out of range", offset)
	}
	n := copy(buf, b.data[offset:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (b *BufferSource) WriteAt(offset int64, data []byte) (int, error) {
	if b.readOnly {
		return 0, AsError(ErrWriteProtected)
	}
	end := offset + int64(len(data))
	if end > int64(len(b.data)) {
		if !b.growable {
			return 0, Wrap(ErrWriteFailed, nil, "write past end of fixed buffer (%d > %d)", end, len(b.data))
		}
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	n := copy(b.data[offset:], data)
	return n, nil
}

func (b *BufferSource) Length() int64   { return int64(len(b.data)) }
func (b *BufferSource) Flush() error    { return nil }
func (b *BufferSource) Close() error    { return nil }
func (b *BufferSource) ReadOnly() bool  { return b.readOnly }
func (b *BufferSource) SetReadOnly(ro bool) { b.readOnly = ro }

// Bytes returns the buffer's current contents. Callers must not mutate
// the returned slice's backing array without going through WriteAt.
func (b *BufferSource) Bytes() []byte { return b.data }

// ------------------------------------------------------------------ File

// FileSource is an OS-file-backed ByteSource.
type FileSource struct {
	f        *os.File
	length   int64
	readOnly bool
}

// OpenFileSource opens path for random access. readOnly selects O_RDONLY
// vs O_RDWR.
func OpenFileSource(path string, readOnly bool) (*FileSource, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Wrap(ErrFileNotFound, err, "%s", path)
		}
		if os.IsPermission(err) {
			return nil, Wrap(ErrAccessDenied, err, "%s", path)
		}
		return nil, Wrap(ErrGeneric, err, "open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Wrap(ErrGeneric, err, "stat %s", path)
	}
	return &FileSource{f: f, length: fi.Size(), readOnly: readOnly}, nil
}

// CreateFileSource creates path exclusively (spec.md §4.9 Create: "refuses
// if it exists").
func CreateFileSource(path string) (*FileSource, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, Wrap(ErrFileExists, err, "%s", path)
		}
		return nil, Wrap(ErrGeneric, err, "create %s", path)
	}
	return &FileSource{f: f}, nil
}

func (s *FileSource) ReadAt(offset int64, buf []byte) (int, error) {
	n, err := s.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, Wrap(ErrReadFailed, err, "read at %d", offset)
	}
	return n, err
}

func (s *FileSource) WriteAt(offset int64, data []byte) (int, error) {
	if s.readOnly {
		return 0, AsError(ErrWriteProtected)
	}
	n, err := s.f.WriteAt(data, offset)
	if err != nil {
		return n, Wrap(ErrWriteFailed, err, "write at %d", offset)
	}
	if end := offset + int64(n); end > s.length {
		s.length = end
	}
	return n, nil
}

func (s *FileSource) Length() int64  { return s.length }
func (s *FileSource) Flush() error   { return s.f.Sync() }
func (s *FileSource) Close() error   { return s.f.Close() }
func (s *FileSource) ReadOnly() bool { return s.readOnly }

// -------------------------------------------------------------- Window

// WindowSource is a fixed offset/length view over a parent ByteSource. It
// is used to expose the payload slice after an image header, and to
// expose sub-volume ranges to filesystem drivers (spec.md §4.1).
type WindowSource struct {
	parent ByteSource
	offset int64
	length int64
	dirty  *bool // shared dirty flag on the owning DiskImage, set on write
}

// NewWindowSource creates a window [offset, offset+length) over parent.
// markDirty, if non-nil, is flipped true on any write through the window
// (spec.md §4.1: "marks the parent dirty").
func NewWindowSource(parent ByteSource, offset, length int64, markDirty *bool) *WindowSource {
	return &WindowSource{parent: parent, offset: offset, length: length, dirty: markDirty}
}

func (w *WindowSource) ReadAt(offset int64, buf []byte) (int, error) {
	if offset < 0 || offset > w.length {
		return 0, Wrap(ErrInvalidIndex, nil, "window offset %d out of range", offset)
	}
	want := len(buf)
	if offset+int64(want) > w.length {
		want = int(w.length - offset)
	}
	return w.parent.ReadAt(w.offset+offset, buf[:want])
}

func (w *WindowSource) WriteAt(offset int64, data []byte) (int, error) {
	if w.parent.ReadOnly() {
		return 0, AsError(ErrWriteProtected)
	}
	if offset < 0 || offset+int64(len(data)) > w.length {
		return 0, Wrap(ErrInvalidIndex, nil, "window write [%d,%d) out of range", offset, offset+int64(len(data)))
	}
	n, err := w.parent.WriteAt(w.offset+offset, data)
	if err == nil && w.dirty != nil {
		*w.dirty = true
	}
	return n, err
}

func (w *WindowSource) Length() int64 { return w.length }
func (w *WindowSource) Flush() error  { return w.parent.Flush() }

// Close intentionally does not close the parent (spec.md §4.1).
func (w *WindowSource) Close() error   { return nil }
func (w *WindowSource) ReadOnly() bool { return w.parent.ReadOnly() }

// -------------------------------------------------------------- Device

// DeviceSource wraps a raw OS volume/physical device. It is guarded so
// the host's own boot volume can never be opened for writing; the guard
// defaults to forbidden and may only be lifted explicitly by the caller
// (spec.md §9 "write-guard flag").
type DeviceSource struct {
	f          *os.File
	length     int64
	readOnly   bool
	allowBoot  bool
}

// AllowBootVolumeWrites is the one process-wide toggle spec.md §9
// describes: false (forbidden) by default.
var AllowBootVolumeWrites = false

// OpenDeviceSource opens a raw device node for block-level access.
func OpenDeviceSource(path string, readOnly bool) (*DeviceSource, error) {
	if !readOnly && isHostBootVolume(path) && !AllowBootVolumeWrites {
		return nil, New(ErrAccessDenied, "refusing to write host boot volume %s", path)
	}
	flag := os.O_RDONLY
	if !readOnly {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, Wrap(ErrDeviceNotReady, err, "%s", path)
	}
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		f.Close()
		return nil, Wrap(ErrDeviceNotReady, err, "fstat %s", path)
	}
	length := st.Size
	if length == 0 {
		// block devices report size 0 via stat; seek to find extent.
		if end, err := f.Seek(0, io.SeekEnd); err == nil {
			length = end
			f.Seek(0, io.SeekStart)
		}
	}
	return &DeviceSource{f: f, length: length, readOnly: readOnly}, nil
}

// isHostBootVolume is a best-effort, platform-specific check; unknown
// paths are assumed not to be the boot volume so ordinary disk images
// still open normally. A real implementation would compare device
// major/minor against the mount point of "/".
func isHostBootVolume(path string) bool {
	return path == "/dev/root" || path == "/dev/disk0" || path == "/dev/disk0s1"
}

func (d *DeviceSource) ReadAt(offset int64, buf []byte) (int, error) {
	n, err := d.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, Wrap(ErrReadFailed, err, "device read at %d", offset)
	}
	return n, err
}

func (d *DeviceSource) WriteAt(offset int64, data []byte) (int, error) {
	if d.readOnly {
		return 0, AsError(ErrWriteProtected)
	}
	n, err := d.f.WriteAt(data, offset)
	if err != nil {
		return n, Wrap(ErrWriteFailed, err, "device write at %d", offset)
	}
	return n, nil
}

func (d *DeviceSource) Length() int64  { return d.length }
func (d *DeviceSource) Flush() error   { return d.f.Sync() }
func (d *DeviceSource) Close() error   { return d.f.Close() }
func (d *DeviceSource) ReadOnly() bool { return d.readOnly }
