package diskimg

import (
	"sync"

	"github.com/google/uuid"
)

// DiskImage is the top-level handle an application opens, reads,
// writes, and closes (spec.md §4.1, §4.9). It owns the byte source
// chain (outer wrapper -> image wrapper payload), the derived physical
// geometry, the per-track nibble cache, and the dirty flag shared with
// any child sub-images opened from it.
type DiskImage struct {
	mu sync.Mutex

	session uuid.UUID
	progress *progressSink
	notes    noteList

	outer    OuterWrapper
	wrapper  ImageWrapper
	fileFmt  FileFormat

	raw    ByteSource // the file/device/archive-member underlying everything
	payload ByteSource // the unadorned payload exposed by wrapper.Prep

	geom geometry

	nibDescr *NibbleDescr
	cache    *trackCache

	dirty    bool
	readOnly bool

	parent   *DiskImage
	children []*DiskImage

	closed bool
}

// OpenOptions configures DiskImage.Open (spec.md §4.9 step list).
type OpenOptions struct {
	Filename    string // used for extension-hint ordering/format guessing
	ReadOnly    bool
	ForceOrder  Order        // FormatOverride: force sector ordering
	ForceNibble *NibbleDescr // FormatOverride: force a nibble profile
	Progress    ProgressFunc
}

// Open runs the layered probe of spec.md §4.9: strip any outer wrapper,
// try image wrappers in extension-hint order then content order, derive
// geometry, and (for nibble images) pick a NibbleDescr.
func Open(src ByteSource, opts OpenOptions) (*DiskImage, error) {
	length := src.Length()
	if length == 0 {
		return nil, New(ErrInvalidCreateReq, "empty source")
	}

	di := &DiskImage{
		session:  uuid.New(),
		readOnly: opts.ReadOnly,
		raw:      src,
	}
	di.progress = newProgressSink(opts.Progress)
	di.progress.report("probing outer wrapper", 0)

	working := src
	if ow := detectOuterWrapper(src, length); ow != nil {
		inner, _, err := ow.Unwrap(src, length)
		if err != nil {
			return nil, err
		}
		di.outer = ow
		working = inner
		length = inner.Length()
	}

	di.progress.report("probing image format", 0)
	wrapper, prep, testResult, err := probeImageWrapper(working, length, opts.Filename)
	if err != nil {
		return nil, err
	}
	di.wrapper = wrapper
	di.fileFmt = wrapper.Format()
	di.payload = prep.Payload

	if testResult == TestDefinitelyThisButCorrupt {
		di.readOnly = true
		di.notes.Warn("%s checksum mismatch; image opened read-only", wrapper.Format())
	}

	if opts.ForceOrder != OrderUnknown {
		prep.Order = opts.ForceOrder
	}
	di.geom = deriveGeometry(prep)

	if di.geom.hasNibbles {
		descr := opts.ForceNibble
		if descr == nil {
			descr, err = pickNibbleDescr(di.payload, di.geom)
			if err != nil {
				return nil, err
			}
		}
		di.nibDescr = descr
		di.cache = &trackCache{}
	}

	return di, nil
}

// CreateOptions configures DiskImage.Create: a blank, unadorned payload
// of the requested size laid out in order, with no outer wrapper and no
// image wrapper header (spec.md §6 "format <fs> <volname>" builds on
// this before the fs package initializes a catalog).
type CreateOptions struct {
	Path   string
	Size   int64
	Order  Order
}

// Create makes a new zero-filled unadorned image at opts.Path (spec.md
// §4.9 "Create: refuses if it exists"), exclusively, and opens it for
// writing.
func Create(opts CreateOptions) (*DiskImage, error) {
	if opts.Size <= 0 {
		return nil, New(ErrInvalidCreateReq, "size must be positive")
	}
	f, err := CreateFileSource(opts.Path)
	if err != nil {
		return nil, err
	}
	zero := make([]byte, opts.Size)
	if _, err := f.WriteAt(0, zero); err != nil {
		f.Close()
		return nil, err
	}
	di, err := Open(f, OpenOptions{Filename: opts.Path, ForceOrder: opts.Order})
	if err != nil {
		f.Close()
		return nil, err
	}
	di.dirty = true
	return di, nil
}

// OpenPath opens a disk image from a filesystem path, the common case
// for the CLI and shell (spec.md §6).
func OpenPath(path string, readOnly bool, progress ProgressFunc) (*DiskImage, error) {
	fs, err := OpenFileSource(path, readOnly)
	if err != nil {
		return nil, err
	}
	di, err := Open(fs, OpenOptions{Filename: path, ReadOnly: readOnly, Progress: progress})
	if err != nil {
		fs.Close()
		return nil, err
	}
	return di, nil
}

// probeImageWrapper tries the extension-hinted wrapper first (even when
// its content Test fails, for headerless formats like Sim//e HDV), then
// falls through to content-sniffing in registry order (spec.md §4.9
// step (c)). The returned TestResult is TestDefinitelyThisButCorrupt
// when the matched wrapper flagged its own checksum as bad, so Open can
// downgrade the image to read-only instead of rejecting it outright
// (spec.md §7 "wrapper-level BadChecksum on open is recoverable").
func probeImageWrapper(src ByteSource, length int64, filename string) (ImageWrapper, *PrepResult, TestResult, error) {
	hint := extensionHint(filename)
	var hinted ImageWrapper
	for _, w := range imageWrapperRegistry() {
		if w.Format() == hint && hint != FileFormatUnadorned {
			hinted = w
			break
		}
	}
	if hinted != nil {
		result := hinted.Test(src, length)
		if prep, err := hinted.Prep(src, length, false); err == nil {
			return hinted, prep, result, nil
		}
	}

	for _, w := range imageWrapperRegistry() {
		if w == hinted {
			continue
		}
		switch result := w.Test(src, length); result {
		case TestMatch, TestDefinitelyThisButCorrupt:
			prep, err := w.Prep(src, length, false)
			if err != nil {
				continue
			}
			return w, prep, result, nil
		case TestIsFileArchive:
			return nil, nil, TestNone, New(ErrFileArchive, "source is an archive, not a disk image")
		}
	}

	uw := &UnadornedWrapper{order: OrderFromExtension(filename)}
	prep, err := uw.Prep(src, length, false)
	if err != nil {
		return nil, nil, TestNone, New(ErrUnrecognizedFileFmt, "no image wrapper recognized source")
	}
	return uw, prep, TestMatch, nil
}

// pickNibbleDescr tries each standard profile against the first track
// until one decodes every sector, per spec.md §4.5.
func pickNibbleDescr(payload ByteSource, g geometry) (*NibbleDescr, error) {
	trackLen := trackLenFor(g.physical)
	raw := make([]byte, trackLen)
	if _, err := payload.ReadAt(0, raw); err != nil {
		return nil, Wrap(ErrReadFailed, err, "nibble track 0 probe read")
	}
	for i := range StdNibbleDescrs {
		d := &StdNibbleDescrs[i]
		if d.NumSectors == 0 {
			continue
		}
		sectors := DecodeTrack(raw, d, 0)
		ok := 0
		for _, s := range sectors {
			if s.Err == nil {
				ok++
			}
		}
		if ok == d.NumSectors {
			return d, nil
		}
	}
	return nil, New(ErrBadNibbleSectors, "no standard nibble profile decoded track 0")
}

// ---------------------------------------------------------------- Reads

// ReadTrackSector reads one 256-byte sector addressed in fsOrder
// (spec.md §4.8 read_track_sector).
func (di *DiskImage) ReadTrackSector(track, sector int, fsOrder Order) ([256]byte, error) {
	di.mu.Lock()
	defer di.mu.Unlock()

	var out [256]byte
	if err := di.checkOpen(); err != nil {
		return out, err
	}
	if track < 0 || track >= di.geom.numTracks {
		return out, New(ErrInvalidTrack, "track %d out of range [0,%d)", track, di.geom.numTracks)
	}
	if sector < 0 || sector >= di.geom.numSectorsPerTrk {
		return out, New(ErrInvalidSector, "sector %d out of range [0,%d)", sector, di.geom.numSectorsPerTrk)
	}

	if di.geom.hasNibbles {
		return di.readNibbleSector(track, sector)
	}

	offset := SectorOffset(track, sector, di.geom.numSectorsPerTrk, di.geom.order, fsOrder)
	buf := make([]byte, 256)
	if _, err := di.payload.ReadAt(offset, buf); err != nil {
		return out, Wrap(ErrReadFailed, err, "read track %d sector %d", track, sector)
	}
	copy(out[:], buf)
	return out, nil
}

func (di *DiskImage) readNibbleSector(track, sector int) ([256]byte, error) {
	var out [256]byte
	sectors, err := di.decodedTrack(track)
	if err != nil {
		return out, err
	}
	for _, s := range sectors {
		if s.Sector == sector {
			if s.Err != nil {
				return out, s.Err
			}
			return s.Data, nil
		}
	}
	return out, New(ErrSectorUnreadable, "sector %d not found on track %d", sector, track)
}

// decodedTrack returns the cached decode of a track, recomputing and
// repopulating the cache on a miss (spec.md §5 trackCache).
func (di *DiskImage) decodedTrack(track int) ([]DecodedSector, error) {
	di.cache.mu.Lock()
	if di.cache.valid && di.cache.track == track {
		cached := di.cache.sectors
		di.cache.mu.Unlock()
		out := make([]DecodedSector, 0, len(cached))
		for sec, data := range cached {
			out = append(out, DecodedSector{Sector: sec, Data: data})
		}
		return out, nil
	}
	di.cache.mu.Unlock()

	trackLen := int(trackLenFor(di.geom.physical))
	raw := make([]byte, trackLen)
	if _, err := di.payload.ReadAt(int64(track)*int64(trackLen), raw); err != nil {
		return nil, Wrap(ErrReadFailed, err, "read nibble track %d", track)
	}
	decoded := DecodeTrack(raw, di.nibDescr, track)

	di.cache.mu.Lock()
	di.cache.track = track
	di.cache.valid = true
	di.cache.sectors = make(map[int][256]byte, len(decoded))
	for _, s := range decoded {
		if s.Err == nil {
			di.cache.sectors[s.Sector] = s.Data
		}
	}
	di.cache.mu.Unlock()

	return decoded, nil
}

// ReadBlock reads one 512-byte ProDOS block: the two 256-byte sectors
// ProDOS itself numbers 2*half and 2*half+1 on the block's track (spec.md
// §4.8 read_block). ReadTrackSector's fs_to_raw/raw_to_image composition
// already collapses to the identity (a linear block*512 offset) whenever
// image_order == ProDOS, which is spec §4.8's "linear fast path", and
// otherwise reproduces the classic DOS-sector-pair table for a
// DOS-ordered image without needing a separate lookup.
func (di *DiskImage) ReadBlock(block int) ([512]byte, error) {
	var out [512]byte
	if !di.geom.hasBlocks {
		return out, New(ErrUnsupportedAccess, "image has no block addressing")
	}
	track := block / 8
	half := block % 8

	a, err := di.ReadTrackSector(track, 2*half, OrderProDOS)
	if err != nil {
		return out, err
	}
	b, err := di.ReadTrackSector(track, 2*half+1, OrderProDOS)
	if err != nil {
		return out, err
	}
	copy(out[:256], a[:])
	copy(out[256:], b[:])
	return out, nil
}

// ReadBlocks reads count consecutive blocks starting at start (spec.md
// §4.8 read_blocks).
func (di *DiskImage) ReadBlocks(start, count int) ([]byte, error) {
	out := make([]byte, 0, count*512)
	for i := 0; i < count; i++ {
		b, err := di.ReadBlock(start + i)
		if err != nil {
			return nil, err
		}
		out = append(out, b[:]...)
	}
	return out, nil
}

// ---------------------------------------------------------------- Writes

// WriteTrackSector writes one 256-byte sector (spec.md §4.8
// write_track_sector). Nibble images re-encode the whole track and
// invalidate its cache entry.
func (di *DiskImage) WriteTrackSector(track, sector int, fsOrder Order, data [256]byte) error {
	di.mu.Lock()
	defer di.mu.Unlock()

	if err := di.checkWritable(); err != nil {
		return err
	}
	if track < 0 || track >= di.geom.numTracks {
		return New(ErrInvalidTrack, "track %d out of range", track)
	}
	if sector < 0 || sector >= di.geom.numSectorsPerTrk {
		return New(ErrInvalidSector, "sector %d out of range", sector)
	}

	if di.geom.hasNibbles {
		return di.writeNibbleSector(track, sector, data)
	}

	offset := SectorOffset(track, sector, di.geom.numSectorsPerTrk, di.geom.order, fsOrder)
	if _, err := di.payload.WriteAt(offset, data[:]); err != nil {
		return Wrap(ErrWriteFailed, err, "write track %d sector %d", track, sector)
	}
	di.markDirty()
	return nil
}

func (di *DiskImage) writeNibbleSector(track, sector int, data [256]byte) error {
	trackLen := int(trackLenFor(di.geom.physical))
	existing, err := di.decodedTrack(track)
	if err != nil {
		return err
	}
	sectors := make(map[int][256]byte, di.nibDescr.NumSectors)
	for _, s := range existing {
		if s.Err == nil {
			sectors[s.Sector] = s.Data
		}
	}
	sectors[sector] = data

	order := rawToImageTable(di.geom.order)
	encoded := EncodeTrack(sectors, order, di.nibDescr, track, trackLen)
	if _, err := di.payload.WriteAt(int64(track)*int64(trackLen), encoded); err != nil {
		return Wrap(ErrWriteFailed, err, "write nibble track %d", track)
	}
	di.cache.invalidate()
	di.markDirty()
	return nil
}

// WriteBlock writes one 512-byte block, split across its two ProDOS
// sectors 2*half and 2*half+1 (spec.md §4.8 write_block); see ReadBlock.
func (di *DiskImage) WriteBlock(block int, data [512]byte) error {
	if !di.geom.hasBlocks {
		return New(ErrUnsupportedAccess, "image has no block addressing")
	}
	track := block / 8
	half := block % 8

	var a, b [256]byte
	copy(a[:], data[:256])
	copy(b[:], data[256:])
	if err := di.WriteTrackSector(track, 2*half, OrderProDOS, a); err != nil {
		return err
	}
	return di.WriteTrackSector(track, 2*half+1, OrderProDOS, b)
}

// WriteBlocks writes len(data)/512 consecutive blocks starting at start
// (spec.md §4.8 write_blocks).
func (di *DiskImage) WriteBlocks(start int, data []byte) error {
	if len(data)%512 != 0 {
		return New(ErrInvalidArg, "data length %d not a multiple of 512", len(data))
	}
	count := len(data) / 512
	for i := 0; i < count; i++ {
		var b [512]byte
		copy(b[:], data[i*512:(i+1)*512])
		if err := di.WriteBlock(start+i, b); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------- Sub-images

// OpenSubImage opens a nested DiskImage over a byte-range window of
// this image's payload, sharing the dirty flag so writes below
// propagate up to the parent (spec.md §4.8 open_sub_image, §8 invariant
// 5).
func (di *DiskImage) OpenSubImage(offset, length int64, filename string) (*DiskImage, error) {
	di.mu.Lock()
	defer di.mu.Unlock()

	if err := di.checkOpen(); err != nil {
		return nil, err
	}
	if offset < 0 || length <= 0 || offset+length > di.payload.Length() {
		return nil, New(ErrInvalidArg, "sub-image window out of range")
	}

	var progress ProgressFunc
	if di.progress != nil {
		progress = di.progress.fn
	}
	window := NewWindowSource(di.payload, offset, length, &di.dirty)
	child, err := Open(window, OpenOptions{Filename: filename, ReadOnly: di.readOnly, Progress: progress})
	if err != nil {
		return nil, err
	}
	child.parent = di
	di.children = append(di.children, child)
	return child, nil
}

// ---------------------------------------------------------------- Lifecycle

// Flush writes any pending changes back through the image wrapper (and
// outer wrapper, if present) to the underlying raw source (spec.md §4.9
// flush/close).
func (di *DiskImage) Flush() error {
	di.mu.Lock()
	defer di.mu.Unlock()
	return di.flushLocked()
}

func (di *DiskImage) flushLocked() error {
	if err := di.checkOpen(); err != nil {
		return err
	}
	if di.readOnly {
		return New(ErrWriteProtected, "image opened read-only")
	}
	if !di.dirty {
		return nil
	}
	for _, c := range di.children {
		if err := c.flushLocked(); err != nil {
			return err
		}
	}

	payloadLen := di.payload.Length()
	buf := make([]byte, payloadLen)
	if _, err := di.payload.ReadAt(0, buf); err != nil {
		return Wrap(ErrReadFailed, err, "flush payload read")
	}

	if _, err := di.wrapper.Flush(di.raw, NewBufferSource(buf), payloadLen); err != nil {
		return err
	}
	if err := di.raw.Flush(); err != nil {
		return Wrap(ErrWriteFailed, err, "flush raw source")
	}
	di.dirty = false
	return nil
}

// Close flushes (if writable and dirty) and releases the underlying
// source (spec.md §4.9).
func (di *DiskImage) Close() error {
	di.mu.Lock()
	defer di.mu.Unlock()
	if di.closed {
		return nil
	}
	var flushErr error
	if !di.readOnly && di.dirty {
		flushErr = di.flushLocked()
	}
	di.closed = true
	if di.parent == nil {
		di.raw.Close()
	}
	return flushErr
}

func (di *DiskImage) markDirty() {
	di.dirty = true
	for p := di.parent; p != nil; p = p.parent {
		p.dirty = true
	}
}

func (di *DiskImage) checkOpen() error {
	if di.closed {
		return New(ErrNotReady, "image is closed")
	}
	return nil
}

func (di *DiskImage) checkWritable() error {
	if err := di.checkOpen(); err != nil {
		return err
	}
	if di.readOnly {
		return New(ErrWriteProtected, "image opened read-only")
	}
	return nil
}

// ---------------------------------------------------------------- Accessors

func (di *DiskImage) IsDirty() bool       { return di.dirty }
func (di *DiskImage) IsReadOnly() bool    { return di.readOnly }
func (di *DiskImage) NumTracks() int      { return di.geom.numTracks }
func (di *DiskImage) NumSectors() int     { return di.geom.numSectorsPerTrk }
func (di *DiskImage) NumBlocks() int      { return di.geom.numBlocks }
func (di *DiskImage) HasBlocks() bool     { return di.geom.hasBlocks }
func (di *DiskImage) HasSectors() bool    { return di.geom.hasSectors }
func (di *DiskImage) HasNibbles() bool    { return di.geom.hasNibbles }
func (di *DiskImage) FileFormat() FileFormat { return di.fileFmt }
func (di *DiskImage) Order() Order        { return di.geom.order }
func (di *DiskImage) PhysicalFormat() PhysicalFormat { return di.geom.physical }
func (di *DiskImage) Notes() []Note       { return di.notes.Notes() }
func (di *DiskImage) Session() uuid.UUID  { return di.session }
