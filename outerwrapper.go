package diskimg

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
)

// OuterWrapper strips a compression/archival layer (gzip, zip) from a
// ByteSource before an ImageWrapper ever sees it (spec.md §4.2). Unlike
// ImageWrapper, outer wrappers are decode-only: a round-trip write goes
// back through the same OuterWrapper.Repack that produced the member.
type OuterWrapper interface {
	Test(src ByteSource, length int64) bool
	Unwrap(src ByteSource, length int64) (ByteSource, string, error)
	Repack(dst ByteSource, inner []byte, memberName string) error
	Name() string
}

func outerWrapperRegistry() []OuterWrapper {
	return []OuterWrapper{
		&GzipOuterWrapper{},
		&ZipOuterWrapper{},
	}
}

// detectOuterWrapper runs the registry against src and returns the
// first match, or nil if src is not wrapped in anything recognized.
func detectOuterWrapper(src ByteSource, length int64) OuterWrapper {
	for _, w := range outerWrapperRegistry() {
		if w.Test(src, length) {
			return w
		}
	}
	return nil
}

// ---------------------------------------------------------------- Gzip

type GzipOuterWrapper struct{}

func (w *GzipOuterWrapper) Name() string { return "gzip" }

func (w *GzipOuterWrapper) Test(src ByteSource, length int64) bool {
	if length < 2 {
		return false
	}
	var magic [2]byte
	if _, err := src.ReadAt(0, magic[:]); err != nil {
		return false
	}
	return magic[0] == 0x1F && magic[1] == 0x8B
}

func (w *GzipOuterWrapper) Unwrap(src ByteSource, length int64) (ByteSource, string, error) {
	raw := make([]byte, length)
	if _, err := src.ReadAt(0, raw); err != nil {
		return nil, "", Wrap(ErrReadFailed, err, "gzip read")
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, "", Wrap(ErrBadCompressedData, err, "gzip header")
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, "", Wrap(ErrBadCompressedData, err, "gzip inflate")
	}
	return NewBufferSource(data), zr.Name, nil
}

func (w *GzipOuterWrapper) Repack(dst ByteSource, inner []byte, memberName string) error {
	var buf bytes.Buffer
	zw, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	zw.Name = memberName
	if _, err := zw.Write(inner); err != nil {
		return Wrap(ErrWriteFailed, err, "gzip deflate")
	}
	if err := zw.Close(); err != nil {
		return Wrap(ErrWriteFailed, err, "gzip close")
	}
	_, err := dst.WriteAt(0, buf.Bytes())
	return err
}

// ---------------------------------------------------------------- Zip

// ZipOuterWrapper unwraps a .zip archive's largest non-directory member
// (its only member, in a single-entry archive), matching CiderPress's treatment of .zip as a
// transparent outer layer rather than a filesystem in its own right.
type ZipOuterWrapper struct {
	memberIndex int
}

func (w *ZipOuterWrapper) Name() string { return "zip" }

func (w *ZipOuterWrapper) Test(src ByteSource, length int64) bool {
	if length < 22 {
		return false
	}
	var sig [4]byte
	if _, err := src.ReadAt(0, sig[:]); err != nil {
		return false
	}
	return sig[0] == 'P' && sig[1] == 'K' && sig[2] == 0x03 && sig[3] == 0x04
}

func (w *ZipOuterWrapper) Unwrap(src ByteSource, length int64) (ByteSource, string, error) {
	raw := make([]byte, length)
	if _, err := src.ReadAt(0, raw); err != nil {
		return nil, "", Wrap(ErrReadFailed, err, "zip read")
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), length)
	if err != nil {
		return nil, "", Wrap(ErrBadArchiveStruct, err, "zip directory")
	}
	var best *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if best == nil || f.UncompressedSize64 > best.UncompressedSize64 {
			best = f
		}
	}
	if best == nil {
		return nil, "", New(ErrFilesystemNotFound, "zip archive has no files")
	}
	rc, err := best.Open()
	if err != nil {
		return nil, "", Wrap(ErrBadArchiveStruct, err, "zip member open")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", Wrap(ErrBadCompressedData, err, "zip inflate")
	}
	return NewBufferSource(data), best.Name, nil
}

func (w *ZipOuterWrapper) Repack(dst ByteSource, inner []byte, memberName string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create(memberName)
	if err != nil {
		return Wrap(ErrWriteFailed, err, "zip create member")
	}
	if _, err := fw.Write(inner); err != nil {
		return Wrap(ErrWriteFailed, err, "zip write member")
	}
	if err := zw.Close(); err != nil {
		return Wrap(ErrWriteFailed, err, "zip close")
	}
	_, err = dst.WriteAt(0, buf.Bytes())
	return err
}
