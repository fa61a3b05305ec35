package diskimg

import "fmt"

// Code is the flat error taxonomy every engine operation returns through.
// It mirrors the CiderPress DiskImg library's DIError enum: one flat set
// shared by every layer instead of a tree of per-package error types.
type Code int

const (
	ErrNone Code = iota

	// Access
	ErrAccessDenied
	ErrWriteProtected
	ErrFileExists
	ErrFileNotFound
	ErrSharingViolation
	ErrDeviceNotReady

	// Shape
	ErrOddLength
	ErrUnrecognizedFileFmt
	ErrBadFileFormat
	ErrUnsupportedFileFmt
	ErrUnsupportedPhysicalFmt
	ErrUnsupportedFSFmt
	ErrBadOrdering
	ErrFilesystemNotFound
	ErrUnsupportedAccess
	ErrUnsupportedImageFeature
	ErrInvalidCreateReq
	ErrTooBig

	// I/O
	ErrReadFailed
	ErrWriteFailed
	ErrEOF
	ErrGeneric

	// Addressing
	ErrInvalidTrack
	ErrInvalidSector
	ErrInvalidBlock
	ErrInvalidIndex

	// Filesystem integrity
	ErrDirectoryLoop
	ErrFileLoop
	ErrBadDiskImage
	ErrBadFile
	ErrBadDirectory
	ErrBadPartition

	// Archive/compression
	ErrFileArchive
	ErrUnsupportedCompression
	ErrBadChecksum
	ErrBadCompressedData
	ErrBadArchiveStruct

	// Nibble
	ErrBadNibbleSectors
	ErrSectorUnreadable
	ErrInvalidDiskByte
	ErrBadRawData

	// Control
	ErrCancelled
	ErrAlreadyOpen
	ErrNotReady
	ErrInvalidArg
	ErrNotSupported
	ErrMalloc
	ErrInternal
)

var codeNames = map[Code]string{
	ErrNone:                    "no error",
	ErrAccessDenied:            "access denied",
	ErrWriteProtected:          "write protected",
	ErrFileExists:              "file exists",
	ErrFileNotFound:            "file not found",
	ErrSharingViolation:        "sharing violation",
	ErrDeviceNotReady:          "device not ready",
	ErrOddLength:               "odd length",
	ErrUnrecognizedFileFmt:     "unrecognized file format",
	ErrBadFileFormat:           "bad file format",
	ErrUnsupportedFileFmt:      "unsupported file format",
	ErrUnsupportedPhysicalFmt:  "unsupported physical format",
	ErrUnsupportedFSFmt:        "unsupported filesystem format",
	ErrBadOrdering:             "bad sector ordering",
	ErrFilesystemNotFound:      "filesystem not found",
	ErrUnsupportedAccess:       "unsupported access",
	ErrUnsupportedImageFeature: "unsupported image feature",
	ErrInvalidCreateReq:        "invalid create request",
	ErrTooBig:                  "too big",
	ErrReadFailed:              "read failed",
	ErrWriteFailed:             "write failed",
	ErrEOF:                     "end of file",
	ErrGeneric:                 "generic I/O error",
	ErrInvalidTrack:            "invalid track",
	ErrInvalidSector:           "invalid sector",
	ErrInvalidBlock:            "invalid block",
	ErrInvalidIndex:            "invalid index",
	ErrDirectoryLoop:           "directory loop",
	ErrFileLoop:                "file loop",
	ErrBadDiskImage:            "bad disk image",
	ErrBadFile:                 "bad file",
	ErrBadDirectory:            "bad directory",
	ErrBadPartition:            "bad partition",
	ErrFileArchive:             "input is a multi-file archive",
	ErrUnsupportedCompression:  "unsupported compression",
	ErrBadChecksum:             "bad checksum",
	ErrBadCompressedData:       "bad compressed data",
	ErrBadArchiveStruct:        "bad archive structure",
	ErrBadNibbleSectors:        "bad nibble sector count",
	ErrSectorUnreadable:        "sector unreadable",
	ErrInvalidDiskByte:         "invalid disk byte",
	ErrBadRawData:              "bad raw nibble data",
	ErrCancelled:               "cancelled",
	ErrAlreadyOpen:             "already open",
	ErrNotReady:                "not ready",
	ErrInvalidArg:              "invalid argument",
	ErrNotSupported:            "not supported",
	ErrMalloc:                  "allocation failure",
	ErrInternal:                "internal error",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the concrete error type every engine operation returns. Code is
// always set; Detail adds operation-specific context (a path, a track and
// sector, a checksum value) without inventing a new error type per layer.
type Error struct {
	Code   Code
	Detail string
	Err    error // wrapped cause, if any (e.g. the underlying os.PathError)
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, diskimg.ErrInvalidBlock) work against a bare Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds an *Error carrying the given code with formatted detail.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying the given code and an underlying cause.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the Code from err, or ErrGeneric if err isn't one of ours.
func CodeOf(err error) Code {
	if err == nil {
		return ErrNone
	}
	if de, ok := err.(*Error); ok {
		return de.Code
	}
	return ErrGeneric
}

// Sentinel values for errors.Is comparisons against a bare code, e.g.
//
//	if errors.Is(err, diskimg.AsError(diskimg.ErrInvalidBlock)) { ... }
func AsError(code Code) error {
	return &Error{Code: code}
}
