package main

import "github.com/eightbit-archive/diskimg"

// exitCodeFor maps an engine error to the CLI exit codes spec.md §6
// fixes: 0 success, 1 usage error, 2 cannot open, 3 filesystem
// unrecognized, 4 I/O error, 5 cancelled.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch diskimg.CodeOf(err) {
	case diskimg.ErrInvalidArg, diskimg.ErrInvalidCreateReq:
		return 1
	case diskimg.ErrFileNotFound, diskimg.ErrAccessDenied, diskimg.ErrUnrecognizedFileFmt,
		diskimg.ErrBadFileFormat, diskimg.ErrUnsupportedFileFmt, diskimg.ErrUnsupportedPhysicalFmt,
		diskimg.ErrDeviceNotReady, diskimg.ErrSharingViolation, diskimg.ErrAlreadyOpen:
		return 2
	case diskimg.ErrFilesystemNotFound, diskimg.ErrUnsupportedFSFmt, diskimg.ErrBadOrdering:
		return 3
	case diskimg.ErrReadFailed, diskimg.ErrWriteFailed, diskimg.ErrEOF, diskimg.ErrGeneric,
		diskimg.ErrBadDiskImage, diskimg.ErrBadRawData, diskimg.ErrSectorUnreadable:
		return 4
	case diskimg.ErrCancelled:
		return 5
	default:
		return 1
	}
}
