package diskimg

import "encoding/binary"

// NuFXWrapper implements a read-only subset of the NuFX (ShrinkIt, .shk)
// archive format sufficient to pull a single disk-image thread out of
// an archive: the master header, one record header, and that record's
// uncompressed ("store") data thread (spec.md §4.3 "NuFX"). Archives
// whose disk thread uses LZW/LZC compression are reported as
// ErrUnsupportedCompression rather than guessed at.
type NuFXWrapper struct {
	comment []byte
}

var nufxMasterID = [4]byte{0x4E, 0xF5, 0xF6, 0xD5} // 'N'+0x80 bytes per NuFX spec

const nufxMasterHeaderLen = 48
const nufxRecordHeaderLenMin = 56

func (w *NuFXWrapper) Format() FileFormat { return FileFormatNuFX }

func (w *NuFXWrapper) Test(src ByteSource, length int64) TestResult {
	if length < nufxMasterHeaderLen {
		return TestNone
	}
	var id [4]byte
	if _, err := src.ReadAt(0, id[:]); err != nil {
		return TestNone
	}
	if id != nufxMasterID {
		return TestNone
	}
	return TestIsFileArchive
}

// nufxRecord is one parsed record (file entry) within the archive.
type nufxRecord struct {
	fileSysID    uint16
	storageType  uint16
	threadFormat uint16
	compThread   int64
	uncompThread int64
	dataOffset   int64
}

func (w *NuFXWrapper) Prep(src ByteSource, length int64, readOnly bool) (*PrepResult, error) {
	var mhdr [nufxMasterHeaderLen]byte
	if _, err := src.ReadAt(0, mhdr[:]); err != nil {
		return nil, Wrap(ErrReadFailed, err, "nufx master header")
	}
	numRecords := binary.LittleEndian.Uint32(mhdr[20:24])
	if numRecords == 0 {
		return nil, New(ErrBadArchiveStruct, "nufx archive has no records")
	}

	offset := int64(nufxMasterHeaderLen)
	rec, dataOff, dataLen, err := w.readFirstDiskRecord(src, offset, int(numRecords))
	if err != nil {
		return nil, err
	}
	_ = rec

	payload := NewWindowSource(src, dataOff, dataLen, nil)
	return &PrepResult{
		Payload:         payload,
		Length:          dataLen,
		Physical:        PhysicalSectors,
		Order:           OrderProDOS,
		DOSVolumeNumber: -1,
	}, nil
}

// readFirstDiskRecord walks record headers looking for the first thread
// whose class is "disk image data" (thread_class 2), per the NuFX
// record/thread layout.
func (w *NuFXWrapper) readFirstDiskRecord(src ByteSource, offset int64, numRecords int) (*nufxRecord, int64, int64, error) {
	for i := 0; i < numRecords; i++ {
		var rhdr [nufxRecordHeaderLenMin]byte
		if _, err := src.ReadAt(offset, rhdr[:]); err != nil {
			return nil, 0, 0, Wrap(ErrBadArchiveStruct, err, "nufx record %d", i)
		}
		attribCount := binary.LittleEndian.Uint16(rhdr[4:6])
		filenameLen := binary.LittleEndian.Uint16(rhdr[52:54])
		numThreads := binary.LittleEndian.Uint32(rhdr[46:50])

		cursor := offset + int64(attribCount) + int64(filenameLen)
		if cursor < offset+nufxRecordHeaderLenMin {
			cursor = offset + int64(attribCount)
		}

		for t := uint32(0); t < numThreads; t++ {
			var thdr [16]byte
			if _, err := src.ReadAt(cursor, thdr[:]); err != nil {
				return nil, 0, 0, Wrap(ErrBadArchiveStruct, err, "nufx thread")
			}
			threadClass := binary.LittleEndian.Uint16(thdr[0:2])
			threadFormat := binary.LittleEndian.Uint16(thdr[2:4])
			compThreadEOF := binary.LittleEndian.Uint32(thdr[8:12])
			compThreadLen := binary.LittleEndian.Uint32(thdr[12:16])
			threadDataOffset := cursor + 16

			if threadClass == 2 { // disk image
				if threadFormat != 0 {
					return nil, 0, 0, New(ErrUnsupportedCompression,
						"nufx disk thread uses compression format %d", threadFormat)
				}
				rec := &nufxRecord{threadFormat: threadFormat,
					compThread: int64(compThreadLen), uncompThread: int64(compThreadEOF)}
				return rec, threadDataOffset, int64(compThreadEOF), nil
			}
			cursor = threadDataOffset + int64(compThreadLen)
		}
		offset = cursor
	}
	return nil, 0, 0, New(ErrFilesystemNotFound, "no disk image thread in nufx archive")
}

func (w *NuFXWrapper) Flush(dst ByteSource, payload ByteSource, payloadLen int64) (int64, error) {
	return 0, New(ErrUnsupportedImageFeature, "nufx write-back not supported")
}

func (w *NuFXWrapper) HasFastFlush() bool { return false }
