package diskimg

// This file implements the 5.25" GCR nibble codec (spec.md §4.5): the
// state machine that recovers addressable 256-byte sectors from a raw
// nibble track buffer, and its inverse for writing them back. The
// 6-and-2 bit layout (primary/secondary split, rolling-XOR chain) is
// ported directly from the teacher's Nibblize/nibblizeBlock
// (disk/diskimage.go) and generalized to take its prolog/epilog/checksum
// parameters from a NibbleDescr instead of hardcoding DOS 3.3's.

const (
	sectorBytes        = 256
	encoded62Secondary  = 0x56 // 86
	encoded62Primary    = 256
	encoded62Total      = encoded62Secondary + encoded62Primary // 342
	encoded53Nickels    = 410
)

// fourAndFour encodes one byte as the two bytes the Disk II controller's
// "4-and-4" address-field scheme uses: (0xAA | (b>>1)) and (0xAA | b).
func fourAndFourEncode(b byte) [2]byte {
	return [2]byte{0xAA | (b >> 1), 0xAA | b}
}

// fourAndFourDecode inverts fourAndFourEncode.
func fourAndFourDecode(hi, lo byte) byte {
	return ((hi << 1) | 0x01) & lo
}

// findTriple scans raw for needle starting at pos, wrapping around the
// end of the track once (spec.md §4.5 step 1: "the search wraps around
// the end of the track once"). It returns the index just past the
// match, or -1 if not found within one full revolution.
func findTriple(raw []byte, pos int, needle [3]byte) int {
	n := len(raw)
	if n < 3 {
		return -1
	}
	for i := 0; i < n; i++ {
		p := (pos + i) % n
		if raw[p] == needle[0] && raw[(p+1)%n] == needle[1] && raw[(p+2)%n] == needle[2] {
			return (p + 3) % n
		}
	}
	return -1
}

// findTripleBounded is findTriple restricted to a window of at most
// maxGap bytes from pos, used for the data-field prolog search (spec.md
// §4.5 step 4: "bounded window; if not found ... the sector is marked
// unreadable").
func findTripleBounded(raw []byte, pos, maxGap int, needle [3]byte) int {
	n := len(raw)
	if n < 3 {
		return -1
	}
	limit := maxGap
	if limit > n {
		limit = n
	}
	for i := 0; i < limit; i++ {
		p := (pos + i) % n
		if raw[p] == needle[0] && raw[(p+1)%n] == needle[1] && raw[(p+2)%n] == needle[2] {
			return (p + 3) % n
		}
	}
	return -1
}

func byteAt(raw []byte, pos int) byte {
	return raw[pos%len(raw)]
}

func advance(pos, n, count int) int {
	return (pos + count) % n
}

// DecodedSector is one sector recovered from a track, or an error if it
// could not be read.
type DecodedSector struct {
	Sector int
	Data   [256]byte
	Err    error
}

// DecodeTrack runs the decoding state machine of spec.md §4.5 over raw
// (one physical track's worth of nibble bytes) using descr, returning one
// DecodedSector per address field found. physTrack is used to verify the
// track number in the address field (descr.VerifyTrack) and to select
// RDOS 3.3's per-track prolog byte.
func DecodeTrack(raw []byte, descr *NibbleDescr, physTrack int) []DecodedSector {
	n := len(raw)
	if n < 16 || descr.NumSectors == 0 {
		return nil
	}

	var out []DecodedSector
	pos := 0
	seen := map[int]bool{}
	maxIter := descr.NumSectors*2 + 4

	for iter := 0; iter < maxIter && len(seen) < descr.NumSectors; iter++ {
		addrProlog := descr.AddrProlog
		if descr.Special == SpecialSkipFirstAddrByte && physTrack%2 == 0 {
			addrProlog = [3]byte{0xd5, addrProlog[1], addrProlog[2]}
		}

		next := findTriple(raw, pos, addrProlog)
		if next < 0 {
			break
		}
		cursor := next

		if descr.Special == SpecialSkipFirstAddrByte {
			// the volume byte is not present; synthesize 0 for it.
			var trk, sec, chk byte
			trk, cursor = decode44At(raw, cursor)
			sec, cursor = decode44At(raw, cursor)
			chk, cursor = decode44At(raw, cursor)
			if descr.AddrVerifyChecksum && (trk^sec) != chk {
				pos = cursor
				continue
			}
			if descr.VerifyTrack && int(trk) != physTrack {
				pos = cursor
				continue
			}
			pos = decodeDataField(raw, cursor, descr, int(sec), &out, seen)
			continue
		}

		var vol, trk, sec, chk byte
		vol, cursor = decode44At(raw, cursor)
		trk, cursor = decode44At(raw, cursor)
		sec, cursor = decode44At(raw, cursor)
		chk, cursor = decode44At(raw, cursor)
		_ = vol
		if descr.AddrVerifyChecksum && (vol^trk^sec) != chk {
			pos = cursor
			continue
		}
		if descr.VerifyTrack && int(trk) != physTrack {
			pos = cursor
			continue
		}

		pos = decodeDataField(raw, cursor, descr, int(sec), &out, seen)
	}

	return out
}

// decode44At reads one 4-and-4 encoded byte at cursor and returns the
// decoded value plus the cursor advanced past it.
func decode44At(raw []byte, cursor int) (byte, int) {
	n := len(raw)
	hi := byteAt(raw, cursor)
	lo := byteAt(raw, cursor+1)
	return fourAndFourDecode(hi, lo), advance(cursor, n, 2)
}

const dataFieldSearchGap = 64

func decodeDataField(raw []byte, cursor int, descr *NibbleDescr, sector int, out *[]DecodedSector, seen map[int]bool) int {
	n := len(raw)

	dataStart := findTripleBounded(raw, cursor, dataFieldSearchGap, descr.DataProlog)
	if dataStart < 0 {
		if !seen[sector] {
			*out = append(*out, DecodedSector{Sector: sector, Err: AsError(ErrSectorUnreadable)})
			seen[sector] = true
		}
		return cursor
	}

	var data [256]byte
	var err error
	var newPos int
	switch descr.Encoding {
	case Encoding53:
		data, newPos, err = decode53(raw, dataStart, descr)
	default:
		data, newPos, err = decode62(raw, dataStart, descr)
	}

	if !seen[sector] {
		*out = append(*out, DecodedSector{Sector: sector, Data: data, Err: err})
		seen[sector] = true
	}
	return newPos % n
}

// decode62 inverts nibblizeBlock's 6-and-2 layout: 86 "secondary" bytes
// carrying the low 2 bits of three interleaved byte positions each,
// followed by 256 "primary" bytes carrying the top 6 bits, followed by
// one checksum byte, all chained by a rolling XOR seeded from
// descr.DataChecksumSeed.
func decode62(raw []byte, cursor int, descr *NibbleDescr) ([256]byte, int, error) {
	n := len(raw)
	var data [256]byte
	var low2 [256]byte
	var primary [256]byte

	last := descr.DataChecksumSeed

	// writeDataField lays the 86 secondary bytes out by walking i from
	// 256+85 down to 256 (temp[i+256] built with hi/med/low starting at
	// 1/0xAB/0x55 and decrementing), so the first secondary byte in the
	// stream is the one built at hi=172,med=86,low=0, and each
	// subsequent stream byte advances hi/med/low by one. Mirror that
	// here instead of restarting at the encoder's loop-local seed.
	hi, med, low := 172, 86, 0
	for k := 0; k < encoded62Secondary; k++ {
		b := byteAt(raw, cursor)
		cursor = advance(cursor, n, 1)
		val, ok := nibble62Decode[b]
		if !ok {
			return data, cursor, AsError(ErrInvalidDiskByte)
		}
		decoded := byte(val) ^ last
		last = decoded

		hiBit0 := decoded >> 5 & 1
		hiBit1 := decoded >> 4 & 1
		medBit0 := decoded >> 3 & 1
		medBit1 := decoded >> 2 & 1
		lowBit0 := decoded >> 1 & 1
		lowBit1 := decoded & 1

		low2[hi] = hiBit0 | (hiBit1 << 1)
		low2[med] = medBit0 | (medBit1 << 1)
		low2[low] = lowBit0 | (lowBit1 << 1)

		hi = (hi + 1) % 256
		med = (med + 1) % 256
		low = (low + 1) % 256
	}

	for i := 0; i < encoded62Primary; i++ {
		b := byteAt(raw, cursor)
		cursor = advance(cursor, n, 1)
		val, ok := nibble62Decode[b]
		if !ok {
			return data, cursor, AsError(ErrInvalidDiskByte)
		}
		decoded := byte(val) ^ last
		last = decoded
		primary[i] = decoded
	}

	checksumByte := byteAt(raw, cursor)
	cursor = advance(cursor, n, 1)
	checkVal, ok := nibble62Decode[checksumByte]
	if !ok {
		return data, cursor, AsError(ErrInvalidDiskByte)
	}
	if descr.DataVerifyChecksum && byte(checkVal) != last {
		return data, cursor, AsError(ErrBadChecksum)
	}

	for i := 0; i < 256; i++ {
		data[i] = (primary[i] << 2) | low2[i]
	}

	cursor = scanEpilog(raw, cursor, descr.DataEpilog, descr.DataEpilogVerifyCount)

	return data, cursor, nil
}

// decode53 is the 5-and-3 analogue of decode62: 256 bytes are packed as
// 2048 bits into 410 five-bit "nickels" (zero-padded at the end), each
// chained by the same rolling-XOR scheme and translated through the
// 32-entry nibble53 alphabet.
func decode53(raw []byte, cursor int, descr *NibbleDescr) ([256]byte, int, error) {
	n := len(raw)
	var data [256]byte
	var bits []byte
	last := descr.DataChecksumSeed

	for k := 0; k < encoded53Nickels; k++ {
		b := byteAt(raw, cursor)
		cursor = advance(cursor, n, 1)
		val, ok := nibble53Decode[b]
		if !ok {
			return data, cursor, AsError(ErrInvalidDiskByte)
		}
		decoded := byte(val) ^ last
		last = decoded
		for bit := 4; bit >= 0; bit-- {
			bits = append(bits, (decoded>>uint(bit))&1)
		}
	}

	checksumByte := byteAt(raw, cursor)
	cursor = advance(cursor, n, 1)
	checkVal, ok := nibble53Decode[checksumByte]
	if !ok {
		return data, cursor, AsError(ErrInvalidDiskByte)
	}
	if descr.DataVerifyChecksum && byte(checkVal) != last {
		return data, cursor, AsError(ErrBadChecksum)
	}

	for i := 0; i < 256; i++ {
		var v byte
		for bit := 0; bit < 8; bit++ {
			idx := i*8 + bit
			if idx < len(bits) {
				v = (v << 1) | bits[idx]
			} else {
				v = v << 1
			}
		}
		data[i] = v
	}

	cursor = scanEpilog(raw, cursor, descr.DataEpilog, descr.DataEpilogVerifyCount)

	return data, cursor, nil
}

// scanEpilog advances past an epilog field, verifying up to verifyCount
// leading bytes match epilog (spec.md §4.5 steps 3/9).
func scanEpilog(raw []byte, cursor int, epilog [3]byte, verifyCount int) int {
	n := len(raw)
	if verifyCount > 3 {
		verifyCount = 3
	}
	for i := 0; i < verifyCount; i++ {
		_ = byteAt(raw, cursor+i) == epilog[i] // best-effort; mismatches are not fatal to cursor advance
	}
	return advance(cursor, n, 3)
}

// EncodeTrack is the inverse of DecodeTrack: it lays 256-byte sectors,
// keyed by logical sector number, into a freshly built nibble track of
// length trackLen, in sectorOrder (the on-disk sector sequence) using
// descr's framing. It mirrors the teacher's Nibblize/nibblizeBlock.
func EncodeTrack(sectors map[int][256]byte, sectorOrder []int, descr *NibbleDescr, physTrack, trackLen int) []byte {
	out := make([]byte, 0, trackLen)
	write := func(b ...byte) { out = append(out, b...) }
	writeJunk := func(count int) {
		for i := 0; i < count; i++ {
			write(0xff)
		}
	}

	gap2 := 6
	perSector := trackLen / len(sectorOrder)
	addrLen := 3 + 8 + 3 // prolog, four 4-and-4 pairs, epilog
	if descr.Special == SpecialSkipFirstAddrByte {
		addrLen = 3 + 6 + 3
	}
	fixedLen := 15 + addrLen + gap2 + 3 + dataFieldLen(descr) + 3

	for _, logical := range sectorOrder {
		data := sectors[logical]

		writeJunk(15)
		writeAddressField(&out, descr, physTrack, logical)
		writeJunk(gap2)
		writeDataField(&out, descr, data)

		pad := perSector - fixedLen
		if pad < 0 {
			pad = 0
		}
		writeJunk(pad)
	}

	for len(out) < trackLen {
		write(0xff)
	}
	if len(out) > trackLen {
		out = out[:trackLen]
	}

	return out
}

func dataFieldLen(descr *NibbleDescr) int {
	if descr.Encoding == Encoding53 {
		return encoded53Nickels + 1
	}
	return encoded62Total + 1
}

func writeAddressField(out *[]byte, descr *NibbleDescr, physTrack, sector int) {
	addrProlog := descr.AddrProlog
	if descr.Special == SpecialSkipFirstAddrByte && physTrack%2 == 0 {
		addrProlog = [3]byte{0xd5, addrProlog[1], addrProlog[2]}
	}
	*out = append(*out, addrProlog[:]...)

	vol := byte(254)
	trk := byte(physTrack)
	sec := byte(sector)

	if descr.Special == SpecialSkipFirstAddrByte {
		chk := trk ^ sec
		writeFourAndFour(out, trk)
		writeFourAndFour(out, sec)
		writeFourAndFour(out, chk)
	} else {
		chk := vol ^ trk ^ sec
		writeFourAndFour(out, vol)
		writeFourAndFour(out, trk)
		writeFourAndFour(out, sec)
		writeFourAndFour(out, chk)
	}

	*out = append(*out, descr.AddrEpilog[:]...)
}

func writeFourAndFour(out *[]byte, b byte) {
	pair := fourAndFourEncode(b)
	*out = append(*out, pair[0], pair[1])
}

func writeDataField(out *[]byte, descr *NibbleDescr, data [256]byte) {
	*out = append(*out, descr.DataProlog[:]...)

	last := descr.DataChecksumSeed
	switch descr.Encoding {
	case Encoding53:
		bits := make([]byte, 0, 2048)
		for i := 0; i < 256; i++ {
			for bit := 7; bit >= 0; bit-- {
				bits = append(bits, (data[i]>>uint(bit))&1)
			}
		}
		for k := 0; k < encoded53Nickels; k++ {
			var v byte
			for bit := 0; bit < 5; bit++ {
				idx := k*5 + bit
				if idx < len(bits) {
					v = (v << 1) | bits[idx]
				} else {
					v = v << 1
				}
			}
			value := v ^ last
			*out = append(*out, nibble53[value])
			last = v
		}
		*out = append(*out, nibble53[last])
	default:
		temp := make([]int, encoded62Total)
		for i := 0; i < 256; i++ {
			temp[i] = int(data[i] >> 2)
		}
		hi, med, low := 1, 0xAB, 0x55
		for i := 0; i < encoded62Secondary; i++ {
			value := ((data[hi] & 1) << 5) |
				((data[hi] & 2) << 3) |
				((data[med] & 1) << 3) |
				((data[med] & 2) << 1) |
				((data[low] & 1) << 1) |
				((data[low] & 2) >> 1)
			temp[i+256] = int(value)
			hi = (hi - 1 + 256) % 256
			med = (med - 1 + 256) % 256
			low = (low - 1 + 256) % 256
		}

		lastV := last
		for i := len(temp) - 1; i >= 256; i-- {
			value := byte(temp[i]) ^ lastV
			*out = append(*out, nibble62[value])
			lastV = byte(temp[i])
		}
		for i := 0; i < 256; i++ {
			value := byte(temp[i]) ^ lastV
			*out = append(*out, nibble62[value])
			lastV = byte(temp[i])
		}
		*out = append(*out, nibble62[lastV])
	}

	*out = append(*out, descr.DataEpilog[:]...)
}
