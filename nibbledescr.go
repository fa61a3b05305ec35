package diskimg

// Encoding selects the disk-byte alphabet and payload layout used to
// nibblize a track: 6-and-2 (16 sectors/track) or 5-and-3 (13
// sectors/track). Spec.md §4.5, GLOSSARY.
type Encoding int

const (
	Encoding62 Encoding = iota
	Encoding53
)

// Special captures the handful of non-standard variants spec.md §4.5
// calls out by name.
type Special int

const (
	SpecialNone Special = iota
	SpecialMuse                 // Muse DOS 3.2: sectors written doubled
	SpecialSkipFirstAddrByte     // RDOS 3.3: first address byte is skipped
)

// NibbleDescr is a named profile of prolog/epilog/checksum/encoding
// parameters describing one nibble variant (GLOSSARY). The standard
// profiles below are ported verbatim from CiderPress's
// DiskImg::kStdNibbleDescrs (original_source/diskimg/DiskImg.cpp), which
// is the table spec.md §4.5/§9 refers to.
type NibbleDescr struct {
	Name string

	NumSectors int

	AddrProlog [3]byte
	AddrEpilog [3]byte
	AddrChecksumSeed   byte
	AddrVerifyChecksum bool
	VerifyTrack        bool
	AddrEpilogVerifyCount int

	DataProlog [3]byte
	DataEpilog [3]byte
	DataChecksumSeed   byte
	DataVerifyChecksum bool
	DataEpilogVerifyCount int

	Encoding Encoding
	Special  Special
}

// StdNibbleDescrs are the standard profiles, tried in this fixed order
// (spec.md §4.5: "attempts standard profiles in a fixed order"). The
// final "Custom" entry is a placeholder: NumSectors 0 marks it as unused
// until an application supplies a custom NibbleDescr to override it
// (spec.md §4.5 "Custom").
var StdNibbleDescrs = []NibbleDescr{
	{
		Name:                  "DOS 3.3 Standard",
		NumSectors:            16,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0x96},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    true,
		VerifyTrack:           true,
		AddrEpilogVerifyCount: 2,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 2,
		Encoding:              Encoding62,
		Special:               SpecialNone,
	},
	{
		Name:                  "DOS 3.3 Patched",
		NumSectors:            16,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0x96},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    false,
		VerifyTrack:           false,
		AddrEpilogVerifyCount: 0,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 0,
		Encoding:              Encoding62,
		Special:               SpecialNone,
	},
	{
		Name:                  "DOS 3.3 Ignore Checksum",
		NumSectors:            16,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0x96},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    false,
		VerifyTrack:           false,
		AddrEpilogVerifyCount: 0,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    false,
		DataEpilogVerifyCount: 0,
		Encoding:              Encoding62,
		Special:               SpecialNone,
	},
	{
		Name:                  "DOS 3.2 Standard",
		NumSectors:            13,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0xb5},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    true,
		VerifyTrack:           true,
		AddrEpilogVerifyCount: 2,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 2,
		Encoding:              Encoding53,
		Special:               SpecialNone,
	},
	{
		Name:                  "DOS 3.2 Patched",
		NumSectors:            13,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0xb5},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    false,
		VerifyTrack:           false,
		AddrEpilogVerifyCount: 0,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 0,
		Encoding:              Encoding53,
		Special:               SpecialNone,
	},
	{
		// standard DOS 3.2 with doubled sectors
		Name:                  "Muse DOS 3.2",
		NumSectors:            13,
		AddrProlog:            [3]byte{0xd5, 0xaa, 0xb5},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    true,
		VerifyTrack:           true,
		AddrEpilogVerifyCount: 2,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 2,
		Encoding:              Encoding53,
		Special:               SpecialMuse,
	},
	{
		// SSI 16-sector RDOS, with altered headers: odd tracks use
		// d4aa96, even tracks use d5aa96 (AddrProlog here is the odd-
		// track prolog; the codec swaps in 0xd5 for even tracks).
		Name:                  "RDOS 3.3",
		NumSectors:            16,
		AddrProlog:            [3]byte{0xd4, 0xaa, 0x96},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    true,
		VerifyTrack:           true,
		AddrEpilogVerifyCount: 0,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 2,
		Encoding:              Encoding62,
		Special:               SpecialSkipFirstAddrByte,
	},
	{
		// SSI 13-sector RDOS, with altered headers
		Name:                  "RDOS 3.2",
		NumSectors:            13,
		AddrProlog:            [3]byte{0xd4, 0xaa, 0xb7},
		AddrEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		AddrChecksumSeed:      0x00,
		AddrVerifyChecksum:    true,
		VerifyTrack:           true,
		AddrEpilogVerifyCount: 2,
		DataProlog:            [3]byte{0xd5, 0xaa, 0xad},
		DataEpilog:            [3]byte{0xde, 0xaa, 0xeb},
		DataChecksumSeed:      0x00,
		DataVerifyChecksum:    true,
		DataEpilogVerifyCount: 2,
		Encoding:              Encoding53,
		Special:               SpecialNone,
	},
	{
		// reserved slot for an application-supplied custom profile
		Name:       "Custom",
		NumSectors: 0,
	},
}

// nibble62 is the standard 6-and-2 disk-byte alphabet: 64 values from
// 0x96 through 0xff with defined gaps (spec.md §6, ported from teacher's
// NIBBLE_62).
var nibble62 = []byte{
	0x96, 0x97, 0x9a, 0x9b, 0x9d, 0x9e, 0x9f, 0xa6,
	0xa7, 0xab, 0xac, 0xad, 0xae, 0xaf, 0xb2, 0xb3,
	0xb4, 0xb5, 0xb6, 0xb7, 0xb9, 0xba, 0xbb, 0xbc,
	0xbd, 0xbe, 0xbf, 0xcb, 0xcd, 0xce, 0xcf, 0xd3,
	0xd6, 0xd7, 0xd9, 0xda, 0xdb, 0xdc, 0xdd, 0xde,
	0xdf, 0xe5, 0xe6, 0xe7, 0xe9, 0xea, 0xeb, 0xec,
	0xed, 0xee, 0xef, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6,
	0xf7, 0xf9, 0xfa, 0xfb, 0xfc, 0xfd, 0xfe, 0xff,
}

// nibble53 is the 32-entry 5-and-3 disk-byte alphabet, ported from
// teacher's NIBBLE_53.
var nibble53 = []byte{
	0xab, 0xad, 0xae, 0xaf, 0xb5, 0xb6, 0xb7, 0xba,
	0xbb, 0xbd, 0xbe, 0xbf, 0xd6, 0xd7, 0xda, 0xdb,
	0xdd, 0xde, 0xdf, 0xea, 0xeb, 0xed, 0xee, 0xef,
	0xf5, 0xf6, 0xf7, 0xfa, 0xfb, 0xfd, 0xfe, 0xff,
}

var nibble62Decode = buildDecodeTable(nibble62)
var nibble53Decode = buildDecodeTable(nibble53)

func buildDecodeTable(alphabet []byte) map[byte]int {
	m := make(map[byte]int, len(alphabet))
	for v, b := range alphabet {
		m[b] = v
	}
	return m
}
