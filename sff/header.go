package sff

import (
	"fmt"

	"github.com/sourcekris/sffextract/common"
)

// signature opens every archive regardless of generation: eleven ASCII
// characters plus a terminating NUL.
const signature = "ElecbyteSpr\x00"

const (
	headerMin   = 32 // smallest buffer the sniffer accepts
	verMajorOfs = 15 // version-major byte within the header
)

// Version identifies the container layout of an archive.
type Version int

const (
	// V1 stores sprites as a singly-linked list of sub-file records.
	V1 Version = iota + 1
	// V2 stores sprites as a flat fixed-stride index over two data regions.
	V2
)

// String returns the string representation of the Version.
func (v Version) String() string {
	switch v {
	case V1:
		return "SFFv1"
	case V2:
		return "SFFv2"
	default:
		return "Unknown"
	}
}

// archive is the parsed handle for one extraction call: the raw buffer plus
// the header fields of whichever layout the sniffer selected. It is never
// mutated after open.
type archive struct {
	data []byte
	ver  Version

	// v1
	numSprites uint32
	firstSub   uint32

	// v2
	spriteOfs   uint32
	spriteCount uint32
	palOfs      uint32
	palCount    uint32
	ldataOfs    uint32
	tdataOfs    uint32
}

// sniff classifies the buffer by signature and version-major byte. It does
// no other validation; downstream reads re-check every offset against the
// buffer length.
func sniff(data []byte) (Version, error) {
	if len(data) < headerMin {
		return 0, fmt.Errorf("%w: %d bytes, need at least %d", ErrFileTooSmall, len(data), headerMin)
	}
	if string(data[:len(signature)]) != signature {
		return 0, ErrInvalidSignature
	}
	switch ver := data[verMajorOfs]; {
	case ver >= 2:
		return V2, nil
	case ver == 1:
		return V1, nil
	default:
		return 0, fmt.Errorf("%w: version major %d", ErrUnsupportedVersion, ver)
	}
}

func open(data []byte) (*archive, error) {
	ver, err := sniff(data)
	if err != nil {
		return nil, err
	}
	a := &archive{data: data, ver: ver}
	switch ver {
	case V1:
		a.numSprites = common.U32(data, 20)
		a.firstSub = common.U32(data, 24)
		if int64(a.firstSub) > int64(len(data)) {
			return nil, fmt.Errorf("%w: first sub-file offset %d beyond %d-byte file",
				ErrCorruptedData, a.firstSub, len(data))
		}
	case V2:
		if len(data) < 64 {
			return nil, fmt.Errorf("%w: v2 header needs 64 bytes, have %d", ErrCorruptedData, len(data))
		}
		a.spriteOfs = common.U32(data, 36)
		a.spriteCount = common.U32(data, 40)
		a.palOfs = common.U32(data, 44)
		a.palCount = common.U32(data, 48)
		a.ldataOfs = common.U32(data, 52)
		a.tdataOfs = common.U32(data, 60)
		if int64(a.spriteOfs) > int64(len(data)) {
			return nil, fmt.Errorf("%w: sprite list offset %d beyond %d-byte file",
				ErrCorruptedData, a.spriteOfs, len(data))
		}
	}
	return a, nil
}
