package apktype

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size in bytes of the fixed archive header.
const HeaderSize = 16

// Magic is the 4-byte signature every archive starts with.
var Magic = [4]byte{0x57, 0x23, 0x00, 0x00}

// Header is the fixed 16-byte archive header.
//
// All integers are stored little-endian. FilesOffset is not needed to
// extract files but is kept so the header round-trips unchanged.
type Header struct {
	Magic       [4]byte
	FilesOffset uint32
	FileCount   uint32
	DirOffset   uint32
}

// ParseHeader decodes a header from the first HeaderSize bytes of b.
//
// It returns ErrTruncated if b is too short and ErrNotAnArchive if the
// magic does not match.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes, need %d", ErrTruncated, len(b), HeaderSize)
	}
	var h Header
	copy(h.Magic[:], b[0:4])
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic % x", ErrNotAnArchive, h.Magic[:])
	}
	h.FilesOffset = binary.LittleEndian.Uint32(b[4:8])
	h.FileCount = binary.LittleEndian.Uint32(b[8:12])
	h.DirOffset = binary.LittleEndian.Uint32(b[12:16])
	return h, nil
}

// AppendBinary appends the on-disk encoding of h to b.
func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, h.Magic[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.FilesOffset)
	b = binary.LittleEndian.AppendUint32(b, h.FileCount)
	b = binary.LittleEndian.AppendUint32(b, h.DirOffset)
	return b, nil
}

// MarshalBinary returns the 16-byte on-disk encoding of h.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, HeaderSize))
}
