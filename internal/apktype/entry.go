package apktype

import "fmt"

// EntryTrailerSize is the size of the four uint32 fields that follow the
// path bytes of a directory entry.
const EntryTrailerSize = 16

// MinEntrySize is the smallest possible encoded directory entry: the
// length prefix, an empty path's terminator and the trailer.
const MinEntrySize = 4 + 1 + EntryTrailerSize

// Entry describes one packed file.
type Entry struct {
	// Path is the slash-separated archive path (e.g., "data/maps/a.bin").
	// Backslashes stored in the archive are converted to slashes.
	Path string

	// DataOffset is the absolute byte offset of the file's content.
	DataOffset uint32

	// DataSize is the length of the file's content in bytes.
	DataSize uint32

	// NextEntryOffset is the absolute offset of the next directory entry.
	// It is meaningless for the last entry in the chain.
	NextEntryOffset uint32

	// Reserved is stored by the format but has no known meaning.
	Reserved uint32
}

// End returns the exclusive end offset of the entry's content.
func (e Entry) End() uint64 {
	return uint64(e.DataOffset) + uint64(e.DataSize)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s @ 0x%016X", e.Path, e.DataOffset)
}
