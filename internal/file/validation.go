package file

import (
	"fmt"

	"github.com/meigma/apk/internal/sizing"
)

// ValidateForRead checks that an entry is safe to read from a source of the given size.
// It validates:
//   - File size is within maxFileSize limit (if limit > 0)
//   - Data range [DataOffset, DataOffset+DataSize) is within source bounds
func ValidateForRead(entry *Entry, sourceSize int64, maxFileSize uint64) error {
	if maxFileSize > 0 && uint64(entry.DataSize) > maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrSizeOverflow, entry.DataSize, maxFileSize)
	}
	if !sizing.Fits(uint64(entry.DataOffset), uint64(entry.DataSize), sourceSize) {
		return fmt.Errorf("%w: [%#x, %#x) beyond %d bytes", ErrOutOfBounds, entry.DataOffset, entry.End(), sourceSize)
	}
	return nil
}
