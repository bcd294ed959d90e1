package apktype

import (
	"errors"
	"io/fs"
)

// Sentinel errors shared by the archive packages.
var (
	// ErrNotAnArchive is returned when the header magic does not match.
	ErrNotAnArchive = errors.New("apk: not an archive")

	// ErrTruncated is returned when a header or directory read runs past
	// the end of the backing storage.
	ErrTruncated = errors.New("apk: truncated")

	// ErrMalformedPath is returned when an entry's declared path length
	// disagrees with the position of its NUL terminator.
	ErrMalformedPath = errors.New("apk: malformed path string")

	// ErrInvalidEncoding is returned when path bytes cannot be decoded.
	ErrInvalidEncoding = errors.New("apk: invalid path encoding")

	// ErrNotFound is returned when a name is not in the archive.
	ErrNotFound = fs.ErrNotExist

	// ErrOutOfBounds is returned when an entry's data range exceeds the
	// backing storage.
	ErrOutOfBounds = errors.New("apk: entry data out of bounds")

	// ErrIO wraps filesystem and storage failures.
	ErrIO = errors.New("apk: i/o error")

	// ErrTooManyFiles is returned when the header declares more entries
	// than the configured limit.
	ErrTooManyFiles = errors.New("apk: too many files")

	// ErrSizeOverflow is returned when an entry exceeds the configured
	// per-file size limit or a size does not fit the platform int.
	ErrSizeOverflow = errors.New("apk: size overflow")
)
