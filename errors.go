package apk

import "github.com/meigma/apk/internal/apktype"

// Sentinel errors re-exported from internal/apktype.
var (
	// ErrNotAnArchive is returned when the header magic does not match.
	ErrNotAnArchive = apktype.ErrNotAnArchive

	// ErrTruncated is returned when the header or directory runs past the
	// end of the archive.
	ErrTruncated = apktype.ErrTruncated

	// ErrMalformedPath is returned when a directory entry's declared path
	// length disagrees with the position of its NUL terminator.
	ErrMalformedPath = apktype.ErrMalformedPath

	// ErrInvalidEncoding is returned when path bytes cannot be decoded.
	ErrInvalidEncoding = apktype.ErrInvalidEncoding

	// ErrNotFound is returned when a name is not in the archive.
	// It is fs.ErrNotExist.
	ErrNotFound = apktype.ErrNotFound

	// ErrOutOfBounds is returned when an entry's data extends past the end
	// of the archive.
	ErrOutOfBounds = apktype.ErrOutOfBounds

	// ErrIO wraps filesystem and storage failures. The underlying error,
	// usually an *fs.PathError, is also in the chain.
	ErrIO = apktype.ErrIO

	// ErrTooManyFiles is returned when the header declares more entries
	// than allowed by WithMaxFiles.
	ErrTooManyFiles = apktype.ErrTooManyFiles

	// ErrSizeOverflow is returned when an entry exceeds WithMaxFileSize.
	ErrSizeOverflow = apktype.ErrSizeOverflow
)
