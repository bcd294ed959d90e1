package file

import "github.com/meigma/apk/internal/apktype"

// Entry is an alias for apktype.Entry.
type Entry = apktype.Entry

// Re-export sentinel errors.
var (
	ErrOutOfBounds  = apktype.ErrOutOfBounds
	ErrSizeOverflow = apktype.ErrSizeOverflow
	ErrIO           = apktype.ErrIO
	ErrTruncated    = apktype.ErrTruncated
)
