package apk

import (
	"log/slog"

	"golang.org/x/text/encoding"
)

// DefaultMaxFiles is the default cap on the entry count an archive header
// may declare.
const DefaultMaxFiles = 1 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets a logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxFileSize limits the size of any single file read or extracted.
// Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithMaxFiles limits the number of entries the header may declare
// (default: DefaultMaxFiles). A corrupt count or a cycle in the directory
// chain is then rejected instead of being walked. Set n to 0 to disable
// the limit.
func WithMaxFiles(n uint32) Option {
	return func(a *Archive) {
		a.maxFiles = n
	}
}

// WithPathEncoding decodes stored paths with enc instead of strict UTF-8,
// for archives written with a legacy code page such as
// charmap.Windows1252.
func WithPathEncoding(enc encoding.Encoding) Option {
	return func(a *Archive) {
		a.pathEncoding = enc
	}
}
