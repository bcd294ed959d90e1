package file

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/apk/internal/sizing"
)

// DefaultMaxFileSize is the default maximum file size. The format stores
// sizes as uint32, so this admits every representable entry.
const DefaultMaxFileSize = 1<<32 - 1

// ByteSource provides random access to the archive bytes.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Reader reads entry content from a ByteSource.
//
// All reads are positional, so a Reader is safe for concurrent use when
// its source is.
type Reader struct {
	source      ByteSource
	maxFileSize uint64
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxFileSize sets the maximum file size limit.
// Set to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(r *Reader) {
		r.maxFileSize = limit
	}
}

// NewReader creates a Reader for reading files from the given source.
func NewReader(source ByteSource, opts ...Option) *Reader {
	r := &Reader{
		source:      source,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source returns the underlying ByteSource.
func (r *Reader) Source() ByteSource {
	return r.source
}

// MaxFileSize returns the configured maximum file size.
func (r *Reader) MaxFileSize() uint64 {
	return r.maxFileSize
}

// Validate checks that entry can be read from this Reader's source.
func (r *Reader) Validate(entry *Entry) error {
	return ValidateForRead(entry, r.source.Size(), r.maxFileSize)
}

// Section returns a reader bounded to the entry's content after
// validating its range.
func (r *Reader) Section(entry *Entry) (*io.SectionReader, error) {
	if err := r.Validate(entry); err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Path, err)
	}
	return io.NewSectionReader(r.source, int64(entry.DataOffset), int64(entry.DataSize)), nil
}

// ReadAll reads the entire content of an entry.
func (r *Reader) ReadAll(entry *Entry) ([]byte, error) {
	section, err := r.Section(entry)
	if err != nil {
		return nil, err
	}
	size, err := sizing.ToInt(uint64(entry.DataSize), ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Path, err)
	}
	content := make([]byte, size)
	n, err := io.ReadFull(section, content)
	if err != nil {
		return nil, MapReadError(entry, n, err)
	}
	return content, nil
}

// CopyTo writes the entry's content to w and returns the bytes written.
func (r *Reader) CopyTo(w io.Writer, entry *Entry) (int64, error) {
	section, err := r.Section(entry)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, section)
	if err != nil {
		return n, MapReadError(entry, int(n), err)
	}
	if n != int64(entry.DataSize) {
		return n, MapReadError(entry, int(n), io.ErrUnexpectedEOF)
	}
	return n, nil
}

// MapReadError converts read errors to the package's sentinel errors.
// A short read means the source shrank after the range was validated.
func MapReadError(entry *Entry, n int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read %s: %w: short read (%d of %d bytes)", entry.Path, ErrTruncated, n, entry.DataSize)
	}
	return fmt.Errorf("read %s: %w: %w", entry.Path, ErrIO, err)
}
