package apk

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/text/encoding"

	"github.com/meigma/apk/internal/direntry"
	"github.com/meigma/apk/internal/file"
	"github.com/meigma/apk/internal/index"
)

// ByteSource provides random access to the archive bytes.
//
// *os.File (via Open), *bytes.Reader and the http subpackage's Source all
// satisfy it.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Archive provides lookup and extraction of the files in an archive.
//
// The directory is read once by New or Open and never changes afterward.
// All content reads are positional (io.ReaderAt), so an Archive is safe
// for concurrent use when its ByteSource is; *os.File is.
type Archive struct {
	idx    *index.Index
	reader *file.Reader
	closer io.Closer
	closed atomic.Bool

	maxFileSize  uint64
	maxFiles     uint32
	pathEncoding encoding.Encoding
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New reads the header and directory of the archive held in source.
//
// The caller keeps ownership of source; Close on the returned Archive does
// not close it.
func New(source ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		maxFileSize: file.DefaultMaxFileSize,
		maxFiles:    DefaultMaxFiles,
	}
	for _, opt := range opts {
		opt(a)
	}

	idx, err := index.Load(source, source.Size(), index.Config{
		Decoder:  direntry.NewDecoder(a.pathEncoding),
		MaxFiles: a.maxFiles,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.idx = idx
	a.reader = file.NewReader(source, file.WithMaxFileSize(a.maxFileSize))

	a.log().Debug("archive loaded", "files", idx.Len(), "size", source.Size())
	return a, nil
}

// Open opens the archive file at path.
//
// The returned Archive owns the file handle and must be closed. If the
// archive cannot be parsed, the handle is released before Open returns.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("%w: open archive: %w", ErrIO, err)
	}
	source, err := newFileSource(f)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, err
	}
	a, err := New(source, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// Close releases the archive's file handle, if it owns one.
//
// After Close, operations that read file content fail with fs.ErrClosed.
// Directory metadata (Names, Entry, Header) remains available. Close is
// idempotent.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// checkOpen returns a *fs.PathError wrapping fs.ErrClosed once the
// archive has been closed.
func (a *Archive) checkOpen(op, name string) error {
	if a.closed.Load() {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrClosed}
	}
	return nil
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.idx.Header()
}

// Size returns the size of the archive in bytes.
func (a *Archive) Size() int64 {
	return a.reader.Source().Size()
}

// Len returns the number of distinct paths in the archive.
func (a *Archive) Len() int {
	return a.idx.Len()
}

// Names returns every path in the archive, sorted ascending.
// The returned slice is a copy and may be modified.
func (a *Archive) Names() []string {
	return a.idx.Names()
}

// Entry returns the directory entry for name.
func (a *Archive) Entry(name string) (Entry, bool) {
	return a.idx.Lookup(name)
}

// Entries returns an iterator over all entries in path order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return a.idx.Entries()
}

// EntriesWithPrefix returns an iterator, in path order, over entries whose
// path starts with prefix.
func (a *Archive) EntriesWithPrefix(prefix string) iter.Seq[Entry] {
	return a.idx.EntriesWithPrefix(prefix)
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat archive: %w", ErrIO, err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (s *fileSource) Size() int64 {
	return s.size
}

// Interface compliance.
var _ ByteSource = (*fileSource)(nil)
