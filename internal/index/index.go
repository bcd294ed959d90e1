package index

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/meigma/apk/internal/apktype"
	"github.com/meigma/apk/internal/direntry"
)

// Config controls how an archive directory is loaded.
type Config struct {
	// Decoder decodes each directory entry. Nil uses strict UTF-8.
	Decoder *direntry.Decoder

	// MaxFiles caps the entry count declared by the header.
	// Zero disables the limit.
	MaxFiles uint32

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

func (c *Config) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Index maps archive paths to their directory entries.
//
// An Index is immutable once loaded and safe for concurrent use.
type Index struct {
	header  apktype.Header
	entries map[string]apktype.Entry
	names   []string // sorted
}

// Load reads the header and walks the directory chain of the archive held
// in src, which is size bytes long.
//
// Entries are found by following each entry's NextEntryOffset from the
// header's DirOffset; they need not be contiguous or in any order on disk.
// When a path occurs more than once, the entry found later in the chain wins.
func Load(src io.ReaderAt, size int64, cfg Config) (*Index, error) {
	c := direntry.NewCursor(src, size)

	raw, err := c.Bytes(apktype.HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header, err := apktype.ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFiles > 0 && header.FileCount > cfg.MaxFiles {
		return nil, fmt.Errorf("%w: header declares %d, limit %d", apktype.ErrTooManyFiles, header.FileCount, cfg.MaxFiles)
	}

	log := cfg.log()
	log.Debug("archive header",
		"file_count", header.FileCount,
		"dir_offset", header.DirOffset,
		"files_offset", header.FilesOffset,
	)

	if err := c.Seek(int64(header.DirOffset)); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	entries := make(map[string]apktype.Entry, min(header.FileCount, 1<<16))
	next := int64(header.DirOffset)
	for i := range header.FileCount {
		if i > 0 {
			if err := c.Seek(next); err != nil {
				return nil, fmt.Errorf("directory entry %d: %w", i, err)
			}
		}
		entry, _, err := cfg.Decoder.Decode(c)
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		if prev, ok := entries[entry.Path]; ok {
			log.Debug("duplicate path replaced", "path", entry.Path,
				"old_offset", prev.DataOffset, "new_offset", entry.DataOffset)
		}
		entries[entry.Path] = entry
		next = int64(entry.NextEntryOffset)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	return &Index{header: header, entries: entries, names: names}, nil
}

// Header returns the archive header.
func (idx *Index) Header() apktype.Header {
	return idx.header
}

// Len returns the number of distinct paths in the index.
func (idx *Index) Len() int {
	return len(idx.names)
}

// Lookup returns the entry for path.
func (idx *Index) Lookup(path string) (apktype.Entry, bool) {
	e, ok := idx.entries[path]
	return e, ok
}

// Names returns a sorted copy of all paths.
func (idx *Index) Names() []string {
	return slices.Clone(idx.names)
}

// Entries returns an iterator over all entries in path order.
func (idx *Index) Entries() iter.Seq[apktype.Entry] {
	return idx.EntriesWithPrefix("")
}

// EntriesWithPrefix returns an iterator, in path order, over entries whose
// path starts with prefix.
func (idx *Index) EntriesWithPrefix(prefix string) iter.Seq[apktype.Entry] {
	return func(yield func(apktype.Entry) bool) {
		start := sort.SearchStrings(idx.names, prefix)
		for _, name := range idx.names[start:] {
			if !strings.HasPrefix(name, prefix) {
				return
			}
			if !yield(idx.entries[name]) {
				return
			}
		}
	}
}
