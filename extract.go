package apk

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/meigma/apk/internal/batch"
)

// ExtractOption configures Extract and ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	skipExisting    bool
	workers         int
	continueOnError bool
	fileMode        fs.FileMode
	progress        ProgressFunc
}

// ExtractWithSkipExisting leaves existing destination files untouched.
// By default they are truncated and replaced.
func ExtractWithSkipExisting(skip bool) ExtractOption {
	return func(c *extractConfig) {
		c.skipExisting = skip
	}
}

// ExtractWithWorkers sets how many files ExtractAll writes concurrently.
// Values <= 1 extract serially in name order (the default).
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithContinueOnError makes ExtractAll attempt every file and
// return all failures joined with errors.Join. By default ExtractAll
// stops at the first failure, leaving files extracted before it in place.
func ExtractWithContinueOnError(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.continueOnError = enabled
	}
}

// ExtractWithFileMode sets the permission bits of extracted files
// (default 0644).
func ExtractWithFileMode(mode fs.FileMode) ExtractOption {
	return func(c *extractConfig) {
		c.fileMode = mode
	}
}

// ExtractWithProgress sets a callback for per-file progress events.
// With more than one worker the callback is called concurrently.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}

// ExtractStats reports the outcome of an extraction.
type ExtractStats struct {
	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the number of bytes written.
	TotalBytes uint64

	// Skipped is the number of files left untouched because they existed.
	Skipped int

	// Failed is the number of files that could not be extracted.
	Failed int
}

func newExtractConfig(opts []ExtractOption) *extractConfig {
	cfg := &extractConfig{fileMode: batch.DefaultFileMode}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Extract writes the content of the file name to destPath.
//
// If destPath is empty, the file is written to its archive path relative
// to the current directory. The parent directory of the destination is
// created as needed. An existing file at destPath is replaced.
//
// Extract fails with ErrNotFound if name is not in the archive and with
// ErrOutOfBounds if its data extends past the end of the archive; in both
// cases nothing is written. The file is written to a temporary name and
// renamed into place, so a failed Extract never leaves a partial file.
func (a *Archive) Extract(name, destPath string, opts ...ExtractOption) error {
	if err := a.checkOpen("extract", name); err != nil {
		return err
	}
	entry, ok := a.idx.Lookup(name)
	if !ok {
		return &fs.PathError{Op: "extract", Path: name, Err: ErrNotFound}
	}

	cfg := newExtractConfig(opts)
	sinkOpts := []batch.FileSinkOption{
		batch.WithOverwrite(!cfg.skipExisting),
		batch.WithFileMode(cfg.fileMode),
	}
	destDir := "."
	if destPath != "" {
		destPath = filepath.Clean(destPath)
		destDir = filepath.Dir(destPath)
		base := filepath.Base(destPath)
		sinkOpts = append(sinkOpts, batch.WithTarget(func(*batch.Entry) (string, error) {
			return base, nil
		}))
	}

	_, err := a.extractEntries(batch.NewFileSink(destDir, sinkOpts...), []*Entry{&entry}, cfg)
	return err
}

// ExtractAll extracts every file in the archive under destDir, which is
// created if needed.
//
// Files are extracted in name order. By default ExtractAll stops at the
// first failure; files extracted before it stay in place. Use
// ExtractWithContinueOnError to attempt every file instead.
//
// Archive paths are cleaned before use. A path that would escape destDir
// fails with fs.ErrInvalid and nothing is written for it.
func (a *Archive) ExtractAll(destDir string, opts ...ExtractOption) (ExtractStats, error) {
	if err := a.checkOpen("extract", destDir); err != nil {
		return ExtractStats{}, err
	}
	cfg := newExtractConfig(opts)
	sink := batch.NewFileSink(destDir,
		batch.WithOverwrite(!cfg.skipExisting),
		batch.WithFileMode(cfg.fileMode),
	)

	entries := make([]*Entry, 0, a.idx.Len())
	for entry := range a.idx.Entries() {
		entries = append(entries, &entry)
	}
	return a.extractEntries(sink, entries, cfg)
}

// extractEntries runs the batch processor over entries.
func (a *Archive) extractEntries(sink batch.Sink, entries []*Entry, cfg *extractConfig) (ExtractStats, error) {
	procOpts := []batch.ProcessorOption{
		batch.WithWorkers(cfg.workers),
		batch.WithContinueOnError(cfg.continueOnError),
	}
	if cfg.progress != nil {
		procOpts = append(procOpts, batch.WithProcessorProgress(cfg.progress))
	}
	if a.logger != nil {
		procOpts = append(procOpts, batch.WithProcessorLogger(a.logger))
	}
	proc := batch.NewProcessor(a.reader, procOpts...)

	st, err := proc.Process(entries, sink)
	stats := ExtractStats{
		FileCount:  st.Processed,
		TotalBytes: st.TotalBytes,
		Skipped:    st.Skipped,
		Failed:     st.Failed,
	}
	if err != nil {
		return stats, fmt.Errorf("%s: %w", a.describe(), err)
	}
	return stats, nil
}

// describe names the archive in error messages.
func (a *Archive) describe() string {
	if f, ok := a.reader.Source().(*fileSource); ok {
		return f.file.Name()
	}
	return "archive"
}
