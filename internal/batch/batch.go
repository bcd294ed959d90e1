package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/apk/internal/apktype"
	"github.com/meigma/apk/internal/file"
)

// Processor extracts entries from an archive into a Sink.
type Processor struct {
	reader          *file.Reader
	workers         int // <= 1 = serial
	continueOnError bool
	progress        apktype.ProgressFunc
	logger          *slog.Logger

	mu    sync.Mutex
	stats ProcessStats
	errs  []error
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of entries processed concurrently.
// Values <= 1 process entries serially in the order given.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithContinueOnError makes Process attempt every entry and return all
// failures joined, instead of stopping at the first.
func WithContinueOnError(enabled bool) ProcessorOption {
	return func(p *Processor) {
		p.continueOnError = enabled
	}
}

// WithProcessorProgress sets a callback for per-entry progress events.
func WithProcessorProgress(fn apktype.ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// WithProcessorLogger sets the logger for batch processing operations.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a new batch processor reading through reader.
func NewProcessor(reader *file.Reader, opts ...ProcessorOption) *Processor {
	p := &Processor{reader: reader}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process writes each entry's content to the sink.
//
// Entries are filtered through sink.ShouldProcess. Each remaining entry is
// bounds-checked before the sink is asked for a writer, so an entry whose
// data lies outside the source never creates anything at its destination.
//
// Processing stops on the first error unless WithContinueOnError is set.
// With a single worker, entries are processed in the order given.
// A Processor is meant for a single call to Process.
func (p *Processor) Process(entries []*Entry, sink Sink) (ProcessStats, error) {
	toProcess := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		if sink.ShouldProcess(entry) {
			toProcess = append(toProcess, entry)
			continue
		}
		p.stats.Skipped++
		p.emit(apktype.ProgressEvent{Stage: apktype.StageSkipped, Path: entry.Path})
	}
	if len(toProcess) == 0 {
		return p.stats, nil
	}

	workers := min(p.workers, len(toProcess))
	p.log().Debug("batch processing", "entries", len(toProcess), "skipped", p.stats.Skipped, "workers", max(workers, 1))

	var err error
	if workers > 1 {
		err = p.processParallel(toProcess, workers, sink)
	} else {
		err = p.processSerial(toProcess, sink)
	}
	if err != nil {
		return p.stats, err
	}
	return p.stats, errors.Join(p.errs...)
}

func (p *Processor) processSerial(entries []*Entry, sink Sink) error {
	for _, entry := range entries {
		if err := p.processEntry(entry, sink, len(entries)); err != nil {
			if !p.record(err) {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) processParallel(entries []*Entry, workers int, sink Sink) error {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := p.processEntry(entry, sink, len(entries)); err != nil {
				if !p.record(err) {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// record notes a failed entry. It reports whether processing should continue.
func (p *Processor) record(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Failed++
	if !p.continueOnError {
		return false
	}
	p.log().Debug("entry failed, continuing", "error", err)
	p.errs = append(p.errs, err)
	return true
}

// processEntry validates, copies, and commits a single entry.
func (p *Processor) processEntry(entry *Entry, sink Sink, total int) error {
	if err := p.reader.Validate(entry); err != nil {
		return fmt.Errorf("extract %s: %w", entry.Path, err)
	}

	w, err := sink.Writer(entry)
	if err != nil {
		return fmt.Errorf("extract %s: %w", entry.Path, err)
	}
	p.emit(apktype.ProgressEvent{
		Stage:      apktype.StageExtracting,
		Path:       entry.Path,
		BytesTotal: uint64(entry.DataSize),
		FilesTotal: total,
	})

	n, err := p.reader.CopyTo(w, entry)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("extract %s: %w", entry.Path, err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("extract %s: commit: %w", entry.Path, err)
	}

	p.mu.Lock()
	p.stats.Processed++
	p.stats.TotalBytes += uint64(n)
	done := p.stats.Processed
	p.mu.Unlock()

	p.log().Debug("extracted", "path", entry.Path, "bytes", n)
	p.emit(apktype.ProgressEvent{
		Stage:      apktype.StageDone,
		Path:       entry.Path,
		BytesDone:  uint64(n),
		BytesTotal: uint64(entry.DataSize),
		FilesDone:  done,
		FilesTotal: total,
	})
	return nil
}

func (p *Processor) emit(ev apktype.ProgressEvent) {
	if p.progress != nil {
		p.progress(ev)
	}
}
