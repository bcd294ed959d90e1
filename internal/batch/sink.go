package batch

import (
	"io"

	"github.com/meigma/apk/internal/apktype"
)

// Entry is an alias for apktype.Entry.
type Entry = apktype.Entry

// Sink receives entry content during batch processing.
//
// Implementations determine where content is written and can filter
// which entries to process.
type Sink interface {
	// ShouldProcess returns false if this entry should be skipped.
	ShouldProcess(entry *Entry) bool

	// Writer returns a writer for the entry's content.
	// The returned Committer must have Commit() called after a complete
	// write, or Discard() called on any error.
	Writer(entry *Entry) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called so that a
// failed entry leaves nothing at its destination.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
