package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/apk/internal/apktype"
	"github.com/meigma/apk/internal/pathutil"
)

// DefaultFileMode is the permission applied to extracted files.
const DefaultFileMode fs.FileMode = 0o644

// dirMode is the permission used for directories created during extraction.
const dirMode fs.FileMode = 0o755

// FileSink writes entries to the filesystem under a destination directory.
//
// Files are written to a temporary file in the same directory and renamed
// to the final path on Commit, so a partially written file is never visible
// at the final path. All access goes through an os.Root, so an entry can
// never be written outside the destination directory.
type FileSink struct {
	destDir   string
	overwrite bool
	fileMode  fs.FileMode
	target    func(*Entry) (string, error)
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite controls whether existing files are replaced.
// When false, entries whose destination exists are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithFileMode sets the permission bits of extracted files.
func WithFileMode(mode fs.FileMode) FileSinkOption {
	return func(s *FileSink) {
		s.fileMode = mode.Perm()
	}
}

// WithTarget overrides how an entry maps to its destination. fn returns a
// path relative to the sink's destination directory, using the OS separator.
func WithTarget(fn func(*Entry) (string, error)) FileSinkOption {
	return func(s *FileSink) {
		s.target = fn
	}
}

// NewFileSink creates a FileSink that writes to destDir.
//
// By default each entry is written to its normalized archive path under
// destDir and existing files are overwritten. destDir and any parent
// directories are created as needed.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		destDir:   destDir,
		overwrite: true,
		fileMode:  DefaultFileMode,
		target:    archiveTarget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// archiveTarget maps an entry to its archive path, rejecting paths that
// would escape the destination.
func archiveTarget(entry *Entry) (string, error) {
	rel, ok := pathutil.Rel(entry.Path)
	if !ok {
		return "", &fs.PathError{Op: "extract", Path: entry.Path, Err: fs.ErrInvalid}
	}
	return filepath.FromSlash(rel), nil
}

// ShouldProcess returns false if the destination already exists and
// overwrite is disabled.
func (s *FileSink) ShouldProcess(entry *Entry) bool {
	if s.overwrite {
		return true
	}
	rel, err := s.target(entry)
	if err != nil {
		// Let Writer report the error.
		return true
	}
	_, err = os.Lstat(filepath.Join(s.destDir, rel))
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
func (s *FileSink) Writer(entry *Entry) (Committer, error) {
	destRel, err := s.target(entry)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(s.destDir, destRel)

	if err := os.MkdirAll(s.destDir, dirMode); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", apktype.ErrIO, err)
	}
	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("%w: open destination root: %w", apktype.ErrIO, err)
	}
	if dir := filepath.Dir(destRel); dir != "." {
		if err := root.MkdirAll(dir, dirMode); err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("%w: create directory: %w", apktype.ErrIO, err)
		}
	}

	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".apk-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("%w: create temp file: %w", apktype.ErrIO, err)
	}

	return &fileCommitter{
		destPath: destPath,
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
		root:     root,
		sink:     s,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	destRel  string
	tempFile *os.File
	tempRel  string
	root     *os.Root
	sink     *FileSink
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies the file mode, and renames to the
// final path.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		return c.abort(fmt.Errorf("%w: close temp file: %w", apktype.ErrIO, err))
	}
	if err := c.root.Chmod(c.tempRel, c.sink.fileMode); err != nil {
		return c.abort(fmt.Errorf("%w: chmod: %w", apktype.ErrIO, err))
	}
	if info, err := c.root.Lstat(c.destRel); err == nil && info.IsDir() {
		return c.abort(&fs.PathError{Op: "extract", Path: c.destPath, Err: errors.New("is a directory")})
	}
	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		return c.abort(fmt.Errorf("%w: rename to %s: %w", apktype.ErrIO, c.destPath, err))
	}

	_ = c.root.Close() //nolint:errcheck // best-effort cleanup
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.tempRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func (c *fileCommitter) abort(err error) error {
	_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
	_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
	return err
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
