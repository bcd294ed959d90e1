package apk

import (
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/meigma/apk/internal/file"
	"github.com/meigma/apk/internal/pathutil"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Open implements fs.FS.
//
// Files support io.ReaderAt and io.Seeker. Directories are synthesized
// from the paths of the files beneath them; the archive does not store
// them. Names that are not valid fs paths are only reachable through
// Entry and Extract.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if err := a.checkOpen("open", name); err != nil {
		return nil, err
	}

	if entry, ok := a.idx.Lookup(name); ok {
		f, err := a.reader.OpenFile(&entry)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return f, nil
	}
	if a.isDir(name) {
		return &openDir{a: a, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if entry, ok := a.idx.Lookup(name); ok {
		return file.NewInfo(&entry, pathutil.Base(name)), nil
	}
	if a.isDir(name) {
		return file.NewDirInfo(pathutil.Base(name)), nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	if err := a.checkOpen("readfile", name); err != nil {
		return nil, err
	}
	entry, ok := a.idx.Lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	content, err := a.reader.ReadAll(&entry)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return content, nil
}

// ReadDir implements fs.ReadDirFS.
//
// It returns the entries of the named directory sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if _, ok := a.idx.Lookup(name); ok && name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	entries := a.dirEntries(name)
	if len(entries) == 0 && name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return entries, nil
}

// isDir checks if name is a directory (has entries under it).
func (a *Archive) isDir(name string) bool {
	if name == "." {
		return true
	}
	for range a.idx.EntriesWithPrefix(name + "/") {
		return true
	}
	return false
}

// dirEntries lists the immediate children of the directory name,
// synthesizing subdirectories from nested paths.
func (a *Archive) dirEntries(name string) []fs.DirEntry {
	prefix := pathutil.DirPrefix(name)
	seen := make(map[string]bool)
	var entries []fs.DirEntry
	for entry := range a.idx.EntriesWithPrefix(prefix) {
		if !fs.ValidPath(entry.Path) {
			continue
		}
		child, isSubDir := pathutil.Child(entry.Path, prefix)
		if seen[child] {
			continue
		}
		seen[child] = true
		if isSubDir {
			entries = append(entries, file.NewDirEntry(file.NewDirInfo(child)))
			continue
		}
		entries = append(entries, file.NewDirEntry(file.NewInfo(&entry, child)))
	}
	slices.SortFunc(entries, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return entries
}

// openDir implements fs.File and fs.ReadDirFile for synthetic directories.
type openDir struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	offset  int
	loaded  bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return file.NewDirInfo(pathutil.Base(d.name)), nil
}

func (d *openDir) Close() error {
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		d.entries = d.a.dirEntries(d.name)
		d.loaded = true
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.offset += n
	return rest[:n], nil
}
