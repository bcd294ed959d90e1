// Package testutil builds synthetic archives for tests.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/meigma/apk/internal/apktype"
)

// filler is written into gaps between directory entries.
const filler = 0xEE

// TestEntry describes one file to pack into a synthetic archive.
type TestEntry struct {
	Path string
	Data []byte

	// RawPath, if non-nil, is written verbatim as the path bytes in place
	// of Path followed by a NUL terminator.
	RawPath []byte

	// PathLen, if non-nil, overrides the declared path length.
	PathLen *uint32

	// DataOffset and DataSize, if non-nil, override the computed values.
	DataOffset *uint32
	DataSize   *uint32

	Reserved uint32
}

type buildConfig struct {
	magic          [4]byte
	fileCount      *uint32
	reversed       bool
	gap            int
	directoryFirst bool
}

// BuildOption configures BuildArchive.
type BuildOption func(*buildConfig)

// WithMagic overrides the header signature.
func WithMagic(m [4]byte) BuildOption {
	return func(c *buildConfig) { c.magic = m }
}

// WithFileCount overrides the entry count written to the header.
func WithFileCount(n uint32) BuildOption {
	return func(c *buildConfig) { c.fileCount = &n }
}

// WithReversedDirectory writes directory entries to disk in the reverse
// of their chain order, so each next pointer points backwards.
func WithReversedDirectory() BuildOption {
	return func(c *buildConfig) { c.reversed = true }
}

// WithGap inserts n filler bytes before every directory entry.
func WithGap(n int) BuildOption {
	return func(c *buildConfig) { c.gap = n }
}

// WithDirectoryFirst places the directory before the data region.
func WithDirectoryFirst() BuildOption {
	return func(c *buildConfig) { c.directoryFirst = true }
}

// Uint32 returns a pointer to v, for TestEntry overrides.
func Uint32(v uint32) *uint32 {
	return &v
}

// BuildArchive encodes entries as an archive. Chain order is the order of
// entries; the last entry's next pointer is zero.
func BuildArchive(tb testing.TB, entries []TestEntry, opts ...BuildOption) []byte {
	tb.Helper()

	cfg := buildConfig{magic: apktype.Magic}
	for _, opt := range opts {
		opt(&cfg)
	}

	paths := make([][]byte, len(entries))
	sizes := make([]int, len(entries))
	for i, e := range entries {
		if e.RawPath != nil {
			paths[i] = e.RawPath
		} else {
			paths[i] = append([]byte(e.Path), 0)
		}
		sizes[i] = 4 + len(paths[i]) + apktype.EntryTrailerSize
	}

	diskOrder := make([]int, len(entries))
	for i := range diskOrder {
		if cfg.reversed {
			diskOrder[i] = len(entries) - 1 - i
		} else {
			diskOrder[i] = i
		}
	}

	pos := apktype.HeaderSize
	entryPos := make([]int, len(entries))
	dataPos := make([]int, len(entries))
	dirStart := 0
	layoutDirectory := func() {
		dirStart = pos
		for _, i := range diskOrder {
			pos += cfg.gap
			entryPos[i] = pos
			pos += sizes[i]
		}
	}
	filesStart := 0
	layoutData := func() {
		filesStart = pos
		for i, e := range entries {
			dataPos[i] = pos
			pos += len(e.Data)
		}
	}
	if cfg.directoryFirst {
		layoutDirectory()
		layoutData()
	} else {
		layoutData()
		layoutDirectory()
	}

	buf := make([]byte, pos)
	header := apktype.Header{
		Magic:       cfg.magic,
		FilesOffset: uint32(filesStart),
		FileCount:   uint32(len(entries)),
		DirOffset:   uint32(dirStart),
	}
	if len(entries) > 0 {
		header.DirOffset = uint32(entryPos[0])
	}
	if cfg.fileCount != nil {
		header.FileCount = *cfg.fileCount
	}
	hb, err := header.MarshalBinary()
	if err != nil {
		tb.Fatalf("marshal header: %v", err)
	}
	copy(buf, hb)

	for _, p := range entryPos {
		for j := p - cfg.gap; j < p; j++ {
			buf[j] = filler
		}
	}

	for i, e := range entries {
		var next uint32
		if i+1 < len(entries) {
			next = uint32(entryPos[i+1])
		}
		pathLen := uint32(len(paths[i]) - 1)
		if e.PathLen != nil {
			pathLen = *e.PathLen
		}
		dataOffset := uint32(dataPos[i])
		if e.DataOffset != nil {
			dataOffset = *e.DataOffset
		}
		dataSize := uint32(len(e.Data))
		if e.DataSize != nil {
			dataSize = *e.DataSize
		}

		rec := binary.LittleEndian.AppendUint32(nil, pathLen)
		rec = append(rec, paths[i]...)
		rec = binary.LittleEndian.AppendUint32(rec, dataOffset)
		rec = binary.LittleEndian.AppendUint32(rec, dataSize)
		rec = binary.LittleEndian.AppendUint32(rec, next)
		rec = binary.LittleEndian.AppendUint32(rec, e.Reserved)
		copy(buf[entryPos[i]:], rec)
		copy(buf[dataPos[i]:], e.Data)
	}

	return buf
}

// WriteArchive builds an archive and writes it to a file in a temp dir.
// It returns the file path.
func WriteArchive(tb testing.TB, entries []TestEntry, opts ...BuildOption) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "test.apk")
	if err := os.WriteFile(path, BuildArchive(tb, entries, opts...), 0o600); err != nil {
		tb.Fatalf("write archive: %v", err)
	}
	return path
}
