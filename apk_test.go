package apk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/meigma/apk/internal/testutil"
)

// exampleArchive hand-encodes a two-file archive: a header with
// dir_offset=16, two chained directory entries, then the file data.
func exampleArchive() []byte {
	le := binary.LittleEndian
	var b []byte

	// Header.
	b = append(b, 0x57, 0x23, 0x00, 0x00)
	b = le.AppendUint32(b, 0)  // files_offset
	b = le.AppendUint32(b, 2)  // file_count
	b = le.AppendUint32(b, 16) // dir_offset

	// Entry 0 at 16: 4 + 6 + 16 = 26 bytes.
	b = le.AppendUint32(b, 5)
	b = append(b, "a.txt\x00"...)
	b = le.AppendUint32(b, 70) // data_offset
	b = le.AppendUint32(b, 4)  // data_size
	b = le.AppendUint32(b, 42) // next_entry_offset
	b = le.AppendUint32(b, 0)

	// Entry 1 at 42: 4 + 8 + 16 = 28 bytes.
	b = le.AppendUint32(b, 7)
	b = append(b, "b/c.bin\x00"...)
	b = le.AppendUint32(b, 74)
	b = le.AppendUint32(b, 10)
	b = le.AppendUint32(b, 0)
	b = le.AppendUint32(b, 0)

	// Data at 70.
	b = append(b, "DATA"...)
	b = append(b, "0123456789"...)
	return b
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.apk")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func mustOpen(t *testing.T, path string, opts ...Option) *Archive {
	t.Helper()
	a, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpen_Example(t *testing.T) {
	t.Parallel()

	data := exampleArchive()
	require.Len(t, data, 84)
	a := mustOpen(t, writeFile(t, data))

	assert.Equal(t, []string{"a.txt", "b/c.bin"}, a.Names())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, int64(84), a.Size())
	assert.Equal(t, Header{Magic: Magic, FilesOffset: 0, FileCount: 2, DirOffset: 16}, a.Header())

	e, ok := a.Entry("b/c.bin")
	require.True(t, ok)
	assert.Equal(t, Entry{Path: "b/c.bin", DataOffset: 74, DataSize: 10}, e)
	assert.Equal(t, "b/c.bin @ 0x000000000000004A", e.String())

	_, ok = a.Entry("missing")
	assert.False(t, ok)
}

func TestNew_InMemory(t *testing.T) {
	t.Parallel()

	a, err := New(bytes.NewReader(exampleArchive()))
	require.NoError(t, err)
	defer a.Close()

	got, err := a.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("DATA"), got)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	badMagic := exampleArchive()
	badMagic[3] = 0x01

	malformed := exampleArchive()
	malformed[16] = 4 // declared length of "a.txt" one short

	pastEnd := exampleArchive()
	binary.LittleEndian.PutUint32(pastEnd[12:], 1000)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty file", nil, ErrTruncated},
		{"short header", exampleArchive()[:12], ErrTruncated},
		{"bad magic", badMagic, ErrNotAnArchive},
		{"malformed path", malformed, ErrMalformedPath},
		{"directory past end", pastEnd, ErrTruncated},
		{"directory cut short", exampleArchive()[:50], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := Open(writeFile(t, tt.data))
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, a)
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope.apk"))
	require.ErrorIs(t, err, ErrIO)
	var pathErr *fs.PathError
	assert.True(t, errors.As(err, &pathErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpen_Layouts(t *testing.T) {
	t.Parallel()

	entries := []testutil.TestEntry{
		{Path: "z.txt", Data: []byte("zzz")},
		{Path: `data\maps\m1.bin`, Data: []byte{1, 2, 3, 4, 5}},
		{Path: "a.txt", Data: []byte("a")},
	}
	layouts := map[string][]testutil.BuildOption{
		"reversed":  {testutil.WithReversedDirectory()},
		"gapped":    {testutil.WithGap(11)},
		"dir first": {testutil.WithDirectoryFirst(), testutil.WithReversedDirectory()},
	}
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := mustOpen(t, testutil.WriteArchive(t, entries, opts...))
			assert.Equal(t, []string{"a.txt", "data/maps/m1.bin", "z.txt"}, a.Names())

			got, err := a.ReadFile("data/maps/m1.bin")
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
		})
	}
}

func TestOpen_InvalidEncoding(t *testing.T) {
	t.Parallel()

	path := testutil.WriteArchive(t, []testutil.TestEntry{
		{RawPath: []byte{'n', 0xE4, 'c', 'h', 's', 't', 'e', 0}, Data: []byte("x")},
	})

	_, err := Open(path)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	a := mustOpen(t, path, WithPathEncoding(charmap.Windows1252))
	assert.Equal(t, []string{"nächste"}, a.Names())
}

func TestOpen_UTF8ByteLength(t *testing.T) {
	t.Parallel()

	a := mustOpen(t, testutil.WriteArchive(t, []testutil.TestEntry{
		{Path: "日本/ファイル.txt", Data: []byte("jp")},
	}))
	got, err := a.ReadFile("日本/ファイル.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("jp"), got)
}

func TestOpen_DuplicateLastWins(t *testing.T) {
	t.Parallel()

	a := mustOpen(t, testutil.WriteArchive(t, []testutil.TestEntry{
		{Path: "dup.txt", Data: []byte("old")},
		{Path: "dup.txt", Data: []byte("new")},
	}))
	assert.Equal(t, []string{"dup.txt"}, a.Names())
	got, err := a.ReadFile("dup.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestWithMaxFiles(t *testing.T) {
	t.Parallel()

	path := testutil.WriteArchive(t, []testutil.TestEntry{
		{Path: "a", Data: []byte("a")},
	}, testutil.WithFileCount(0xFFFFFFFF))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrTooManyFiles)

	// Without the cap the walk runs off the chain instead.
	_, err = Open(path, WithMaxFiles(0))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestWithMaxFileSize(t *testing.T) {
	t.Parallel()

	a := mustOpen(t, writeFile(t, exampleArchive()), WithMaxFileSize(8))

	_, err := a.ReadFile("b/c.bin")
	assert.ErrorIs(t, err, ErrSizeOverflow)
	_, err = a.ReadFile("a.txt")
	assert.NoError(t, err)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := mustOpen(t, writeFile(t, exampleArchive()), WithLogger(logger))
	_, err := a.ExtractAll(t.TempDir())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "archive loaded")
	assert.Contains(t, buf.String(), "extracted")
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestClose(t *testing.T) {
	t.Parallel()

	a, err := Open(writeFile(t, exampleArchive()))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "Close is idempotent")

	// Metadata survives Close.
	assert.Equal(t, []string{"a.txt", "b/c.bin"}, a.Names())

	_, err = a.ReadFile("a.txt")
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = a.Open("a.txt")
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = a.Digest("a.txt")
	assert.ErrorIs(t, err, fs.ErrClosed)
	err = a.Extract("a.txt", filepath.Join(t.TempDir(), "a.txt"))
	assert.ErrorIs(t, err, fs.ErrClosed)
	_, err = a.ExtractAll(t.TempDir())
	assert.ErrorIs(t, err, fs.ErrClosed)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	a := mustOpen(t, writeFile(t, exampleArchive()))

	d, err := a.Digest("b/c.bin")
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes([]byte("0123456789")), d)
	assert.NoError(t, d.Validate())

	_, err = a.Digest("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntriesWithPrefix(t *testing.T) {
	t.Parallel()

	a := mustOpen(t, writeFile(t, exampleArchive()))
	var got []string
	for e := range a.EntriesWithPrefix("b/") {
		got = append(got, e.Path)
	}
	assert.Equal(t, []string{"b/c.bin"}, got)

	var all []string
	for e := range a.Entries() {
		all = append(all, e.Path)
	}
	assert.Equal(t, a.Names(), all)
}
