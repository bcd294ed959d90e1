package file

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lyingSource reports a larger size than it holds, like a file truncated
// after the archive was opened.
type lyingSource struct {
	*bytes.Reader
	size int64
}

func (s lyingSource) Size() int64 { return s.size }

type brokenSource struct{}

func (brokenSource) ReadAt([]byte, int64) (int, error) { return 0, errors.New("device gone") }
func (brokenSource) Size() int64                       { return 1 << 20 }

func newTestReader(data string, opts ...Option) *Reader {
	return NewReader(bytes.NewReader([]byte(data)), opts...)
}

func TestReader_ReadAll(t *testing.T) {
	t.Parallel()

	r := newTestReader("headerDATA0123456789")
	got, err := r.ReadAll(&Entry{Path: "a.txt", DataOffset: 6, DataSize: 4})
	require.NoError(t, err)
	assert.Equal(t, []byte("DATA"), got)

	got, err = r.ReadAll(&Entry{Path: "empty", DataOffset: 20, DataSize: 0})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReader_CopyTo(t *testing.T) {
	t.Parallel()

	r := newTestReader("headerDATA0123456789")
	var buf bytes.Buffer
	n, err := r.CopyTo(&buf, &Entry{Path: "b/c.bin", DataOffset: 10, DataSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", buf.String())
}

func TestReader_Bounds(t *testing.T) {
	t.Parallel()

	r := newTestReader("0123456789")

	tests := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"exactly at end", Entry{DataOffset: 6, DataSize: 4}, nil},
		{"one past end", Entry{DataOffset: 7, DataSize: 4}, ErrOutOfBounds},
		{"offset past end", Entry{DataOffset: 11, DataSize: 0}, ErrOutOfBounds},
		{"wrapping range", Entry{DataOffset: 0xFFFFFFFF, DataSize: 0xFFFFFFFF}, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			_, err := r.CopyTo(&buf, &tt.entry)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, buf.Len(), "nothing may be written on a bounds failure")
		})
	}
}

func TestReader_MaxFileSize(t *testing.T) {
	t.Parallel()

	data := "0123456789"
	entry := &Entry{Path: "big", DataOffset: 0, DataSize: 10}

	_, err := newTestReader(data, WithMaxFileSize(4)).ReadAll(entry)
	assert.ErrorIs(t, err, ErrSizeOverflow)

	got, err := newTestReader(data, WithMaxFileSize(0)).ReadAll(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte(data), got)

	assert.Equal(t, uint64(DefaultMaxFileSize), newTestReader(data).MaxFileSize())
}

func TestReader_ShortSource(t *testing.T) {
	t.Parallel()

	r := NewReader(lyingSource{Reader: bytes.NewReader([]byte("0123")), size: 10})
	entry := &Entry{Path: "x", DataOffset: 0, DataSize: 10}

	_, err := r.ReadAll(entry)
	require.ErrorIs(t, err, ErrTruncated)

	_, err = r.CopyTo(io.Discard, entry)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReader_IOError(t *testing.T) {
	t.Parallel()

	r := NewReader(brokenSource{})
	_, err := r.ReadAll(&Entry{Path: "x", DataOffset: 0, DataSize: 4})
	require.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrTruncated)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	r := newTestReader("headerDATA0123456789")
	f, err := r.OpenFile(&Entry{Path: "b/c.bin", DataOffset: 10, DataSize: 10})
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "c.bin", info.Name())
	assert.Equal(t, int64(10), info.Size())
	assert.False(t, info.IsDir())
	assert.Equal(t, fs.FileMode(0o444), info.Mode())

	buf := make([]byte, 3)
	n, err := f.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "789", string(buf))

	all, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(all))

	_, err = r.OpenFile(&Entry{Path: "bad", DataOffset: 15, DataSize: 10})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestDirInfo(t *testing.T) {
	t.Parallel()

	info := NewDirInfo("b")
	assert.True(t, info.IsDir())
	assert.Equal(t, fs.ModeDir|0o555, info.Mode())

	de := NewDirEntry(info)
	assert.Equal(t, "b", de.Name())
	assert.True(t, de.IsDir())
	assert.Equal(t, fs.ModeDir, de.Type())
	got, err := de.Info()
	require.NoError(t, err)
	assert.Same(t, info, got)
}
