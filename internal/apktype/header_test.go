package apktype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	t.Parallel()

	raw := []byte{
		0x57, 0x23, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x1E, 0x01, 0x00, 0x00,
	}
	h, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, Header{Magic: Magic, FilesOffset: 16, FileCount: 2, DirOffset: 0x11E}, h)

	out, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestParseHeader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short", []byte{0x57, 0x23, 0x00, 0x00, 0x10}, ErrTruncated},
		{"bad magic", []byte{'P', 'K', 3, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, ErrNotAnArchive},
		{"magic off by one", []byte{0x57, 0x23, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, ErrNotAnArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseHeader(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHeader_AppendBinary(t *testing.T) {
	t.Parallel()

	prefix := []byte("xx")
	out, err := Header{Magic: Magic, FileCount: 1}.AppendBinary(prefix)
	require.NoError(t, err)
	assert.Len(t, out, 2+HeaderSize)
	assert.Equal(t, prefix, out[:2])
}

func TestEntry(t *testing.T) {
	t.Parallel()

	e := Entry{Path: "b/c.bin", DataOffset: 0x14, DataSize: 10}
	assert.Equal(t, uint64(0x1E), e.End())
	assert.Equal(t, "b/c.bin @ 0x0000000000000014", e.String())

	big := Entry{DataOffset: 0xFFFFFFFF, DataSize: 0xFFFFFFFF}
	assert.Equal(t, uint64(0x1FFFFFFFE), big.End())
}

func TestProgressStage_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "extracting", StageExtracting.String())
	assert.Equal(t, "skipped", StageSkipped.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "unknown", ProgressStage(99).String())
}
