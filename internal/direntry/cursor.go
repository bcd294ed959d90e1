package direntry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/apk/internal/apktype"
)

// Cursor is a forward read position over an io.ReaderAt of known size.
//
// Reads never go past size: a read that would fails with ErrTruncated
// before any buffer is allocated. A Cursor is not safe for concurrent use.
type Cursor struct {
	r    io.ReaderAt
	size int64
	pos  int64
	buf  [4]byte
}

// NewCursor returns a Cursor positioned at offset 0.
func NewCursor(r io.ReaderAt, size int64) *Cursor {
	return &Cursor{r: r, size: size}
}

// Pos returns the current absolute position.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Size returns the size of the underlying storage.
func (c *Cursor) Size() int64 {
	return c.size
}

// Seek moves the cursor to the absolute offset off.
// Seeking to exactly Size is allowed; any further read then fails.
func (c *Cursor) Seek(off int64) error {
	if off < 0 || off > c.size {
		return fmt.Errorf("%w: seek to %#x past end (%d bytes)", apktype.ErrTruncated, off, c.size)
	}
	c.pos = off
	return nil
}

// Uint32 reads a little-endian uint32 and advances the cursor.
func (c *Cursor) Uint32() (uint32, error) {
	if err := c.readFull(c.buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[:]), nil
}

// Bytes reads exactly n bytes and advances the cursor.
func (c *Cursor) Bytes(n int64) ([]byte, error) {
	if n < 0 || n > c.size-c.pos {
		return nil, fmt.Errorf("%w: need %d bytes at %#x, have %d", apktype.ErrTruncated, n, c.pos, c.size-c.pos)
	}
	p := make([]byte, n)
	if err := c.readFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Cursor) readFull(p []byte) error {
	if int64(len(p)) > c.size-c.pos {
		return fmt.Errorf("%w: need %d bytes at %#x, have %d", apktype.ErrTruncated, len(p), c.pos, c.size-c.pos)
	}
	n, err := c.r.ReadAt(p, c.pos)
	if n == len(p) {
		// io.ReaderAt may report io.EOF alongside a full read at the end.
		c.pos += int64(n)
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: short read at %#x (%d of %d bytes)", apktype.ErrTruncated, c.pos, n, len(p))
	}
	return fmt.Errorf("%w: read at %#x: %w", apktype.ErrIO, c.pos, err)
}
