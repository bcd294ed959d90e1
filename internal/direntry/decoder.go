package direntry

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/meigma/apk/internal/apktype"
)

// Decoder decodes directory entries.
//
// The zero value decodes paths as strict UTF-8. A Decoder holds no state
// between calls; the caller positions the Cursor before each Decode.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder returns a Decoder that decodes path bytes with enc.
// A nil enc selects strict UTF-8.
func NewDecoder(enc encoding.Encoding) *Decoder {
	return &Decoder{enc: enc}
}

// Decode reads one entry at the cursor's current position.
//
// It returns the entry and the number of bytes consumed. Decode never
// seeks; following NextEntryOffset is the caller's job.
func (d *Decoder) Decode(c *Cursor) (apktype.Entry, int, error) {
	start := c.Pos()

	pathLen, err := c.Uint32()
	if err != nil {
		return apktype.Entry{}, 0, fmt.Errorf("entry at %#x: path length: %w", start, err)
	}
	raw, err := c.Bytes(int64(pathLen) + 1)
	if err != nil {
		return apktype.Entry{}, 0, fmt.Errorf("entry at %#x: path: %w", start, err)
	}
	path, err := d.decodePath(raw)
	if err != nil {
		return apktype.Entry{}, 0, fmt.Errorf("entry at %#x: %w", start, err)
	}

	var fields [4]uint32
	for i := range fields {
		if fields[i], err = c.Uint32(); err != nil {
			return apktype.Entry{}, 0, fmt.Errorf("entry at %#x: %s: %w", start, path, err)
		}
	}

	entry := apktype.Entry{
		Path:            path,
		DataOffset:      fields[0],
		DataSize:        fields[1],
		NextEntryOffset: fields[2],
		Reserved:        fields[3],
	}
	return entry, int(c.Pos() - start), nil
}

// decodePath validates the terminator and converts raw (path bytes plus
// NUL) into a slash-separated path.
func (d *Decoder) decodePath(raw []byte) (string, error) {
	if raw[len(raw)-1] != 0 {
		return "", fmt.Errorf("%w: missing NUL terminator", ErrMalformedPath)
	}
	if i := bytes.IndexByte(raw[:len(raw)-1], 0); i >= 0 {
		return "", fmt.Errorf("%w: NUL at byte %d of %d", ErrMalformedPath, i, len(raw)-1)
	}
	text, err := d.decodeText(raw[:len(raw)-1])
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, `\`, "/"), nil
}

func (d *Decoder) decodeText(raw []byte) (string, error) {
	if d == nil || d.enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: %q is not UTF-8", ErrInvalidEncoding, raw)
		}
		return string(raw), nil
	}
	out, err := d.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("%w: %q has undecodable bytes", ErrInvalidEncoding, raw)
	}
	return string(out), nil
}

// Re-exported for brevity within this package.
var (
	ErrMalformedPath   = apktype.ErrMalformedPath
	ErrInvalidEncoding = apktype.ErrInvalidEncoding
)
