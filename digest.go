package apk

import (
	_ "crypto/sha256" // registers digest.Canonical
	"fmt"
	"io/fs"

	"github.com/opencontainers/go-digest"
)

// Digest returns the SHA-256 digest of the content of the file name.
//
// The format stores no checksums, so this describes the bytes as they are
// rather than verifying them. It is useful for comparing archives.
func (a *Archive) Digest(name string) (digest.Digest, error) {
	if err := a.checkOpen("digest", name); err != nil {
		return "", err
	}
	entry, ok := a.idx.Lookup(name)
	if !ok {
		return "", &fs.PathError{Op: "digest", Path: name, Err: ErrNotFound}
	}
	digester := digest.Canonical.Digester()
	if _, err := a.reader.CopyTo(digester.Hash(), &entry); err != nil {
		return "", fmt.Errorf("digest %s: %w", name, err)
	}
	return digester.Digest(), nil
}
