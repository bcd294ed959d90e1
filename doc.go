// Package apk reads packed .apk archives and extracts their files.
//
// An archive is a single file with a 16-byte header, a data region and a
// directory. Directory entries form a chain: the header points at the first
// entry and each entry stores the absolute offset of the next, so entries
// may appear anywhere in the file and in any order. Data is stored raw,
// with no compression, encryption or checksums.
//
// # Quick Start
//
// Open an archive and extract everything:
//
//	a, err := apk.Open("game.apk")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	stats, err := a.ExtractAll("out")
//
// Extract one file under a new name:
//
//	err = a.Extract("data/config.txt", "config.txt")
//
// Archive implements fs.FS, so archive files can be read with the standard
// library without extracting them:
//
//	content, err := fs.ReadFile(a, "data/config.txt")
//
// Archives on HTTP servers that honor range requests can be read in place
// with the http subpackage:
//
//	src, err := apkhttp.NewSource("https://example.com/game.apk")
//	a, err := apk.New(src)
//
// # Errors
//
// Parsing failures are reported with sentinel errors (ErrNotAnArchive,
// ErrTruncated, ErrMalformedPath, ErrInvalidEncoding, ErrTooManyFiles),
// lookups of unknown names with ErrNotFound, entries whose data lies beyond
// the end of the archive with ErrOutOfBounds, and filesystem failures with
// ErrIO. Use errors.Is to test for them.
package apk
