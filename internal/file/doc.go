// Package file reads entry content from an archive's backing storage
// through bounded section readers, and provides the fs.File and
// fs.FileInfo views used by the archive's fs.FS implementation.
package file
