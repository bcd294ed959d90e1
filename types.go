package apk

import "github.com/meigma/apk/internal/apktype"

// Re-export types from internal/apktype for public API.
type (
	// Header is the fixed 16-byte archive header.
	Header = apktype.Header

	// Entry describes one packed file.
	Entry = apktype.Entry

	// ProgressEvent represents a progress update during extraction.
	ProgressEvent = apktype.ProgressEvent

	// ProgressStage identifies the current phase of an extraction.
	ProgressStage = apktype.ProgressStage

	// ProgressFunc receives progress updates during extraction.
	ProgressFunc = apktype.ProgressFunc
)

// Re-export progress stage constants.
const (
	StageExtracting = apktype.StageExtracting
	StageSkipped    = apktype.StageSkipped
	StageDone       = apktype.StageDone
)

// Magic is the 4-byte signature every archive starts with.
var Magic = apktype.Magic

// HeaderSize is the size in bytes of the archive header.
const HeaderSize = apktype.HeaderSize
