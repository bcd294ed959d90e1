package apktype

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the file currently being processed, if applicable.
	Path string

	// BytesDone is the number of bytes written so far.
	BytesDone uint64

	// BytesTotal is the total bytes to write.
	BytesTotal uint64

	// FilesDone is the number of files completed.
	FilesDone int

	// FilesTotal is the total number of files.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageExtracting indicates a file's content is being written.
	StageExtracting ProgressStage = iota

	// StageSkipped indicates a file was skipped because it already exists.
	StageSkipped

	// StageDone indicates a file has been committed to its destination.
	StageDone
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageExtracting:
		return "extracting"
	case StageSkipped:
		return "skipped"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
