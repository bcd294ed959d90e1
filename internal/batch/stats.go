package batch

// ProcessStats contains statistics from a batch processing operation.
type ProcessStats struct {
	// Processed is the number of entries successfully written to the sink.
	Processed int

	// Skipped is the number of entries skipped (ShouldProcess returned false).
	Skipped int

	// Failed is the number of entries that failed. With a single worker
	// and no WithContinueOnError it is at most one.
	Failed int

	// TotalBytes is the sum of DataSize for all processed entries.
	TotalBytes uint64
}
