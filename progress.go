package tarspan

// ProgressEvent represents a progress update during a packing run.
type ProgressEvent struct {
	// Stage identifies the current phase of the run.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// WrittenBytes is the number of segment bytes emitted so far.
	WrittenBytes int64

	// Capacity is the byte budget for the segment.
	Capacity int64

	// Accepted is the number of entries admitted so far.
	Accepted int

	// Deferred is the number of entries routed to the continuation so far.
	Deferred int

	// Skipped is the number of entries dropped by policy so far.
	Skipped int
}

// ProgressStage identifies the current phase of a packing run.
type ProgressStage uint8

// Progress stages for packing runs.
const (
	// StageScanning indicates input entries are being read and measured.
	StageScanning ProgressStage = iota

	// StageWriting indicates an admitted entry is being written.
	StageWriting

	// StageFinalizing indicates the trailer is being written.
	StageFinalizing
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageWriting:
		return "writing"
	case StageFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during a packing run.
// Calls are made from the packing goroutine; implementations should be
// fast and must not block.
type ProgressFunc func(ProgressEvent)
