package tarspan

import (
	"io"
	"log/slog"
)

// packConfig holds configuration for a packing run.
type packConfig struct {
	capacity     int64
	recordSize   int64
	continuation io.Writer
	nullDelim    bool
	oversize     Policy
	badName      Policy
	progress     ProgressFunc
	logger       *slog.Logger
}

// PackOption configures a packing run.
type PackOption func(*packConfig)

// PackWithCapacity caps the segment at n bytes, trailer included. Entries
// that would push the segment past the cap are deferred to the
// continuation. Every run needs a capacity; use MaxCapacity for an
// effectively unbounded segment.
//
// Budgets too small to hold an empty segment are rejected with
// ErrInvalidCapacity.
func PackWithCapacity(n int64) PackOption {
	return func(cfg *packConfig) {
		cfg.capacity = n
	}
}

// PackWithRecordSize pads the finished segment to a multiple of n bytes
// and makes admission account for that padding. n must be a positive
// multiple of BlockSize. Tape-style consumers commonly use 10240.
func PackWithRecordSize(n int64) PackOption {
	return func(cfg *packConfig) {
		cfg.recordSize = n
	}
}

// PackWithContinuation writes the deferred paths to w when the run
// completes, in input order, using the same list format the run consumed.
// A run with no deferrals writes an empty list.
func PackWithContinuation(w io.Writer) PackOption {
	return func(cfg *packConfig) {
		cfg.continuation = w
	}
}

// PackWithNullDelimiter switches the continuation list to NUL-delimited
// output, matching find -print0 pipelines.
func PackWithNullDelimiter(v bool) PackOption {
	return func(cfg *packConfig) {
		cfg.nullDelim = v
	}
}

// PackWithOversizePolicy controls what happens when a single entry cannot
// fit in any segment of the configured capacity. The default is
// PolicyAbort.
func PackWithOversizePolicy(p Policy) PackOption {
	return func(cfg *packConfig) {
		cfg.oversize = p
	}
}

// PackWithBadNamePolicy controls what happens when an entry fails
// validation: an unencodable name, a negative size, a malformed
// descriptor. PolicyAbort and PolicySkip are accepted; such entries can
// never be deferred because no later run could admit them either.
// The default is PolicyAbort.
func PackWithBadNamePolicy(p Policy) PackOption {
	return func(cfg *packConfig) {
		cfg.badName = p
	}
}

// PackWithProgress registers a callback for progress updates.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.progress = fn
	}
}

// PackWithLogger sets the logger for the run. Runs are silent without it.
func PackWithLogger(l *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = l
	}
}
