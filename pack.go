package tarspan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/tarspan/internal/pathlist"
)

// EntryRecord summarizes one accepted entry.
type EntryRecord struct {
	// Name is the path recorded in the archive.
	Name string

	// Type is the entry kind.
	Type EntryType

	// Size is the content length in bytes.
	Size int64

	// Footprint is the exact number of segment bytes the entry occupies.
	Footprint int64

	// Offset is the byte position of the entry's first header block.
	Offset int64
}

// Result reports the outcome of a packing run.
type Result struct {
	// Accepted lists the entries written to the segment, in order.
	Accepted []EntryRecord

	// Deferred lists the paths that did not fit, in input order. Feed
	// them to a subsequent run to continue the span.
	Deferred []string

	// Skipped lists the paths dropped by policy.
	Skipped []string

	// WrittenBytes is the final segment size, trailer and record padding
	// included.
	WrittenBytes int64

	// Capacity is the byte budget the run was given.
	Capacity int64

	// Remaining is the unused budget: Capacity minus WrittenBytes.
	Remaining int64

	// Digest is the canonical digest of the segment stream.
	Digest digest.Digest
}

// Continuation returns the deferred paths as a re-feedable continuation.
func (r *Result) Continuation() *Continuation {
	return NewContinuation(r.Deferred...)
}

// Pack reads entries from src and writes a single capacity-bounded
// segment to out.
//
// Each entry is measured before any of its data is read. Entries that fit
// within the remaining budget are written; entries that do not are
// deferred to the continuation, and scanning continues, so a large entry
// never blocks smaller ones behind it. Accepted entries appear in input
// order, as do deferred ones. The decision for each entry is final
// within the run; nothing is rewritten or reordered.
//
// The segment written to out is a complete archive ending with the
// standard trailer. On error the run stops immediately and the partial
// output must be discarded; no trailer is written.
func Pack(ctx context.Context, src EntrySource, out io.Writer, opts ...PackOption) (*Result, error) {
	cfg := packConfig{recordSize: DefaultRecordSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity == 0 {
		return nil, fmt.Errorf("%w: no capacity configured", ErrInvalidCapacity)
	}
	if cfg.capacity < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCapacity, cfg.capacity)
	}
	if cfg.badName == PolicyDefer {
		return nil, errors.New("tarspan: bad-name policy cannot defer")
	}

	r := &run{cfg: cfg}
	return r.pack(ctx, src, out)
}

// run holds the state of one packing pass.
type run struct {
	cfg    packConfig
	res    Result
	packer *Packer
	sw     *SegmentWriter
}

func (r *run) pack(ctx context.Context, src EntrySource, out io.Writer) (*Result, error) {
	p, err := NewPackerSize(r.cfg.capacity, r.cfg.recordSize)
	if err != nil {
		return nil, err
	}
	r.packer = p
	r.res.Capacity = r.cfg.capacity

	digester := digest.Canonical.Digester()
	r.sw = NewSegmentWriterSize(io.MultiWriter(out, digester.Hash()), r.cfg.recordSize)
	r.log().Info("packing segment", "capacity", r.cfg.capacity, "record_size", r.cfg.recordSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read entry: %w", err)
		}
		r.report(StageScanning, e.Name)
		if err := r.place(e); err != nil {
			return nil, err
		}
	}

	r.report(StageFinalizing, "")
	if err := r.sw.Close(); err != nil {
		return nil, fmt.Errorf("finalize segment: %w", err)
	}
	r.res.WrittenBytes = r.sw.Written()
	r.res.Remaining = r.res.Capacity - r.res.WrittenBytes
	r.res.Digest = digester.Digest()

	if r.cfg.continuation != nil {
		if err := r.writeContinuation(); err != nil {
			return nil, fmt.Errorf("write continuation: %w", err)
		}
	}
	r.log().Info("segment complete",
		"accepted", len(r.res.Accepted),
		"deferred", len(r.res.Deferred),
		"skipped", len(r.res.Skipped),
		"written", r.res.WrittenBytes,
		"digest", r.res.Digest.String())
	return &r.res, nil
}

// place decides one entry: write, defer, or apply policy.
func (r *run) place(e *Entry) error {
	fp, err := e.Footprint()
	if err != nil {
		return r.reject(e, err)
	}
	if !r.packer.admit(fp) {
		if r.packer.oversize(fp) {
			return r.rejectOversize(e, fp)
		}
		r.deferEntry(e.sourcePath())
		return nil
	}

	r.report(StageWriting, e.Name)
	offset := r.sw.Written()
	if err := r.sw.WriteEntry(e); err != nil {
		return err
	}
	r.packer.consume(fp)
	r.res.Accepted = append(r.res.Accepted, EntryRecord{
		Name:      e.Name,
		Type:      e.Type,
		Size:      e.Size,
		Footprint: fp,
		Offset:    offset,
	})
	r.log().Debug("entry accepted", "name", e.Name, "footprint", fp, "remaining", r.packer.Remaining())
	return nil
}

// reject applies the bad-name policy to a validation failure.
func (r *run) reject(e *Entry, cause error) error {
	if r.cfg.badName == PolicySkip {
		r.skip(e.sourcePath(), cause)
		return nil
	}
	return cause
}

// rejectOversize applies the oversize policy to an entry no segment of
// this capacity could hold.
func (r *run) rejectOversize(e *Entry, fp int64) error {
	cause := r.packer.tooLarge(e, fp)
	switch r.cfg.oversize {
	case PolicySkip:
		r.skip(e.sourcePath(), cause)
		return nil
	case PolicyDefer:
		r.deferEntry(e.sourcePath())
		return nil
	default:
		return cause
	}
}

func (r *run) deferEntry(name string) {
	r.res.Deferred = append(r.res.Deferred, name)
	r.log().Debug("entry deferred", "name", name)
}

func (r *run) skip(name string, cause error) {
	r.res.Skipped = append(r.res.Skipped, name)
	r.log().Warn("entry skipped", "name", name, "error", cause)
}

// writeContinuation streams the deferred paths to the configured writer.
func (r *run) writeContinuation() error {
	delim := pathlist.Newline
	if r.cfg.nullDelim {
		delim = pathlist.Null
	}
	pw := pathlist.NewWriter(r.cfg.continuation, delim)
	for _, p := range r.res.Deferred {
		if err := pw.WritePath(p); err != nil {
			return err
		}
	}
	return pw.Flush()
}

// report sends a progress event if a callback is configured.
func (r *run) report(stage ProgressStage, path string) {
	if r.cfg.progress == nil {
		return
	}
	r.cfg.progress(ProgressEvent{
		Stage:        stage,
		Path:         path,
		WrittenBytes: r.sw.Written(),
		Capacity:     r.res.Capacity,
		Accepted:     len(r.res.Accepted),
		Deferred:     len(r.res.Deferred),
		Skipped:      len(r.res.Skipped),
	})
}

// log returns the logger, falling back to a discard logger if nil.
func (r *run) log() *slog.Logger {
	if r.cfg.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.cfg.logger
}
