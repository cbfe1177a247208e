package tarspan

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
)

// SegmentWriter emits entries into a single structurally complete archive
// segment. Every finished segment carries the end-of-archive trailer and
// extracts with ordinary tar tooling, whether or not further segments
// follow it.
//
// SegmentWriter performs no capacity accounting of its own; it checks
// after each entry that the bytes emitted match the entry's computed
// footprint, so budget decisions made from footprints hold on the wire.
type SegmentWriter struct {
	cw         countingWriter
	tw         *tar.Writer
	recordSize int64
	closed     bool
}

// NewSegmentWriter returns a writer for a single segment on w.
func NewSegmentWriter(w io.Writer) *SegmentWriter {
	return NewSegmentWriterSize(w, DefaultRecordSize)
}

// NewSegmentWriterSize is like NewSegmentWriter but zero-pads the finished
// segment to a multiple of recordSize, matching tape-style record IO.
// Values below BlockSize fall back to DefaultRecordSize; other values are
// rounded up to a block multiple.
func NewSegmentWriterSize(w io.Writer, recordSize int64) *SegmentWriter {
	if recordSize < BlockSize {
		recordSize = DefaultRecordSize
	}
	recordSize = roundBlock(recordSize)
	sw := &SegmentWriter{cw: countingWriter{w: w}, recordSize: recordSize}
	sw.tw = tar.NewWriter(&sw.cw)
	return sw
}

// WriteEntry appends one entry and its content to the segment.
//
// For entries with data the source is opened, exactly Size bytes are
// copied, and the source is closed. A source that runs dry early yields
// ErrShortRead. Any error leaves the segment truncated mid-entry;
// subsequent writes fail.
func (sw *SegmentWriter) WriteEntry(e *Entry) error {
	if sw.closed {
		return ErrClosed
	}
	want, err := e.Footprint()
	if err != nil {
		return err
	}
	start := sw.cw.n
	if err := sw.tw.WriteHeader(e.header()); err != nil {
		return fmt.Errorf("write header %s: %w", e.Name, err)
	}
	if e.Type.hasData() && e.Size > 0 {
		if e.Open == nil {
			return fmt.Errorf("%w: no data source: %s", ErrInvalidEntry, e.Name)
		}
		if err := sw.copyData(e); err != nil {
			return err
		}
	}
	if err := sw.tw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", e.Name, err)
	}
	if got := sw.cw.n - start; got != want {
		return fmt.Errorf("%w: %s occupies %d bytes, computed %d", ErrFootprintMismatch, e.Name, got, want)
	}
	return nil
}

// copyData streams exactly e.Size bytes from the entry's source.
func (sw *SegmentWriter) copyData(e *Entry) error {
	src, err := e.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	n, err := io.CopyN(sw.tw, src, e.Size)
	if cerr := src.Close(); cerr != nil && err == nil {
		return fmt.Errorf("close %s: %w", e.Name, cerr)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s delivered %d of %d bytes", ErrShortRead, e.Name, n, e.Size)
		}
		return fmt.Errorf("copy %s: %w", e.Name, err)
	}
	return nil
}

// Close writes the end-of-archive trailer and any record padding. The
// underlying writer is left open. Close is idempotent.
func (sw *SegmentWriter) Close() error {
	if sw.closed {
		return nil
	}
	sw.closed = true
	if err := sw.tw.Close(); err != nil {
		return err
	}
	if pad := roundRecord(sw.cw.n, sw.recordSize) - sw.cw.n; pad > 0 {
		if _, err := sw.cw.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

// Written returns the number of bytes emitted so far.
func (sw *SegmentWriter) Written() int64 {
	return sw.cw.n
}

// countingWriter tracks bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
