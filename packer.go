package tarspan

import "fmt"

// MaxCapacity is the largest accepted byte budget. It is far beyond any
// real medium and exists so admission arithmetic cannot overflow; passing
// it to PackWithCapacity makes a run effectively unbounded.
const MaxCapacity = 1 << 62

// Decision is the outcome of admitting one entry against a segment
// budget.
type Decision uint8

const (
	// Defer means the entry does not fit the remaining budget; route it
	// to the continuation for a later segment.
	Defer Decision = iota

	// Accept means the entry fits and its footprint has been charged;
	// write it to the segment.
	Accept
)

// String returns the human-readable name of the decision.
func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Defer:
		return "defer"
	default:
		return "unknown"
	}
}

// Packer tracks the byte budget for one segment. It performs no IO;
// admission is pure arithmetic over entry footprints, with the trailer
// reserved at all times so the segment can always be finished in bounds.
//
// Pack drives a Packer internally; pair one with a SegmentWriter to run
// a custom admission loop.
type Packer struct {
	capacity   int64
	recordSize int64
	used       int64
}

// NewPacker returns a packer for one segment of the given capacity.
func NewPacker(capacity int64) (*Packer, error) {
	return NewPackerSize(capacity, DefaultRecordSize)
}

// NewPackerSize is like NewPacker for media that require whole records:
// admission also reserves the zero padding that rounds the finished
// segment up to a multiple of recordSize.
func NewPackerSize(capacity, recordSize int64) (*Packer, error) {
	if recordSize < BlockSize || recordSize%BlockSize != 0 {
		return nil, fmt.Errorf("%w: record size %d is not a multiple of %d", ErrInvalidCapacity, recordSize, BlockSize)
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d exceeds the supported maximum", ErrInvalidCapacity, capacity)
	}
	if roundRecord(TrailerSize, recordSize) > capacity {
		return nil, fmt.Errorf("%w: %d bytes cannot hold an empty segment", ErrInvalidCapacity, capacity)
	}
	return &Packer{capacity: capacity, recordSize: recordSize}, nil
}

// Admit decides the entry's fate against the remaining budget. Accept
// charges the entry's footprint to the budget; the caller is expected
// to write the entry. Defer leaves the budget untouched.
//
// An entry whose footprint could not fit even an empty segment of this
// capacity returns ErrEntryTooLarge; a descriptor that cannot be
// encoded at all returns its validation error. Neither changes the
// budget.
func (p *Packer) Admit(e *Entry) (Decision, error) {
	fp, err := e.Footprint()
	if err != nil {
		return Defer, err
	}
	if p.admit(fp) {
		p.consume(fp)
		return Accept, nil
	}
	if p.oversize(fp) {
		return Defer, p.tooLarge(e, fp)
	}
	return Defer, nil
}

// Remaining returns the bytes left before the reserved trailer.
func (p *Packer) Remaining() int64 {
	return p.capacity - p.used
}

// admit reports whether an entry with the given footprint fits alongside
// everything accepted so far, with room left for the trailer and record
// padding.
func (p *Packer) admit(footprint int64) bool {
	if footprint > p.capacity-p.used {
		return false
	}
	return roundRecord(p.used+footprint+TrailerSize, p.recordSize) <= p.capacity
}

// oversize reports whether the entry could never be admitted, even as the
// sole occupant of a fresh segment.
func (p *Packer) oversize(footprint int64) bool {
	if footprint > p.capacity {
		return true
	}
	return roundRecord(footprint+TrailerSize, p.recordSize) > p.capacity
}

// consume records an admitted entry's footprint against the budget.
func (p *Packer) consume(footprint int64) {
	p.used += footprint
}

// tooLarge builds the error naming an entry no segment of this capacity
// could hold.
func (p *Packer) tooLarge(e *Entry, footprint int64) error {
	need := roundRecord(footprint+TrailerSize, p.recordSize)
	return fmt.Errorf("%w: %s needs %d bytes, capacity is %d", ErrEntryTooLarge, e.sourcePath(), need, p.capacity)
}
