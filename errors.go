package tarspan

import "errors"

// Sentinel errors for entry validation and admission.
var (
	// ErrNameTooLong is returned when a path or link target exceeds the
	// maximum length the long-name extension can represent.
	ErrNameTooLong = errors.New("tarspan: name too long")

	// ErrEntryTooLarge is returned when a single entry's footprint plus the
	// archive trailer cannot fit inside the capacity, even in an otherwise
	// empty segment.
	ErrEntryTooLarge = errors.New("tarspan: entry exceeds capacity")

	// ErrInvalidEntry is returned when an entry descriptor is malformed:
	// an empty or NUL-bearing name, a negative size, data declared on a
	// kind that carries none, or a missing data source.
	ErrInvalidEntry = errors.New("tarspan: invalid entry")

	// ErrInvalidCapacity is returned when the capacity is too small to hold
	// even an empty segment, or the record size is not a positive multiple
	// of the block size.
	ErrInvalidCapacity = errors.New("tarspan: invalid capacity")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("tarspan: size overflow")

	// ErrUnsupportedType is returned when a filesystem object has no
	// archive representation, such as a socket.
	ErrUnsupportedType = errors.New("tarspan: unsupported file type")
)

// Sentinel errors for segment writing and verification.
var (
	// ErrShortRead is returned when an entry's data source ends before
	// delivering the declared number of bytes.
	ErrShortRead = errors.New("tarspan: short read")

	// ErrSourceChanged is returned when a filesystem object no longer
	// matches its resolved descriptor at open time, such as a regular
	// file swapped for a symlink between resolution and admission.
	ErrSourceChanged = errors.New("tarspan: source changed")

	// ErrFootprintMismatch is returned when the bytes emitted for an entry
	// differ from its computed footprint.
	ErrFootprintMismatch = errors.New("tarspan: footprint mismatch")

	// ErrClosed is returned when writing to a segment that has been closed.
	ErrClosed = errors.New("tarspan: segment closed")

	// ErrDigestMismatch is returned when segment content does not match its
	// recorded digest.
	ErrDigestMismatch = errors.New("tarspan: digest mismatch")
)
