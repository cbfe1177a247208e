package tarspan

import "math"

// Archive geometry.
const (
	// BlockSize is the tar block size. Headers occupy one block and data
	// is zero-padded to a block boundary.
	BlockSize = 512

	// TrailerSize is the end-of-archive marker: two zero blocks.
	TrailerSize = 2 * BlockSize

	// DefaultRecordSize is the record granularity segments are padded to.
	// The default adds no padding beyond the block structure itself.
	DefaultRecordSize = BlockSize

	// MaxNameLen is the longest path or link target a segment can record.
	// The long-name record stores the string plus a NUL terminator, and
	// its length field holds eleven octal digits.
	MaxNameLen = 1<<33 - 2

	// nameFieldSize is the width of the name and linkname header fields.
	// Longer strings spill into a long-name record.
	nameFieldSize = 100
)

// Footprint returns the exact number of bytes the entry occupies in a
// segment: one header block, a long-name record for the path and the link
// target when either exceeds the header field, and content rounded up to
// the block size.
//
// The value depends only on the descriptor, so admission decisions can be
// made before any data is read.
func (e *Entry) Footprint() (int64, error) {
	if err := e.validate(); err != nil {
		return 0, err
	}
	n := int64(BlockSize)
	if name := e.archiveName(); len(name) > nameFieldSize {
		n += BlockSize + roundBlock(int64(len(name))+1)
	}
	if len(e.LinkTarget) > nameFieldSize {
		n += BlockSize + roundBlock(int64(len(e.LinkTarget))+1)
	}
	if e.Type.hasData() {
		if e.Size > math.MaxInt64-(BlockSize-1)-n {
			return 0, ErrSizeOverflow
		}
		n += roundBlock(e.Size)
	}
	return n, nil
}

// roundBlock rounds n up to the next multiple of BlockSize.
func roundBlock(n int64) int64 {
	return (n + BlockSize - 1) &^ (BlockSize - 1)
}

// roundRecord rounds n up to the next multiple of the record size.
func roundRecord(n, recordSize int64) int64 {
	if rem := n % recordSize; rem != 0 {
		return n + recordSize - rem
	}
	return n
}
