package tarspan

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the stream compression applied to a stored
// segment. Capacity accounting always runs over the archive stream
// itself; compression only changes the bytes at rest.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression maps an algorithm name to its value.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("tarspan: unknown compression %q", s)
	}
}

// NewCompressor wraps w with the chosen compressor. The returned writer
// must be closed to flush its final frame; closing it does not close w.
func NewCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
	default:
		return nil, fmt.Errorf("tarspan: unknown compression %d", c)
	}
}

// Stream compression magic numbers.
const (
	gzipMagic0 = 0x1f
	gzipMagic1 = 0x8b
	zstdMagic  = 0xfd2fb528
)

// OpenSegment returns a reader over the archive stream of a stored
// segment, sniffing gzip and zstd magic and decompressing transparently.
// Unrecognized leading bytes are passed through as a plain stream.
func OpenSegment(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && len(magic) < 2 {
		// Too short for any magic; hand the bytes through untouched.
		return io.NopCloser(br), nil
	}
	switch {
	case magic[0] == gzipMagic0 && magic[1] == gzipMagic1:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	case len(magic) >= 4 && binary.LittleEndian.Uint32(magic) == zstdMagic:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// nopWriteCloser turns a plain writer into a no-op closer.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
