package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/tarspan"
)

// Segment describes one stored segment file to publish. Digest and Size
// cover the bytes as stored, compression included, which may differ
// from the archive stream the catalog records.
type Segment struct {
	// Name is the segment's file name and becomes the layer title.
	Name string

	// Digest is the digest of the stored bytes.
	Digest digest.Digest

	// Size is the stored length in bytes.
	Size int64

	// Open returns the stored bytes for upload.
	Open func() (io.ReadCloser, error)
}

// Span bundles the segments of one packing run sequence with its
// optional catalog.
type Span struct {
	// Segments in creation order. Push preserves this order in the
	// manifest layers.
	Segments []Segment

	// Catalog is attached as the final layer when non-nil.
	Catalog *tarspan.Catalog
}

// SegmentFromFile describes the segment stored at path, hashing its
// contents once. Open re-reads the file, so the bytes must not change
// before the push completes.
func SegmentFromFile(path string) (Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return Segment{}, err
	}
	defer f.Close()

	dgst, err := digest.FromReader(f)
	if err != nil {
		return Segment{}, fmt.Errorf("digest %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return Segment{}, err
	}
	return Segment{
		Name:   filepath.Base(path),
		Digest: dgst,
		Size:   info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// SpanFromCatalog builds a Span from a catalog whose segment files live
// in dir. Segment names come from the catalog, digests and sizes from
// the files as stored.
func SpanFromCatalog(dir string, cat *tarspan.Catalog) (*Span, error) {
	span := &Span{
		Segments: make([]Segment, 0, len(cat.Segments)),
		Catalog:  cat,
	}
	for _, rec := range cat.Segments {
		seg, err := SegmentFromFile(filepath.Join(dir, rec.Name))
		if err != nil {
			return nil, err
		}
		seg.Name = rec.Name
		span.Segments = append(span.Segments, seg)
	}
	return span, nil
}
