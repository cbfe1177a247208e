package tarspan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"
)

// CatalogVersion is the current catalog format version.
const CatalogVersion = 1

// catEncMode is the CBOR encoder configured with Core Deterministic
// Encoding: sorted map keys, smallest integer encoding, no
// indefinite-length items. The same catalog always produces identical
// bytes.
var catEncMode cbor.EncMode

// catDecMode is the CBOR decoder for catalogs. Unknown fields are
// ignored for forward compatibility.
var catDecMode cbor.DecMode

func init() {
	var err error
	catEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("tarspan: CBOR encoder initialization failed: " + err.Error())
	}
	catDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("tarspan: CBOR decoder initialization failed: " + err.Error())
	}
}

// Catalog records the segments of a span and the entries each one holds,
// so a path can be located without re-reading any archive.
type Catalog struct {
	// Version is the catalog format version.
	Version int `cbor:"version"`

	// CreatedAt is when the catalog was created.
	CreatedAt time.Time `cbor:"created_at"`

	// Segments lists the span's segments in creation order.
	Segments []SegmentRecord `cbor:"segments"`
}

// SegmentRecord describes one stored segment.
type SegmentRecord struct {
	// Name is the segment's file name, relative to the catalog.
	Name string `cbor:"name"`

	// Digest is the canonical digest of the segment's archive stream.
	Digest digest.Digest `cbor:"digest"`

	// Size is the archive stream length in bytes.
	Size int64 `cbor:"size"`

	// CreatedAt is when the segment was written.
	CreatedAt time.Time `cbor:"created_at"`

	// Entries lists the segment's members in archive order.
	Entries []CatalogEntry `cbor:"entries"`
}

// CatalogEntry locates one archive member inside its segment.
type CatalogEntry struct {
	// Path is the name recorded in the archive.
	Path string `cbor:"path"`

	// Size is the member's content length in bytes.
	Size int64 `cbor:"size"`

	// Offset is the byte position of the member's first header block.
	Offset int64 `cbor:"offset"`
}

// NewCatalog returns an empty catalog at the current version.
func NewCatalog() *Catalog {
	return &Catalog{Version: CatalogVersion, CreatedAt: time.Now().UTC()}
}

// AddSegment appends a segment produced by Pack under the given file
// name.
func (c *Catalog) AddSegment(name string, res *Result) {
	rec := SegmentRecord{
		Name:      name,
		Digest:    res.Digest,
		Size:      res.WrittenBytes,
		CreatedAt: time.Now().UTC(),
		Entries:   make([]CatalogEntry, 0, len(res.Accepted)),
	}
	for _, e := range res.Accepted {
		rec.Entries = append(rec.Entries, CatalogEntry{
			Path:   e.Name,
			Size:   e.Size,
			Offset: e.Offset,
		})
	}
	c.Segments = append(c.Segments, rec)
}

// Locate returns the segment and entry holding the given path, searching
// segments in order. The returned pointers alias the catalog; treat them
// as read-only.
func (c *Catalog) Locate(path string) (*SegmentRecord, *CatalogEntry, bool) {
	for i := range c.Segments {
		seg := &c.Segments[i]
		for j := range seg.Entries {
			if seg.Entries[j].Path == path {
				return seg, &seg.Entries[j], true
			}
		}
	}
	return nil, nil, false
}

// Encode writes the catalog as deterministic CBOR.
func (c *Catalog) Encode(w io.Writer) error {
	data, err := catEncMode.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// DecodeCatalog reads a catalog from CBOR.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := catDecMode.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

// Save writes the catalog to path atomically via a temp file and rename.
// Parent directories are created as needed.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	data, err := catEncMode.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a catalog from a file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// writeFileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".tarspan-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
