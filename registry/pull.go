package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// CatalogFileName is the file Pull writes the catalog layer to.
const CatalogFileName = "catalog.cbor"

// Pull downloads every segment of the span at ref into dir, plus the
// catalog when present. Content is digest-verified as it arrives and
// written through temp files, so an interrupted pull leaves no partial
// segment behind.
func (c *Client) Pull(ctx context.Context, ref string, dir string) (*SpanManifest, error) {
	manifest, parsed, err := c.resolveSpan(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	repoRef := parsed.repoRef()
	log := c.log().With("repository", repoRef, "reference", parsed.reference)

	for i, desc := range manifest.Segments() {
		name := desc.Annotations[ocispec.AnnotationTitle]
		if name == "" {
			name = fmt.Sprintf("segment-%03d.tar", i)
		}
		if err := checkLayerTitle(name); err != nil {
			return nil, err
		}
		rc, err := c.oci.FetchBlob(ctx, repoRef, &desc)
		if err != nil {
			return nil, fmt.Errorf("fetch segment %s: %w", name, mapOCIError(err))
		}
		vr := newVerifyReader(rc, desc.Digest)
		err = saveStream(filepath.Join(dir, name), vr)
		vr.Close()
		if err != nil {
			return nil, fmt.Errorf("save segment %s: %w", name, err)
		}
		log.Debug("pulled segment", "name", name, "size", desc.Size)
	}

	if desc, ok := manifest.Catalog(); ok {
		rc, err := c.oci.FetchBlob(ctx, repoRef, &desc)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog: %w", mapOCIError(err))
		}
		vr := newVerifyReader(rc, desc.Digest)
		err = saveStream(filepath.Join(dir, CatalogFileName), vr)
		vr.Close()
		if err != nil {
			return nil, fmt.Errorf("save catalog: %w", err)
		}
	}

	log.Info("pulled span",
		"digest", manifest.Digest(),
		"segments", len(manifest.Segments()),
		"dir", dir)
	return manifest, nil
}

// checkLayerTitle rejects layer titles that would escape the target
// directory.
func checkLayerTitle(name string) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: unsafe layer title %q", ErrInvalidManifest, name)
	}
	return nil
}

// saveStream writes r to path through a temp file and rename.
func saveStream(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tarspan-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
