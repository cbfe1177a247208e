package registry

import (
	"fmt"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// SpanManifest provides read access to a fetched span manifest.
type SpanManifest struct {
	manifest ocispec.Manifest
	digest   string
	segments []ocispec.Descriptor
	catalog  *ocispec.Descriptor
}

// Digest returns the manifest digest.
func (m *SpanManifest) Digest() string {
	return m.digest
}

// Segments returns the segment layer descriptors in span order.
func (m *SpanManifest) Segments() []ocispec.Descriptor {
	return m.segments
}

// Segment returns the descriptor of the named segment.
func (m *SpanManifest) Segment(name string) (ocispec.Descriptor, bool) {
	for _, desc := range m.segments {
		if desc.Annotations[ocispec.AnnotationTitle] == name {
			return desc, true
		}
	}
	return ocispec.Descriptor{}, false
}

// Catalog returns the catalog layer descriptor when the span carries
// one.
func (m *SpanManifest) Catalog() (ocispec.Descriptor, bool) {
	if m.catalog == nil {
		return ocispec.Descriptor{}, false
	}
	return *m.catalog, true
}

// Annotations returns the manifest annotations.
func (m *SpanManifest) Annotations() map[string]string {
	return m.manifest.Annotations
}

// Created returns the creation time recorded at push, or the zero time
// when absent or unparseable.
func (m *SpanManifest) Created() time.Time {
	t, err := time.Parse(time.RFC3339, m.manifest.Annotations[ocispec.AnnotationCreated])
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseSpanManifest validates that a fetched manifest is a span
// artifact and splits its layers by role.
func parseSpanManifest(manifest *ocispec.Manifest, dgst string) (*SpanManifest, error) {
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%w: artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	m := &SpanManifest{manifest: *manifest, digest: dgst}
	for i := range manifest.Layers {
		layer := manifest.Layers[i]
		switch layer.MediaType {
		case MediaTypeSegment:
			m.segments = append(m.segments, layer)
		case MediaTypeCatalog:
			if m.catalog != nil {
				return nil, fmt.Errorf("%w: multiple catalog layers", ErrInvalidManifest)
			}
			m.catalog = &layer
		default:
			return nil, fmt.Errorf("%w: unexpected layer media type %q", ErrInvalidManifest, layer.MediaType)
		}
	}
	if len(m.segments) == 0 {
		return nil, fmt.Errorf("%w: no segment layers", ErrInvalidManifest)
	}
	return m, nil
}
