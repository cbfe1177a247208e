package registry

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Push uploads a span and tags its manifest. The reference must carry a
// tag. Segment layers keep span order; the catalog layer comes last
// when the span has one.
func (c *Client) Push(ctx context.Context, ref string, span *Span, opts ...PushOption) error {
	o := &pushOptions{}
	for _, opt := range opts {
		opt(o)
	}

	parsed, err := parseSpanRef(ref)
	if err != nil {
		return err
	}
	if parsed.reference == "" || isDigest(parsed.reference) {
		return fmt.Errorf("%w: push requires a tag: %s", ErrInvalidReference, ref)
	}
	if span == nil || len(span.Segments) == 0 {
		return fmt.Errorf("%w: no segments to push", ErrInvalidSpan)
	}

	repoRef := parsed.repoRef()
	log := c.log().With("repository", repoRef, "tag", parsed.reference)

	configDesc := ocispec.DescriptorEmptyJSON
	if err := c.oci.PushBlob(ctx, repoRef, &configDesc, bytes.NewReader(configDesc.Data)); err != nil {
		return fmt.Errorf("push config: %w", mapOCIError(err))
	}

	layers := make([]ocispec.Descriptor, 0, len(span.Segments)+1)
	for _, seg := range span.Segments {
		desc := ocispec.Descriptor{
			MediaType: MediaTypeSegment,
			Digest:    seg.Digest,
			Size:      seg.Size,
			Annotations: map[string]string{
				ocispec.AnnotationTitle: seg.Name,
			},
		}
		content, err := seg.Open()
		if err != nil {
			return fmt.Errorf("open segment %s: %w", seg.Name, err)
		}
		err = c.oci.PushBlob(ctx, repoRef, &desc, content)
		content.Close()
		if err != nil {
			return fmt.Errorf("push segment %s: %w", seg.Name, mapOCIError(err))
		}
		log.Debug("pushed segment", "name", seg.Name, "digest", desc.Digest, "size", desc.Size)
		layers = append(layers, desc)
	}

	if span.Catalog != nil {
		var buf bytes.Buffer
		if err := span.Catalog.Encode(&buf); err != nil {
			return err
		}
		desc := ocispec.Descriptor{
			MediaType: MediaTypeCatalog,
			Digest:    digest.FromBytes(buf.Bytes()),
			Size:      int64(buf.Len()),
		}
		if err := c.oci.PushBlob(ctx, repoRef, &desc, &buf); err != nil {
			return fmt.Errorf("push catalog: %w", mapOCIError(err))
		}
		log.Debug("pushed catalog", "digest", desc.Digest, "size", desc.Size)
		layers = append(layers, desc)
	}

	annotations := map[string]string{
		ocispec.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range o.annotations {
		annotations[k] = v
	}

	manifest := ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       configDesc,
		Layers:       layers,
		Annotations:  annotations,
	}
	desc, err := c.oci.PushManifest(ctx, repoRef, parsed.reference, &manifest)
	if err != nil {
		return fmt.Errorf("push manifest: %w", mapOCIError(err))
	}
	log.Info("pushed span", "digest", desc.Digest, "segments", len(span.Segments))

	for _, tag := range o.tags {
		if err := c.oci.Tag(ctx, repoRef, &desc, tag); err != nil {
			return fmt.Errorf("tag %s: %w", tag, mapOCIError(err))
		}
	}
	return nil
}
