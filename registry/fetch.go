package registry

import (
	"context"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/tarspan"
)

// Fetch resolves a reference and returns its span manifest.
func (c *Client) Fetch(ctx context.Context, ref string) (*SpanManifest, error) {
	manifest, _, err := c.resolveSpan(ctx, ref)
	return manifest, err
}

// FetchSegment streams the named segment's stored bytes along with the
// stored size. Content is verified as it is read; the read that would
// report io.EOF reports ErrDigestMismatch instead when the bytes do not
// match the manifest.
func (c *Client) FetchSegment(ctx context.Context, ref string, name string) (io.ReadCloser, int64, error) {
	manifest, parsed, err := c.resolveSpan(ctx, ref)
	if err != nil {
		return nil, 0, err
	}
	desc, ok := manifest.Segment(name)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingSegment, name)
	}
	rc, err := c.oci.FetchBlob(ctx, parsed.repoRef(), &desc)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch segment %s: %w", name, mapOCIError(err))
	}
	return newVerifyReader(rc, desc.Digest), desc.Size, nil
}

// FetchCatalog retrieves and decodes the span's catalog.
func (c *Client) FetchCatalog(ctx context.Context, ref string) (*tarspan.Catalog, error) {
	manifest, parsed, err := c.resolveSpan(ctx, ref)
	if err != nil {
		return nil, err
	}
	desc, ok := manifest.Catalog()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingCatalog, ref)
	}
	rc, err := c.oci.FetchBlob(ctx, parsed.repoRef(), &desc)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", mapOCIError(err))
	}
	defer rc.Close()
	return tarspan.DecodeCatalog(newVerifyReader(rc, desc.Digest))
}

// resolveSpan parses the reference, resolves it to a manifest
// descriptor, and validates the manifest as a span artifact.
func (c *Client) resolveSpan(ctx context.Context, ref string) (*SpanManifest, spanRef, error) {
	parsed, err := parseSpanRef(ref)
	if err != nil {
		return nil, spanRef{}, err
	}
	if parsed.reference == "" {
		return nil, spanRef{}, fmt.Errorf("%w: tag or digest required: %s", ErrInvalidReference, ref)
	}
	repoRef := parsed.repoRef()

	var desc ocispec.Descriptor
	if isDigest(parsed.reference) {
		desc, err = descriptorFromDigest(parsed.reference)
		if err != nil {
			return nil, spanRef{}, err
		}
	} else {
		desc, err = c.oci.Resolve(ctx, repoRef, parsed.reference)
		if err != nil {
			return nil, spanRef{}, fmt.Errorf("resolve %s: %w", ref, mapOCIError(err))
		}
	}

	raw, err := c.oci.FetchManifest(ctx, repoRef, &desc)
	if err != nil {
		return nil, spanRef{}, fmt.Errorf("fetch manifest %s: %w", ref, mapOCIError(err))
	}
	manifest, err := parseSpanManifest(&raw, desc.Digest.String())
	if err != nil {
		return nil, spanRef{}, err
	}
	c.log().Debug("resolved span",
		"repository", repoRef,
		"reference", parsed.reference,
		"digest", manifest.Digest(),
		"segments", len(manifest.Segments()))
	return manifest, parsed, nil
}

// verifyReader hashes content as it streams and turns the final io.EOF
// into ErrDigestMismatch when the content does not match.
type verifyReader struct {
	rc       io.ReadCloser
	verifier digest.Verifier
	want     digest.Digest
}

func newVerifyReader(rc io.ReadCloser, want digest.Digest) io.ReadCloser {
	return &verifyReader{rc: rc, verifier: want.Verifier(), want: want}
}

func (r *verifyReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if n > 0 {
		if _, werr := r.verifier.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	if err == io.EOF && !r.verifier.Verified() {
		return n, fmt.Errorf("%w: content does not match %s", ErrDigestMismatch, r.want)
	}
	return n, err
}

func (r *verifyReader) Close() error {
	return r.rc.Close()
}
