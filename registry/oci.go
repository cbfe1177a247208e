package registry

import (
	"context"
	"io"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// OCIClient abstracts the registry operations the span client needs.
// The production implementation lives in the oras subpackage; tests
// substitute mocks through WithOCIClient.
type OCIClient interface {
	// Resolve maps a tag or digest reference to a manifest descriptor.
	Resolve(ctx context.Context, repoRef string, ref string) (ocispec.Descriptor, error)

	// FetchManifest retrieves and decodes the manifest for desc.
	FetchManifest(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (ocispec.Manifest, error)

	// FetchBlob opens the blob content for desc. The caller owns the
	// returned reader and must close it.
	FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error)

	// PushBlob uploads blob content matching desc.
	PushBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor, content io.Reader) error

	// PushManifest uploads a manifest and tags it with reference.
	PushManifest(ctx context.Context, repoRef string, reference string, manifest *ocispec.Manifest) (ocispec.Descriptor, error)

	// Tag applies an additional tag to an existing manifest.
	Tag(ctx context.Context, repoRef string, desc *ocispec.Descriptor, tag string) error
}
