package registry

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	orasregistry "oras.land/oras-go/v2/registry"
)

// spanRef is a parsed artifact reference.
type spanRef struct {
	registry   string
	repository string
	// reference is the tag or digest portion, empty when the input
	// named only a repository.
	reference string
}

func parseSpanRef(ref string) (spanRef, error) {
	parsed, err := orasregistry.ParseReference(ref)
	if err != nil {
		return spanRef{}, fmt.Errorf("%w: %s: %v", ErrInvalidReference, ref, err)
	}
	return spanRef{
		registry:   parsed.Registry,
		repository: parsed.Repository,
		reference:  parsed.Reference,
	}, nil
}

// repoRef returns the registry/repository prefix without tag or digest.
func (r spanRef) repoRef() string {
	return r.registry + "/" + r.repository
}

// isDigest reports whether the reference portion is a digest rather
// than a tag. Digests always contain a colon; tags never do.
func isDigest(reference string) bool {
	return strings.Contains(reference, ":")
}

// descriptorFromDigest builds a minimal descriptor for a known manifest
// digest. Size zero tells FetchManifest to accept the size the registry
// reports.
func descriptorFromDigest(dgst string) (ocispec.Descriptor, error) {
	parsed, err := digest.Parse(dgst)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    parsed,
	}, nil
}
