package registry

import "errors"

var (
	// ErrNotFound is returned when a reference, manifest, or blob does
	// not exist in the registry.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference cannot be parsed
	// or lacks a required component such as a tag.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when a fetched manifest is not a
	// span artifact or is structurally malformed.
	ErrInvalidManifest = errors.New("registry: invalid span manifest")

	// ErrInvalidSpan is returned when a span cannot be pushed, such as
	// one with no segments.
	ErrInvalidSpan = errors.New("registry: invalid span")

	// ErrMissingSegment is returned when a requested segment is not
	// present in the span manifest.
	ErrMissingSegment = errors.New("registry: missing segment")

	// ErrMissingCatalog is returned when the span manifest carries no
	// catalog layer.
	ErrMissingCatalog = errors.New("registry: missing catalog")

	// ErrDigestMismatch is returned when fetched content does not match
	// the digest its descriptor promises.
	ErrDigestMismatch = errors.New("registry: digest mismatch")
)
