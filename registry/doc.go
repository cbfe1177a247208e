// Package registry publishes and retrieves span artifacts through
// OCI-compatible registries.
//
// A span is the output of one packing run sequence: an ordered set of
// segment files plus an optional catalog describing them. Push uploads
// each segment as an image layer in input order, appends the catalog as
// a final layer when present, and tags a manifest that ties them
// together. Fetch resolves a reference back to that manifest, and
// FetchSegment streams an individual segment with digest verification.
//
// The default transport is ORAS with Docker-config credentials. Tests
// and alternative transports can supply their own OCIClient via
// WithOCIClient.
package registry
