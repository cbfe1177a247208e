// Package oras provides the OCI transport for span artifacts, wrapping
// the ORAS library.
//
// Client handles authentication, retries, and error mapping for the
// small set of registry operations the span client needs: blob and
// manifest push, blob and manifest fetch, resolve, and tag.
package oras
