package oras

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// maxManifestBytes bounds manifest reads when the expected size is
// unknown. Span manifests are kilobytes.
const maxManifestBytes = 4 << 20

// Client performs OCI registry operations through ORAS.
//
// A single auth client with a token cache is shared across requests, so
// one Client can serve many operations against the same registry
// without re-authenticating.
type Client struct {
	plainHTTP  bool
	userAgent  string
	anonymous  bool // skip credential lookup entirely
	credStore  credentials.Store
	logger     *slog.Logger
	authClient *auth.Client
}

// New creates a Client with the given options.
//
// Without a credential option the Docker config store is used when one
// can be loaded; otherwise requests are anonymous.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: "tarspan/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.credStore == nil && !c.anonymous {
		if store, err := DefaultCredentialStore(); err == nil {
			c.credStore = store
		}
	}

	c.authClient = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.anonymous || c.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return c.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{c.userAgent},
		},
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// repository creates a Repository for the given reference. The shared
// auth client reuses tokens across requests.
func (c *Client) repository(ref string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	repo.PlainHTTP = c.plainHTTP
	repo.Client = c.authClient
	return repo, nil
}

// PushBlob pushes a blob to the repository.
//
// The descriptor must carry the pre-computed digest and size, and r
// must provide exactly desc.Size bytes. Content streams to the
// registry without buffering in memory.
func (c *Client) PushBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: content reader is nil", ErrInvalidDescriptor)
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return err
	}

	c.log().Debug("push blob", "repository", repoRef, "digest", desc.Digest, "size", desc.Size)
	if err := repo.Push(ctx, *desc, r); err != nil {
		return mapError(err)
	}
	return nil
}

// FetchBlob fetches a blob from the repository using the provided
// descriptor. The caller must close the returned reader.
func (c *Client) FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return nil, err
	}

	c.log().Debug("fetch blob", "repository", repoRef, "digest", desc.Digest, "size", desc.Size)
	rc, err := repo.Fetch(ctx, *desc)
	if err != nil {
		return nil, mapError(err)
	}
	return rc, nil
}

// PushManifest pushes a manifest and tags it with reference.
func (c *Client) PushManifest(ctx context.Context, repoRef string, reference string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	if manifest == nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: manifest is nil", ErrManifestInvalid)
	}
	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("marshal manifest: %w", err)
	}
	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    digest.FromBytes(manifestJSON),
		Size:      int64(len(manifestJSON)),
	}

	if err := repo.PushReference(ctx, desc, bytes.NewReader(manifestJSON), reference); err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	return desc, nil
}

// FetchManifest fetches and decodes the manifest for expected.
//
// When expected.Size is zero the size the registry reports is used,
// bounded by maxManifestBytes.
func (c *Client) FetchManifest(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, error) {
	if expected == nil || expected.Digest == "" {
		return ocispec.Manifest{}, fmt.Errorf("%w: digest required", ErrInvalidDescriptor)
	}
	if expected.MediaType != "" && expected.MediaType != ocispec.MediaTypeImageManifest {
		return ocispec.Manifest{}, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, expected.MediaType)
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Manifest{}, err
	}

	desc, rc, err := repo.FetchReference(ctx, expected.Digest.String())
	if err != nil {
		return ocispec.Manifest{}, mapError(err)
	}
	defer rc.Close()

	if desc.MediaType != "" && desc.MediaType != ocispec.MediaTypeImageManifest {
		return ocispec.Manifest{}, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, desc.MediaType)
	}

	limit := expected.Size
	if limit <= 0 {
		limit = desc.Size
	}
	if limit <= 0 || limit > maxManifestBytes {
		limit = maxManifestBytes
	}

	var manifest ocispec.Manifest
	if err := json.NewDecoder(io.LimitReader(rc, limit)).Decode(&manifest); err != nil {
		return ocispec.Manifest{}, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	return manifest, nil
}

// Resolve resolves a tag or digest reference to a descriptor.
func (c *Client) Resolve(ctx context.Context, repoRef string, ref string) (ocispec.Descriptor, error) {
	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc, err := repo.Resolve(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	return desc, nil
}

// Tag creates or updates a tag pointing to the given descriptor.
func (c *Client) Tag(ctx context.Context, repoRef string, desc *ocispec.Descriptor, tag string) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return err
	}

	if err := repo.Tag(ctx, *desc, tag); err != nil {
		return mapError(err)
	}
	return nil
}

// validateDescriptor checks that a descriptor is usable for transfer.
func validateDescriptor(desc *ocispec.Descriptor) error {
	if desc == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if desc.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidDescriptor, desc.Size)
	}
	if desc.Digest == "" {
		return fmt.Errorf("%w: empty digest", ErrInvalidDescriptor)
	}
	if err := desc.Digest.Validate(); err != nil {
		return fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidDescriptor, desc.Digest, err)
	}
	return nil
}

// mapError maps ORAS errors to sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}
