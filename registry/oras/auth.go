package oras

import (
	"context"
	"errors"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// DefaultCredentialStore returns a credential store that reads from
// Docker config (~/.docker/config.json) and credential helpers.
func DefaultCredentialStore() (credentials.Store, error) {
	return credentials.NewStoreFromDocker(credentials.StoreOptions{})
}

// CredentialStoreFromFile returns a credential store that reads from a
// specific Docker config file.
func CredentialStoreFromFile(path string) (credentials.Store, error) {
	return credentials.NewStore(path, credentials.StoreOptions{})
}

// StaticCredentials returns a credential store with a single static
// username/password credential for the specified registry.
func StaticCredentials(registry, username, password string) credentials.Store {
	return &staticStore{
		registry: normalizeServerAddress(registry),
		cred: auth.Credential{
			Username: username,
			Password: password,
		},
	}
}

// StaticToken returns a credential store with a bearer token for the
// specified registry.
func StaticToken(registry, token string) credentials.Store {
	return &staticStore{
		registry: normalizeServerAddress(registry),
		cred: auth.Credential{
			AccessToken: token,
		},
	}
}

// staticStore implements credentials.Store for a single static credential.
type staticStore struct {
	registry string
	cred     auth.Credential
}

// Get retrieves credentials for the given server address.
func (s *staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	if normalizeServerAddress(serverAddress) == s.registry {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

// Put is not supported for static credentials.
func (s *staticStore) Put(_ context.Context, _ string, _ auth.Credential) error {
	return errors.New("static credential store is read-only")
}

// Delete is not supported for static credentials.
func (s *staticStore) Delete(_ context.Context, _ string) error {
	return errors.New("static credential store is read-only")
}

// normalizeServerAddress extracts the host[:port] from a server address.
// It strips the scheme and path but preserves the port for credential
// matching.
func normalizeServerAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr, _, _ = strings.Cut(addr, "/")
	return addr
}
