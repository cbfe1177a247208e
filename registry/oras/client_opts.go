package oras

import (
	"log/slog"

	"oras.land/oras-go/v2/registry/remote/credentials"
)

// Option configures a Client.
type Option func(*Client)

// WithCredentialStore sets the credential store for authentication.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *Client) {
		c.credStore = store
	}
}

// WithStaticCredentials sets static username/password credentials for a
// registry.
func WithStaticCredentials(registry, username, password string) Option {
	return func(c *Client) {
		c.credStore = StaticCredentials(registry, username, password)
	}
}

// WithStaticToken sets a bearer token for a registry.
func WithStaticToken(registry, token string) Option {
	return func(c *Client) {
		c.credStore = StaticToken(registry, token)
	}
}

// WithDockerConfig reads credentials from a Docker config file. An
// empty path uses the default location. When the config cannot be
// loaded, common in environments without Docker, the client proceeds
// without credentials.
func WithDockerConfig(path string) Option {
	return func(c *Client) {
		var (
			store credentials.Store
			err   error
		)
		if path == "" {
			store, err = DefaultCredentialStore()
		} else {
			store, err = CredentialStoreFromFile(path)
		}
		if err != nil {
			return
		}
		c.credStore = store
	}
}

// WithPlainHTTP enables plain HTTP (no TLS) for registries. Useful for
// local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithAnonymous disables all authentication, including credential store
// lookups.
func WithAnonymous() Option {
	return func(c *Client) {
		c.anonymous = true
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for transfer-level debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
