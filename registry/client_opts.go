package registry

import (
	"log/slog"

	"github.com/meigma/tarspan/registry/oras"
)

// Option configures a Client.
type Option func(*Client)

// WithOCIClient replaces the transport used for registry operations.
// Options that configure the default ORAS transport are ignored when
// this is set.
func WithOCIClient(oci OCIClient) Option {
	return func(c *Client) {
		c.oci = oci
	}
}

// WithLogger sets the logger for push and fetch progress. Operations
// are silent without it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPlainHTTP allows unencrypted HTTP registries, such as local
// development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.orasOpts = append(c.orasOpts, oras.WithPlainHTTP(enabled))
	}
}

// WithDockerConfig loads credentials from a specific Docker config
// file instead of the default location.
func WithDockerConfig(path string) Option {
	return func(c *Client) {
		c.orasOpts = append(c.orasOpts, oras.WithDockerConfig(path))
	}
}

// WithCredentials uses a fixed username and password for one registry.
func WithCredentials(registry, username, password string) Option {
	return func(c *Client) {
		c.orasOpts = append(c.orasOpts, oras.WithStaticCredentials(registry, username, password))
	}
}

// WithUserAgent sets the User-Agent header on registry requests.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.orasOpts = append(c.orasOpts, oras.WithUserAgent(agent))
	}
}
