package registry

import (
	"io"
	"log/slog"

	"github.com/meigma/tarspan/registry/oras"
)

// Client pushes and fetches span artifacts. The zero value is not
// usable; construct one with New.
type Client struct {
	oci      OCIClient
	logger   *slog.Logger
	orasOpts []oras.Option
}

// New creates a Client. Without WithOCIClient it talks to registries
// through ORAS using Docker-config credentials.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.oci == nil {
		orasOpts := c.orasOpts
		if c.logger != nil {
			orasOpts = append(orasOpts, oras.WithLogger(c.logger))
		}
		c.oci = oras.New(orasOpts...)
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
