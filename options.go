package cerberus

import (
	"log/slog"

	"github.com/aretw0/cerberus/pkg/domain"
	"github.com/aretw0/cerberus/pkg/orchestrator"
	"github.com/aretw0/cerberus/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFetcher sets where example and fixed-link files are downloaded from.
func WithFetcher(f ports.SourceFetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithStore sets the snapshot store used for short links.
func WithStore(s ports.SnapshotStore) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithMetrics registers the request metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = orchestrator.NewMetrics(reg)
	}
}

// WithSettings sets the initial settings.
func WithSettings(s domain.Settings) Option {
	return func(c *Client) {
		c.settings = s
	}
}

// WithShareBaseURL sets the base URL of share links.
func WithShareBaseURL(base string) Option {
	return func(c *Client) {
		c.shareBase = base
	}
}

// WithDefaultExample overrides the file loaded when a URL has no link, and the
// title of its view.
func WithDefaultExample(name, title string) Option {
	return func(c *Client) {
		c.example = name
		c.exampleTitle = title
	}
}
