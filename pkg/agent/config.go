package agent

import (
	"log/slog"
	"time"
)

// Config holds agent client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// APIKey authenticates against the hosted agent endpoint.
	APIKey string

	// URL is the converse endpoint. Override for testing.
	URL string

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// KeepAliveInterval is how often the liveness message is sent while the
	// connection is otherwise idle. The endpoint times out quiet clients
	// after roughly eight seconds.
	KeepAliveInterval time.Duration

	// QuietWindow is how long after the last received frame the connection
	// is still considered to be streaming a response. Keep-alives are
	// suppressed inside this window so they never interleave with an
	// in-flight response.
	QuietWindow time.Duration

	// Logger is the structured logger for the client.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithURL overrides the converse endpoint URL.
func WithURL(url string) Option {
	return func(c *Config) {
		c.URL = url
	}
}

// WithHandshakeTimeout sets the WebSocket dial timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.HandshakeTimeout = d
	}
}

// WithKeepAliveInterval sets the idle liveness interval.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(c *Config) {
		c.KeepAliveInterval = d
	}
}

// WithQuietWindow sets the response-streaming suppression window.
func WithQuietWindow(d time.Duration) Option {
	return func(c *Config) {
		c.QuietWindow = d
	}
}

// WithLogger sets the structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:               DefaultURL,
		HandshakeTimeout:  10 * time.Second,
		KeepAliveInterval: 7 * time.Second,
		QuietWindow:       1500 * time.Millisecond,
		Logger:            slog.Default(),
	}
}
