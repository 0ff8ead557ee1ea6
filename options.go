package directory

import (
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for directory operations.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, err := directory.New(&config, username, password, directory.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
			c.config.Logger = logger
		}
	}
}

// WithTLS configures TLS settings for secure directory connections.
func WithTLS(tlsConfig *tls.Config) Option {
	return func(c *Client) {
		if tlsConfig != nil {
			c.config.DialOptions = append(c.config.DialOptions, ldap.DialWithTLSConfig(tlsConfig))
		}
	}
}

// WithDialOptions adds custom dial options for directory connections.
func WithDialOptions(dialOpts ...ldap.DialOpt) Option {
	return func(c *Client) {
		if len(dialOpts) > 0 {
			c.config.DialOptions = append(c.config.DialOptions, dialOpts...)
		}
	}
}

// WithDialTimeout sets the timeout for establishing directory connections.
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.config.DialTimeout = timeout
		}
	}
}

// WithConnectionFactory replaces the connection factory. Embedders can
// route operations through their own transport (pooling, instrumentation,
// test doubles); the client still opens and closes one connection per
// operation.
func WithConnectionFactory(factory ConnectionFactory) Option {
	return func(c *Client) {
		if factory != nil {
			c.dial = factory
		}
	}
}

func dialerWithTimeout(timeout time.Duration) *net.Dialer {
	return &net.Dialer{Timeout: timeout}
}
