package directory

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Client is the directory context: it holds the server coordinates and the
// bound service credentials used by every operation. Each public operation
// acquires its own connection from the factory and closes it when done; no
// state is cached between calls, and concurrency control is delegated to
// the directory itself.
type Client struct {
	config   *Config
	user     string
	password string
	logger   *slog.Logger
	dial     ConnectionFactory
}

// Config contains the configuration for directory connections.
type Config struct {
	// Server is the directory URL, e.g. "ldaps://dc01.example.com:636".
	Server string
	// BaseDN is the search base, e.g. "DC=example,DC=com".
	BaseDN string
	// IsActiveDirectory enables AD-specific behavior such as the LDAPS
	// requirement for password changes.
	IsActiveDirectory bool

	// UsersContainer is the parent DN for created users. Defaults to
	// "CN=Users,<BaseDN>".
	UsersContainer string
	// GroupsContainer is the parent DN for created groups. Defaults to
	// UsersContainer.
	GroupsContainer string
	// ComputersContainer is the parent DN for created computers. Defaults
	// to "CN=Computers,<BaseDN>".
	ComputersContainer string

	DialTimeout time.Duration
	DialOptions []ldap.DialOpt
	Logger      *slog.Logger
}

// Decrypter recovers a stored credential before binding. The cryptography
// itself is an external capability; this package only consumes it at
// construction time.
type Decrypter interface {
	Decrypt(text string) (string, error)
}

// Base64Decrypter is the trivial Decrypter for credentials stored as
// standard base64.
type Base64Decrypter struct{}

func (Base64Decrypter) Decrypt(text string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("decrypting credential: %w", err)
	}
	return string(raw), nil
}

// New creates a directory client bound as the given service account.
// Connections are dialed lazily, one per operation.
func New(config *Config, username, password string, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, validationError("config", "cannot be nil")
	}
	if config.Server == "" {
		return nil, validationError("server URL", "cannot be empty")
	}
	if config.BaseDN == "" {
		return nil, validationError("base DN", "cannot be empty")
	}
	if username == "" {
		return nil, validationError("username", "cannot be empty")
	}
	if password == "" {
		return nil, validationError("password", "cannot be empty")
	}

	logger := slog.Default()
	if config.Logger != nil {
		logger = config.Logger
	}

	if config.UsersContainer == "" {
		config.UsersContainer = "CN=Users," + config.BaseDN
	}
	if config.GroupsContainer == "" {
		config.GroupsContainer = config.UsersContainer
	}
	if config.ComputersContainer == "" {
		config.ComputersContainer = "CN=Computers," + config.BaseDN
	}

	client := &Client{
		config:   config,
		user:     username,
		password: password,
		logger:   logger,
	}
	client.dial = client.dialDirect

	for _, opt := range opts {
		opt(client)
	}

	client.logger.Info("directory_client_initialized",
		slog.String("server", config.Server),
		slog.String("base_dn", config.BaseDN),
		slog.Bool("is_active_directory", config.IsActiveDirectory))

	return client, nil
}

// NewFromEncrypted creates a directory client from encrypted credentials,
// decrypting username and password with the given capability before
// binding.
func NewFromEncrypted(config *Config, username, password string, dec Decrypter, opts ...Option) (*Client, error) {
	if dec == nil {
		return nil, validationError("decrypter", "cannot be nil")
	}
	if username == "" {
		return nil, validationError("username", "cannot be empty")
	}
	if password == "" {
		return nil, validationError("password", "cannot be empty")
	}

	user, err := dec.Decrypt(username)
	if err != nil {
		return nil, err
	}
	pass, err := dec.Decrypt(password)
	if err != nil {
		return nil, err
	}

	return New(config, user, pass, opts...)
}

// connect acquires a bound connection for a single operation.
func (c *Client) connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.dial(ctx)
}

// dialDirect is the default connection factory: dial the configured server
// and bind with the service credentials.
func (c *Client) dialDirect(ctx context.Context) (Conn, error) {
	start := time.Now()

	c.logger.Debug("directory_connection_establishing",
		slog.String("server", c.config.Server))

	dialOpts := c.config.DialOptions
	if c.config.DialTimeout > 0 {
		dialOpts = append(dialOpts, ldap.DialWithDialer(dialerWithTimeout(c.config.DialTimeout)))
	}

	conn, err := ldap.DialURL(c.config.Server, dialOpts...)
	if err != nil {
		c.logger.Error("directory_connection_dial_failed",
			slog.String("server", c.config.Server),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, operationError("Dial", c.config.Server, "", err)
	}

	if err := ctx.Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := conn.Bind(c.user, c.password); err != nil {
		_ = conn.Close()
		c.logger.Error("directory_bind_failed",
			slog.String("server", c.config.Server),
			slog.String("user", c.user),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, operationError("Bind", c.config.Server, "", err)
	}

	c.logger.Debug("directory_connection_established",
		slog.String("server", c.config.Server),
		slog.Duration("duration", time.Since(start)))

	return conn, nil
}

// ValidateCredentials checks a username/password pair against the
// directory by binding as the resolved user on a fresh connection.
func (c *Client) ValidateCredentials(username, password string) (bool, error) {
	return c.ValidateCredentialsContext(context.Background(), username, password)
}

// ValidateCredentialsContext checks a username/password pair against the
// directory with context support. It returns false without error when the
// directory rejects the credentials, and an error for transport failures.
func (c *Client) ValidateCredentialsContext(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, validationError("username", "cannot be empty")
	}
	if password == "" {
		return false, validationError("password", "cannot be empty")
	}

	user, err := c.FindUserBySAMAccountNameContext(ctx, username)
	if err != nil {
		return false, err
	}

	return c.validateCredentialsForDN(ctx, user.DN(), password)
}

// validateCredentialsForDN binds as an already-resolved DN on a fresh
// connection. Callers that hold the user, like the login flow, use this
// directly to avoid a second lookup.
func (c *Client) validateCredentialsForDN(ctx context.Context, dn, password string) (bool, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Bind(dn, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			c.logger.Warn("credential_validation_rejected",
				slog.String("dn", dn))
			return false, nil
		}
		return false, operationError("ValidateCredentials", c.config.Server, dn, err)
	}

	return true, nil
}

// secureServer reports whether the configured server URL uses LDAPS.
func (c *Client) secureServer() bool {
	return strings.HasPrefix(c.config.Server, "ldaps://")
}
