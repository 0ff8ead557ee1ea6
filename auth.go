package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Login authenticates a user against the directory.
func (c *Client) Login(username, password string, allowGeneric bool) (*User, error) {
	return c.LoginContext(context.Background(), username, password, allowGeneric)
}

// LoginContext authenticates a user against the directory with context
// support. Failures are returned as data, never panicked, and the
// partially resolved user rides along with the error once the lookup has
// succeeded, so callers can log who failed to sign in.
//
// The checks short-circuit in a fixed order: argument validation, user
// lookup, lockout, activation, account class, then credentials. A locked
// account is reported as locked even when the password is also wrong;
// the credentials are never checked in that case.
func (c *Client) LoginContext(ctx context.Context, username, password string, allowGeneric bool) (*User, error) {
	correlationID := uuid.New().String()
	start := time.Now()

	logger := c.logger.With(
		slog.String("operation", "login"),
		slog.String("correlation_id", correlationID),
		slog.String("username", username))

	logger.Debug("login_attempt_started")

	if username == "" {
		return nil, validationError("username", "cannot be empty")
	}
	if password == "" {
		return nil, validationError("password", "cannot be empty")
	}

	user, err := c.FindUserBySAMAccountNameContext(ctx, username)
	if err != nil {
		logger.Warn("login_user_lookup_failed",
			slog.String("error", err.Error()))
		return nil, err
	}

	if user.LockedOut {
		logger.Warn("login_rejected", slog.String("reason", "account_locked"))
		return user, ErrAccountLocked
	}

	if !user.Enabled {
		logger.Warn("login_rejected", slog.String("reason", "account_inactive"))
		return user, ErrAccountInactive
	}

	if !allowGeneric {
		generic, err := c.IsGenericAccountContext(ctx, user)
		if err != nil {
			return user, err
		}
		if generic {
			logger.Warn("login_rejected", slog.String("reason", "generic_account"))
			return user, ErrGenericAccountNotAllowed
		}
	}

	valid, err := c.validateCredentialsForDN(ctx, user.DN(), password)
	if err != nil {
		return user, err
	}
	if !valid {
		logger.Warn("login_rejected", slog.String("reason", "invalid_credentials"))
		return user, ErrInvalidCredentials
	}

	logger.Info("login_succeeded",
		slog.Duration("duration", time.Since(start)))

	return user, nil
}
