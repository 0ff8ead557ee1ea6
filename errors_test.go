package directory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryError(t *testing.T) {
	underlying := errors.New("connection reset")

	t.Run("with dn", func(t *testing.T) {
		err := operationError("Search", "ldaps://dc01:636", "CN=x,DC=example,DC=com", underlying)
		assert.Contains(t, err.Error(), "Search")
		assert.Contains(t, err.Error(), "CN=x,DC=example,DC=com")
		assert.Contains(t, err.Error(), "connection reset")
		require.ErrorIs(t, err, underlying)
	})

	t.Run("without dn", func(t *testing.T) {
		err := operationError("Dial", "ldaps://dc01:636", "", underlying)
		assert.NotContains(t, err.Error(), "DN")
		require.ErrorIs(t, err, underlying)
	})

	t.Run("unwraps sentinels", func(t *testing.T) {
		err := operationError("Login", "ldaps://dc01:636", "", ErrInvalidCredentials)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestIsAuthenticationError(t *testing.T) {
	for _, err := range []error{
		ErrAccountLocked,
		ErrAccountInactive,
		ErrGenericAccountNotAllowed,
		ErrInvalidCredentials,
	} {
		assert.True(t, IsAuthenticationError(err), err.Error())
	}

	assert.False(t, IsAuthenticationError(ErrNotFound))
	assert.False(t, IsAuthenticationError(ErrPasswordPolicy))
	assert.False(t, IsAuthenticationError(nil))
}

func TestErrorHelpers(t *testing.T) {
	require.ErrorIs(t, validationError("username", "cannot be empty"), ErrInvalidArgument)
	require.ErrorIs(t, notFoundError(KindGroup, "staff"), ErrNotFound)
	require.ErrorIs(t, conflictError("user %q already exists", "jdoe"), ErrConflict)
	require.ErrorIs(t, unsupportedKindError("Activate", KindGroup), ErrUnsupportedKind)
}
