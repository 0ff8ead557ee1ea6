package directory

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsca-dev/directory-go/testutil"
)

func TestNew(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: "ldaps://dc01.example.com:636",
			BaseDN: testBaseDN,
		}
	}

	t.Run("validates arguments", func(t *testing.T) {
		_, err := New(nil, "user", "pass")
		require.ErrorIs(t, err, ErrInvalidArgument)

		config := valid()
		config.Server = ""
		_, err = New(config, "user", "pass")
		require.ErrorIs(t, err, ErrInvalidArgument)

		config = valid()
		config.BaseDN = ""
		_, err = New(config, "user", "pass")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = New(valid(), "", "pass")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = New(valid(), "user", "")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("defaults containers", func(t *testing.T) {
		config := valid()
		_, err := New(config, "user", "pass")
		require.NoError(t, err)

		assert.Equal(t, "CN=Users,"+testBaseDN, config.UsersContainer)
		assert.Equal(t, config.UsersContainer, config.GroupsContainer)
		assert.Equal(t, "CN=Computers,"+testBaseDN, config.ComputersContainer)
	})

	t.Run("keeps explicit containers", func(t *testing.T) {
		config := valid()
		config.UsersContainer = "OU=Staff," + testBaseDN
		config.GroupsContainer = "OU=Groups," + testBaseDN

		_, err := New(config, "user", "pass")
		require.NoError(t, err)

		assert.Equal(t, "OU=Staff,"+testBaseDN, config.UsersContainer)
		assert.Equal(t, "OU=Groups,"+testBaseDN, config.GroupsContainer)
	})
}

func TestNewFromEncrypted(t *testing.T) {
	config := &Config{Server: "ldaps://dc01.example.com:636", BaseDN: testBaseDN}
	encrypt := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}

	t.Run("decrypts before binding", func(t *testing.T) {
		client, err := NewFromEncrypted(config, encrypt("svc"), encrypt("secret"), Base64Decrypter{})
		require.NoError(t, err)
		assert.Equal(t, "svc", client.user)
		assert.Equal(t, "secret", client.password)
	})

	t.Run("nil decrypter rejected", func(t *testing.T) {
		_, err := NewFromEncrypted(config, encrypt("svc"), encrypt("secret"), nil)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("undecryptable credential", func(t *testing.T) {
		_, err := NewFromEncrypted(config, "not base64 !!", encrypt("secret"), Base64Decrypter{})
		require.Error(t, err)
	})
}

func TestValidateCredentials(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	dn := seedUser(mock, "Jane Doe", "jdoe", nil)
	mock.SetPassword(dn, "Sunrise42!xx")
	client := newTestClient(t, mock)

	t.Run("valid pair", func(t *testing.T) {
		valid, err := client.ValidateCredentials("jdoe", "Sunrise42!xx")
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("rejected pair is not an error", func(t *testing.T) {
		valid, err := client.ValidateCredentials("jdoe", "wrong")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := client.ValidateCredentials("nobody", "whatever")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, err := client.ValidateCredentials("", "x")
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = client.ValidateCredentials("jdoe", "")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestSecureServer(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	client := newTestClient(t, mock)
	assert.True(t, client.secureServer())

	client.config.Server = "ldap://dc01.example.com:389"
	assert.False(t, client.secureServer())
}
