package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsca-dev/directory-go/testutil"
)

func TestIsEnabled(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	seedUser(mock, "Active User", "active", nil)
	seedUser(mock, "Inactive User", "inactive", map[string][]string{"userAccountControl": {"514"}})
	seedUser(mock, "No Control User", "nocontrol", map[string][]string{"userAccountControl": nil})
	seedGroup(mock, "staff")
	client := newTestClient(t, mock)

	t.Run("enabled user", func(t *testing.T) {
		enabled, err := client.IsEnabled(findTestUser(t, client, "active"))
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("disabled user", func(t *testing.T) {
		enabled, err := client.IsEnabled(findTestUser(t, client, "inactive"))
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("missing control attribute reads as disabled", func(t *testing.T) {
		enabled, err := client.IsEnabled(findTestUser(t, client, "nocontrol"))
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("groups are unsupported", func(t *testing.T) {
		_, err := client.IsEnabled(findTestGroup(t, client, "staff"))
		require.ErrorIs(t, err, ErrUnsupportedKind)
	})
}

func TestActivateDeactivate(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	userDN := seedUser(mock, "Jane Doe", "jdoe", map[string][]string{
		// Disabled, password never expires. The expiry flag must survive
		// activation.
		"userAccountControl": {"66050"},
	})
	computerDN := seedComputer(mock, "WS01", nil)
	seedGroup(mock, "staff")
	client := newTestClient(t, mock)

	t.Run("activate preserves unrelated flags", func(t *testing.T) {
		user := findTestUser(t, client, "jdoe")
		require.NoError(t, client.Activate(user))

		assert.Equal(t, "66048", mock.Attribute(userDN, "userAccountControl"))
		assert.True(t, user.Enabled)
	})

	t.Run("deactivate sets the disable flag", func(t *testing.T) {
		user := findTestUser(t, client, "jdoe")
		require.NoError(t, client.Deactivate(user))

		assert.Equal(t, "66050", mock.Attribute(userDN, "userAccountControl"))
		assert.False(t, user.Enabled)
	})

	t.Run("computers share the activation semantics", func(t *testing.T) {
		computer := &Computer{Object: Object{cn: "WS01", dn: computerDN}}
		require.NoError(t, client.Deactivate(computer))
		assert.Equal(t, "4098", mock.Attribute(computerDN, "userAccountControl"))

		require.NoError(t, client.Activate(computer))
		assert.Equal(t, "4096", mock.Attribute(computerDN, "userAccountControl"))
		assert.True(t, computer.Enabled)
	})

	t.Run("missing control activates to a normal account", func(t *testing.T) {
		dn := seedUser(mock, "No Control User", "nocontrol", map[string][]string{"userAccountControl": nil})
		user := findTestUser(t, client, "nocontrol")

		require.NoError(t, client.Activate(user))
		assert.Equal(t, "512", mock.Attribute(dn, "userAccountControl"))
	})

	t.Run("missing control activates to a workstation account", func(t *testing.T) {
		dn := seedComputer(mock, "WS02", map[string][]string{"userAccountControl": nil})
		computer := &Computer{Object: Object{cn: "WS02", dn: dn}}

		require.NoError(t, client.Activate(computer))
		assert.Equal(t, "4096", mock.Attribute(dn, "userAccountControl"))
	})

	t.Run("groups are unsupported", func(t *testing.T) {
		group := findTestGroup(t, client, "staff")
		require.ErrorIs(t, client.Activate(group), ErrUnsupportedKind)
		require.ErrorIs(t, client.Deactivate(group), ErrUnsupportedKind)
	})

	t.Run("vanished principal", func(t *testing.T) {
		ghost := &User{Object: Object{cn: "Ghost", dn: "CN=Ghost," + testUsersContainer}}
		require.ErrorIs(t, client.Activate(ghost), ErrNotFound)
	})
}
