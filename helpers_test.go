package directory

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bsca-dev/directory-go/testutil"
)

const (
	testBaseDN          = "DC=example,DC=com"
	testUsersContainer  = "CN=Users,DC=example,DC=com"
	testServiceUser     = "CN=svc,CN=Users,DC=example,DC=com"
	testServicePassword = "service-secret"
)

func newTestClient(t *testing.T, mock *testutil.MockDirectoryConn) *Client {
	t.Helper()

	config := &Config{
		Server:            "ldaps://dc01.example.com:636",
		BaseDN:            testBaseDN,
		IsActiveDirectory: true,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	client, err := New(config, testServiceUser, testServicePassword,
		WithConnectionFactory(func(ctx context.Context) (Conn, error) {
			return mock, nil
		}))
	require.NoError(t, err)

	return client
}

// seedUser stores a user entry and returns its DN. Overrides replace the
// defaults attribute by attribute; a nil value removes the attribute.
func seedUser(mock *testutil.MockDirectoryConn, cn, sAMAccountName string, overrides map[string][]string) string {
	dn := "CN=" + cn + "," + testUsersContainer
	attrs := map[string][]string{
		"objectClass":        {"top", "person", "organizationalPerson", "user"},
		"cn":                 {cn},
		"sAMAccountName":     {sAMAccountName},
		"userAccountControl": {"512"},
	}
	applyOverrides(attrs, overrides)
	mock.AddEntry(dn, attrs)
	return dn
}

func seedGroup(mock *testutil.MockDirectoryConn, cn string, members ...string) string {
	dn := "CN=" + cn + "," + testUsersContainer
	mock.AddEntry(dn, map[string][]string{
		"objectClass":    {"top", "group"},
		"cn":             {cn},
		"sAMAccountName": {cn},
		"member":         members,
	})
	return dn
}

func seedComputer(mock *testutil.MockDirectoryConn, cn string, overrides map[string][]string) string {
	dn := "CN=" + cn + ",CN=Computers," + testBaseDN
	attrs := map[string][]string{
		"objectClass":        {"top", "person", "organizationalPerson", "user", "computer"},
		"cn":                 {cn},
		"sAMAccountName":     {cn + "$"},
		"userAccountControl": {"4096"},
	}
	applyOverrides(attrs, overrides)
	mock.AddEntry(dn, attrs)
	return dn
}

func applyOverrides(attrs, overrides map[string][]string) {
	for name, values := range overrides {
		if values == nil {
			delete(attrs, name)
			continue
		}
		attrs[name] = values
	}
}

func findTestUser(t *testing.T, client *Client, sAMAccountName string) *User {
	t.Helper()
	user, err := client.FindUserBySAMAccountName(sAMAccountName)
	require.NoError(t, err)
	return user
}

func findTestGroup(t *testing.T, client *Client, name string) *Group {
	t.Helper()
	group, err := client.FindGroupByName(name)
	require.NoError(t, err)
	return group
}
