package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsca-dev/directory-go/testutil"
)

func TestGroupMembers(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	userDN := seedUser(mock, "Jane Doe", "jdoe", nil)
	computerDN := seedComputer(mock, "WS01", nil)
	nestedDN := seedGroup(mock, "nested")
	seedGroup(mock, "staff", userDN, computerDN, nestedDN)
	client := newTestClient(t, mock)
	group := findTestGroup(t, client, "staff")

	t.Run("resolves each member to its kind", func(t *testing.T) {
		members, err := client.GroupMembers(group)
		require.NoError(t, err)
		require.Len(t, members, 3)

		kinds := make([]ObjectKind, 0, len(members))
		for _, m := range members {
			kinds = append(kinds, m.Kind())
		}
		assert.ElementsMatch(t, []ObjectKind{KindUser, KindComputer, KindGroup}, kinds)
	})

	t.Run("filters by kind", func(t *testing.T) {
		users, err := client.GroupMembersOfKind(group, KindUser)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Jane Doe", users[0].CN())
	})

	t.Run("vanished group", func(t *testing.T) {
		ghost := &Group{Object: Object{cn: "ghost", dn: "CN=ghost," + testUsersContainer}}
		_, err := client.GroupMembers(ghost)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestIsGroupMember(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	userDN := seedUser(mock, "Jane Doe", "jdoe", nil)
	seedUser(mock, "John Roe", "jroe", nil)
	seedGroup(mock, "staff", userDN)
	client := newTestClient(t, mock)
	group := findTestGroup(t, client, "staff")

	isMember, err := client.IsGroupMember(group, findTestUser(t, client, "jdoe"))
	require.NoError(t, err)
	assert.True(t, isMember)

	isMember, err = client.IsGroupMember(group, findTestUser(t, client, "jroe"))
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestAddGroupMember(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	userDN := seedUser(mock, "Jane Doe", "jdoe", nil)
	groupDN := seedGroup(mock, "staff")
	client := newTestClient(t, mock)
	group := findTestGroup(t, client, "staff")
	user := findTestUser(t, client, "jdoe")

	require.NoError(t, client.AddGroupMember(group, user))
	assert.Equal(t, userDN, mock.Attribute(groupDN, "member"))
	assert.Contains(t, group.Members, userDN)

	t.Run("second add conflicts", func(t *testing.T) {
		require.ErrorIs(t, client.AddGroupMember(group, user), ErrConflict)
	})
}

func TestRemoveGroupMember(t *testing.T) {
	mock := testutil.NewMockDirectoryConn()
	userDN := seedUser(mock, "Jane Doe", "jdoe", nil)
	groupDN := seedGroup(mock, "staff", userDN)
	client := newTestClient(t, mock)
	group := findTestGroup(t, client, "staff")
	user := findTestUser(t, client, "jdoe")

	require.NoError(t, client.RemoveGroupMember(group, user))
	assert.Empty(t, mock.Attribute(groupDN, "member"))
	assert.NotContains(t, group.Members, userDN)

	t.Run("second remove conflicts", func(t *testing.T) {
		require.ErrorIs(t, client.RemoveGroupMember(group, user), ErrConflict)
	})
}
