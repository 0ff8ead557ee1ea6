package directory

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
)

func TestParseLockedOut(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "locked", value: "133500000000000000", want: true},
		{name: "never locked", value: "0", want: false},
		{name: "unset", value: "", want: false},
		{name: "garbage", value: "soon", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLockedOut(tt.value))
		})
	}
}

func TestEqual(t *testing.T) {
	a := &User{Object: Object{cn: "Jane Doe", dn: "CN=Jane Doe,OU=Sales,DC=example,DC=com"}}
	b := &User{Object: Object{cn: "Jane Doe", dn: "CN=Jane Doe,OU=HR,DC=example,DC=com"}}

	assert.True(t, Equal(a, b, true))
	assert.False(t, Equal(a, b, false))
	assert.True(t, Equal(a, a, false))
}

func TestPrincipalFromEntry(t *testing.T) {
	entry := &ldap.Entry{
		DN: "CN=Jane Doe,CN=Users,DC=example,DC=com",
		Attributes: []*ldap.EntryAttribute{
			{Name: "cn", Values: []string{"Jane Doe"}},
			{Name: "sAMAccountName", Values: []string{"jdoe"}},
			{Name: "givenName", Values: []string{"Jane"}},
			{Name: "sn", Values: []string{"Doe"}},
			{Name: "userAccountControl", Values: []string{"512"}},
			{Name: "memberOf", Values: []string{"CN=staff,CN=Users,DC=example,DC=com"}},
		},
	}

	p := principalFromEntry(entry, KindUser)
	user, ok := p.(*User)
	if assert.True(t, ok) {
		assert.Equal(t, "Jane Doe", user.CN())
		assert.Equal(t, "jdoe", user.SAMAccountName)
		assert.True(t, user.Enabled)
		assert.False(t, user.LockedOut)
		assert.Len(t, user.Groups, 1)
	}

	t.Run("missing control reads as disabled", func(t *testing.T) {
		bare := &ldap.Entry{DN: "CN=x", Attributes: []*ldap.EntryAttribute{{Name: "cn", Values: []string{"x"}}}}
		user := userFromEntry(bare)
		assert.False(t, user.Enabled)
	})
}
