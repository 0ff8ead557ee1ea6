package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		name     string
		kind     ObjectKind
		property string
		value    string
		wantErr  error
	}{
		{name: "known user property", kind: KindUser, property: "samaccountname", value: "jdoe"},
		{name: "case insensitive property", kind: KindUser, property: "SamAccountName", value: "jdoe"},
		{name: "known group property", kind: KindGroup, property: "name", value: "staff"},
		{name: "known computer property", kind: KindComputer, property: "dnshostname", value: "ws01.example.com"},
		{name: "empty property", kind: KindUser, property: "", value: "x", wantErr: ErrInvalidArgument},
		{name: "unknown property", kind: KindUser, property: "shoeSize", value: "42", wantErr: ErrNotFound},
		{name: "group does not know givenname", kind: KindGroup, property: "givenname", value: "x", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tt.kind, tt.property, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tmpl.Kind())
		})
	}
}

func TestTemplateFilter(t *testing.T) {
	t.Run("single condition", func(t *testing.T) {
		tmpl, err := NewTemplate(KindUser, "samaccountname", "jdoe")
		require.NoError(t, err)
		assert.Equal(t, "(&(objectClass=user)(sAMAccountName=jdoe))", tmpl.filter())
	})

	t.Run("empty value adds no condition", func(t *testing.T) {
		tmpl, err := NewTemplate(KindGroup, "name", "")
		require.NoError(t, err)
		assert.Equal(t, "(&(objectClass=group))", tmpl.filter())
	})

	t.Run("conditions are sorted by attribute", func(t *testing.T) {
		tmpl, err := NewTemplate(KindUser, "surname", "Doe")
		require.NoError(t, err)
		require.NoError(t, tmpl.Set("givenname", "John"))

		assert.Equal(t, "(&(objectClass=user)(givenName=John)(sn=Doe))", tmpl.filter())
	})

	t.Run("wildcards survive escaping", func(t *testing.T) {
		tmpl, err := NewTemplate(KindUser, "mail", "*@example.com")
		require.NoError(t, err)
		assert.Equal(t, "(&(objectClass=user)(mail=*@example.com))", tmpl.filter())
	})

	t.Run("special characters are escaped", func(t *testing.T) {
		tmpl, err := NewTemplate(KindUser, "name", "a(b)c")
		require.NoError(t, err)
		assert.Equal(t, `(&(objectClass=user)(cn=a\28b\29c))`, tmpl.filter())
	})

	t.Run("setting an empty value clears the condition", func(t *testing.T) {
		tmpl, err := NewTemplate(KindUser, "mail", "jdoe@example.com")
		require.NoError(t, err)
		require.NoError(t, tmpl.Set("mail", ""))
		assert.Equal(t, "(&(objectClass=user))", tmpl.filter())
	})
}
