package directory

import (
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// parseObjectEnabled determines whether an object is enabled from its
// userAccountControl attribute by testing the ACCOUNTDISABLE flag (0x2).
//
// Reference: https://learn.microsoft.com/en-us/windows/win32/adschema/a-useraccountcontrol
func parseObjectEnabled(userAccountControl string) (bool, error) {
	raw, err := strconv.ParseInt(userAccountControl, 10, 32)
	if err != nil {
		return false, err
	}

	return raw&accountDisabledFlag == 0, nil
}

// escapeFilterValue escapes a search value for embedding in a filter while
// preserving * wildcards, so template searches keep the directory's
// query-by-example semantics.
func escapeFilterValue(value string) string {
	parts := strings.Split(value, "*")
	for i, part := range parts {
		parts[i] = ldap.EscapeFilter(part)
	}
	return strings.Join(parts, "*")
}

// relativeDN returns the leading RDN component of a distinguished name,
// e.g. "CN=J Doe" for "CN=J Doe,OU=Staff,DC=example,DC=com".
func relativeDN(dn string) string {
	if i := strings.Index(dn, ","); i >= 0 {
		return dn[:i]
	}
	return dn
}
