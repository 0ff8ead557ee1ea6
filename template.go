package directory

import (
	"fmt"
	"sort"
	"strings"
)

// Property tables map case-insensitive property names onto directory
// attribute names, one table per principal kind. They replace the
// reflection-based property lookup of classic principal APIs with an
// explicit, compile-time checked mapping. Unknown property names are
// rejected by NewTemplate and Template.Set, and silently ignored by the
// provisioning property maps.
var userProperties = map[string]string{
	"name":              "cn",
	"samaccountname":    "sAMAccountName",
	"givenname":         "givenName",
	"surname":           "sn",
	"employeeid":        "employeeID",
	"mail":              "mail",
	"emailaddress":      "mail",
	"description":       "description",
	"displayname":       "displayName",
	"userprincipalname": "userPrincipalName",
	"department":        "department",
	"title":             "title",
	"company":           "company",
	"telephonenumber":   "telephoneNumber",
}

var groupProperties = map[string]string{
	"name":           "cn",
	"samaccountname": "sAMAccountName",
	"description":    "description",
	"mail":           "mail",
	"info":           "info",
}

var computerProperties = map[string]string{
	"name":           "cn",
	"samaccountname": "sAMAccountName",
	"description":    "description",
	"dnshostname":    "dNSHostName",
	"location":       "location",
}

func propertyTable(kind ObjectKind) map[string]string {
	switch kind {
	case KindGroup:
		return groupProperties
	case KindComputer:
		return computerProperties
	default:
		return userProperties
	}
}

// Template describes an unsaved principal used as a search prototype. Every
// attribute set on the template becomes a mandatory match condition; the
// directory applies its own matching rules per attribute, and values may
// contain * wildcards.
type Template struct {
	kind  ObjectKind
	attrs map[string]string
}

// NewTemplate builds a template of the requested kind seeded with one
// property. The property name is matched case-insensitively against the
// kind's property table. An empty property name fails with
// ErrInvalidArgument, an unknown one with ErrNotFound. An empty value seeds
// no match condition, yielding a template that matches every principal of
// the kind.
func NewTemplate(kind ObjectKind, property, value string) (*Template, error) {
	t := &Template{kind: kind, attrs: make(map[string]string)}
	if err := t.Set(property, value); err != nil {
		return nil, err
	}
	return t, nil
}

// Kind returns the principal kind the template searches for.
func (t *Template) Kind() ObjectKind { return t.kind }

// Set adds or replaces a match condition, resolving the property name
// case-insensitively. An empty value clears the condition.
func (t *Template) Set(property, value string) error {
	if property == "" {
		return validationError("property name", "cannot be empty")
	}

	attr, ok := propertyTable(t.kind)[strings.ToLower(property)]
	if !ok {
		return fmt.Errorf("%w: no property named %q for kind %s", ErrNotFound, property, t.kind)
	}

	if value == "" {
		delete(t.attrs, attr)
		return nil
	}

	t.attrs[attr] = value
	return nil
}

// filter renders the template as an LDAP search filter. Conditions are
// emitted in attribute-name order so the output is deterministic.
func (t *Template) filter() string {
	var sb strings.Builder
	sb.WriteString("(&(objectClass=")
	sb.WriteString(t.kind.objectClass())
	sb.WriteString(")")

	attrs := make([]string, 0, len(t.attrs))
	for attr := range t.attrs {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		sb.WriteString("(")
		sb.WriteString(attr)
		sb.WriteString("=")
		sb.WriteString(escapeFilterValue(t.attrs[attr]))
		sb.WriteString(")")
	}

	sb.WriteString(")")
	return sb.String()
}
