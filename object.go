package directory

import (
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// ObjectKind identifies the closed set of principal variants managed by this
// package. Dispatch on the kind is always explicit; there is no runtime
// reflection over principal attributes.
type ObjectKind int

const (
	KindUser ObjectKind = iota
	KindGroup
	KindComputer
)

func (k ObjectKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindGroup:
		return "group"
	case KindComputer:
		return "computer"
	default:
		return "unknown"
	}
}

// objectClass returns the structural class used in search filters for the
// kind. Computer entries also carry the user class in Active Directory, so
// membership decoding must test computer before user.
func (k ObjectKind) objectClass() string {
	switch k {
	case KindGroup:
		return "group"
	case KindComputer:
		return "computer"
	default:
		return "user"
	}
}

// Object is the base directory object with common name and distinguished
// name, embedded by every principal variant.
type Object struct {
	cn string
	dn string
}

// CN returns the common name of the object.
func (o Object) CN() string { return o.cn }

// DN returns the distinguished name of the object. The DN uniquely
// identifies an object in the directory tree and encodes its OU ancestry.
func (o Object) DN() string { return o.dn }

// Principal is a directory object of one of the three managed kinds.
// Implemented by *User, *Group and *Computer only.
type Principal interface {
	Kind() ObjectKind
	CN() string
	DN() string
}

// User represents a user principal.
type User struct {
	Object
	// SAMAccountName is the unique login identifier of the account.
	SAMAccountName string
	// GivenName is the user's first name.
	GivenName string
	// Surname is the user's last name.
	Surname string
	// EmployeeID holds the national-register number used to classify the
	// account as nominated; empty for generic accounts.
	EmployeeID string
	// Mail contains the user's email address, if set.
	Mail string
	// Description contains the user's description or notes.
	Description string
	// Enabled indicates whether the account is enabled. An entry whose
	// userAccountControl is absent or unparseable reads as disabled.
	Enabled bool
	// LockedOut indicates whether the account is currently locked out.
	LockedOut bool
	// Groups contains the DNs of the groups the user belongs to.
	Groups []string
}

func (u *User) Kind() ObjectKind { return KindUser }

// Group represents a group principal.
type Group struct {
	Object
	SAMAccountName string
	Description    string
	// Members contains the DNs of the group's members, in directory order.
	Members []string
}

func (g *Group) Kind() ObjectKind { return KindGroup }

// Computer represents a computer principal. Activation semantics are the
// same as for users; computers carry no employee identifier.
type Computer struct {
	Object
	SAMAccountName string
	Description    string
	DNSHostName    string
	Enabled        bool
}

func (c *Computer) Kind() ObjectKind { return KindComputer }

// Attributes requested per kind when decoding search results.
var (
	userAttributes = []string{
		"cn", "sAMAccountName", "givenName", "sn", "employeeID",
		"mail", "description", "userAccountControl", "lockoutTime", "memberOf",
	}
	groupAttributes    = []string{"cn", "sAMAccountName", "description", "member"}
	computerAttributes = []string{"cn", "sAMAccountName", "description", "dNSHostName", "userAccountControl"}
)

func attributesForKind(kind ObjectKind) []string {
	switch kind {
	case KindGroup:
		return groupAttributes
	case KindComputer:
		return computerAttributes
	default:
		return userAttributes
	}
}

func userFromEntry(entry *ldap.Entry) *User {
	enabled, err := parseObjectEnabled(entry.GetAttributeValue("userAccountControl"))
	if err != nil {
		enabled = false
	}

	return &User{
		Object:         objectFromEntry(entry),
		SAMAccountName: entry.GetAttributeValue("sAMAccountName"),
		GivenName:      entry.GetAttributeValue("givenName"),
		Surname:        entry.GetAttributeValue("sn"),
		EmployeeID:     entry.GetAttributeValue("employeeID"),
		Mail:           entry.GetAttributeValue("mail"),
		Description:    entry.GetAttributeValue("description"),
		Enabled:        enabled,
		LockedOut:      parseLockedOut(entry.GetAttributeValue("lockoutTime")),
		Groups:         entry.GetAttributeValues("memberOf"),
	}
}

func groupFromEntry(entry *ldap.Entry) *Group {
	return &Group{
		Object:         objectFromEntry(entry),
		SAMAccountName: entry.GetAttributeValue("sAMAccountName"),
		Description:    entry.GetAttributeValue("description"),
		Members:        entry.GetAttributeValues("member"),
	}
}

func computerFromEntry(entry *ldap.Entry) *Computer {
	enabled, err := parseObjectEnabled(entry.GetAttributeValue("userAccountControl"))
	if err != nil {
		enabled = false
	}

	return &Computer{
		Object:         objectFromEntry(entry),
		SAMAccountName: entry.GetAttributeValue("sAMAccountName"),
		Description:    entry.GetAttributeValue("description"),
		DNSHostName:    entry.GetAttributeValue("dNSHostName"),
		Enabled:        enabled,
	}
}

func objectFromEntry(entry *ldap.Entry) Object {
	return Object{
		cn: entry.GetAttributeValue("cn"),
		dn: entry.DN,
	}
}

func principalFromEntry(entry *ldap.Entry, kind ObjectKind) Principal {
	switch kind {
	case KindGroup:
		return groupFromEntry(entry)
	case KindComputer:
		return computerFromEntry(entry)
	default:
		return userFromEntry(entry)
	}
}

// parseLockedOut interprets the AD lockoutTime attribute: any positive
// filetime value means the account is locked out.
func parseLockedOut(lockoutTime string) bool {
	if lockoutTime == "" {
		return false
	}

	v, err := strconv.ParseInt(lockoutTime, 10, 64)
	if err != nil {
		return false
	}

	return v > 0
}

// Equal compares two principals by common name, or by distinguished name
// when byName is false. It never compares full attribute sets.
func Equal(p1, p2 Principal, byName bool) bool {
	if byName {
		return p1.CN() == p2.CN()
	}
	return p1.DN() == p2.DN()
}
