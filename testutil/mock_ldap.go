// Package testutil provides an in-memory directory connection for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

// MockDirectoryConn is a scriptable in-memory stand-in for a directory
// connection. It stores entries keyed by DN, answers the filter shapes
// produced by template and DN searches, and applies add, modify and
// modify-DN requests to its entry set so multi-step flows can be tested
// end to end.
type MockDirectoryConn struct {
	mu sync.Mutex

	// Entries holds the directory content, keyed by DN.
	Entries map[string]*MockEntry
	// Passwords maps a DN to its bindable password. Binds for DNs without
	// an entry here succeed, so the service-account bind needs no setup.
	Passwords map[string]string

	// Error injection. When set, the corresponding operation fails
	// immediately with the given error.
	BindErr     error
	SearchErr   error
	AddErr      error
	ModifyErr   error
	ModifyDNErr error

	// Recorded calls, in order.
	BindCalls     []BindCall
	SearchCalls   []*ldap.SearchRequest
	AddCalls      []*ldap.AddRequest
	ModifyCalls   []*ldap.ModifyRequest
	ModifyDNCalls []*ldap.ModifyDNRequest
	CloseCount    int
}

// MockEntry is a single directory entry.
type MockEntry struct {
	DN         string
	Attributes map[string][]string
}

// BindCall records one bind operation.
type BindCall struct {
	Username string
	Password string
}

// NewMockDirectoryConn creates an empty mock directory connection.
func NewMockDirectoryConn() *MockDirectoryConn {
	return &MockDirectoryConn{
		Entries:   make(map[string]*MockEntry),
		Passwords: make(map[string]string),
	}
}

// AddEntry stores an entry under the given DN, replacing any previous
// one. The attribute map is copied.
func (m *MockDirectoryConn) AddEntry(dn string, attributes map[string][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attrs := make(map[string][]string, len(attributes))
	for name, values := range attributes {
		attrs[name] = append([]string(nil), values...)
	}
	m.Entries[dn] = &MockEntry{DN: dn, Attributes: attrs}
}

// SetPassword registers the bindable password for a DN.
func (m *MockDirectoryConn) SetPassword(dn, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Passwords[dn] = password
}

// Entry returns the stored entry for a DN, or nil.
func (m *MockDirectoryConn) Entry(dn string) *MockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Entries[dn]
}

// Attribute returns the first value of an attribute on the entry with
// the given DN, or the empty string.
func (m *MockDirectoryConn) Attribute(dn, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.Entries[dn]
	if !ok {
		return ""
	}
	values := entry.Attributes[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Bind checks the password registered for the DN. Unregistered DNs bind
// successfully.
func (m *MockDirectoryConn) Bind(username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BindCalls = append(m.BindCalls, BindCall{Username: username, Password: password})

	if m.BindErr != nil {
		return m.BindErr
	}

	expected, ok := m.Passwords[username]
	if ok && expected != password {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, fmt.Errorf("invalid password for %s", username))
	}

	return nil
}

// Search answers base-scope DN lookups and subtree template searches.
func (m *MockDirectoryConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SearchCalls = append(m.SearchCalls, req)

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	result := &ldap.SearchResult{}

	if req.Scope == ldap.ScopeBaseObject {
		entry, ok := m.Entries[req.BaseDN]
		if !ok {
			return nil, ldap.NewError(ldap.LDAPResultNoSuchObject, fmt.Errorf("no entry with DN %s", req.BaseDN))
		}
		if matchesFilter(entry, req.Filter) {
			result.Entries = append(result.Entries, toLDAPEntry(entry, req.Attributes))
		}
		return result, nil
	}

	for _, entry := range m.Entries {
		if !strings.HasSuffix(strings.ToLower(entry.DN), strings.ToLower(req.BaseDN)) {
			continue
		}
		if matchesFilter(entry, req.Filter) {
			result.Entries = append(result.Entries, toLDAPEntry(entry, req.Attributes))
		}
	}

	return result, nil
}

// Add creates a new entry from the request.
func (m *MockDirectoryConn) Add(req *ldap.AddRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls = append(m.AddCalls, req)

	if m.AddErr != nil {
		return m.AddErr
	}
	if _, exists := m.Entries[req.DN]; exists {
		return ldap.NewError(ldap.LDAPResultEntryAlreadyExists, fmt.Errorf("entry already exists: %s", req.DN))
	}

	attrs := make(map[string][]string, len(req.Attributes))
	for _, attr := range req.Attributes {
		attrs[attr.Type] = append([]string(nil), attr.Vals...)
	}
	m.Entries[req.DN] = &MockEntry{DN: req.DN, Attributes: attrs}

	return nil
}

// Modify applies add, delete and replace changes to the entry.
func (m *MockDirectoryConn) Modify(req *ldap.ModifyRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ModifyCalls = append(m.ModifyCalls, req)

	if m.ModifyErr != nil {
		return m.ModifyErr
	}

	entry, ok := m.Entries[req.DN]
	if !ok {
		return ldap.NewError(ldap.LDAPResultNoSuchObject, fmt.Errorf("no entry with DN %s", req.DN))
	}

	for _, change := range req.Changes {
		name := change.Modification.Type
		switch change.Operation {
		case ldap.AddAttribute:
			entry.Attributes[name] = append(entry.Attributes[name], change.Modification.Vals...)
		case ldap.ReplaceAttribute:
			entry.Attributes[name] = append([]string(nil), change.Modification.Vals...)
		case ldap.DeleteAttribute:
			if len(change.Modification.Vals) == 0 {
				delete(entry.Attributes, name)
				continue
			}
			kept := entry.Attributes[name][:0]
			for _, existing := range entry.Attributes[name] {
				remove := false
				for _, val := range change.Modification.Vals {
					if existing == val {
						remove = true
						break
					}
				}
				if !remove {
					kept = append(kept, existing)
				}
			}
			entry.Attributes[name] = kept
		}
	}

	return nil
}

// ModifyDN relocates an entry under a new superior DN.
func (m *MockDirectoryConn) ModifyDN(req *ldap.ModifyDNRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ModifyDNCalls = append(m.ModifyDNCalls, req)

	if m.ModifyDNErr != nil {
		return m.ModifyDNErr
	}

	entry, ok := m.Entries[req.DN]
	if !ok {
		return ldap.NewError(ldap.LDAPResultNoSuchObject, fmt.Errorf("no entry with DN %s", req.DN))
	}

	newDN := req.NewRDN
	if req.NewSuperior != "" {
		newDN += "," + req.NewSuperior
	} else if i := strings.Index(req.DN, ","); i >= 0 {
		newDN += req.DN[i:]
	}

	delete(m.Entries, req.DN)
	entry.DN = newDN
	m.Entries[newDN] = entry

	return nil
}

// Close records the call and always succeeds.
func (m *MockDirectoryConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCount++
	return nil
}

// matchesFilter evaluates the filter shapes this package's clients emit:
// a bare equality clause, "(objectClass=*)", or an AND of equality
// clauses. Values may contain * wildcards.
func matchesFilter(entry *MockEntry, filter string) bool {
	for _, clause := range splitClauses(filter) {
		eq := strings.Index(clause, "=")
		if eq < 0 {
			return false
		}
		name, pattern := clause[:eq], clause[eq+1:]
		if name == "objectClass" && pattern == "*" {
			continue
		}
		if !matchesAttribute(entry.Attributes[name], pattern) {
			return false
		}
	}
	return true
}

// splitClauses breaks "(&(a=1)(b=2))" or "(a=1)" into its "a=1" parts.
func splitClauses(filter string) []string {
	filter = strings.TrimPrefix(filter, "(&")
	filter = strings.TrimSuffix(filter, ")")

	var clauses []string
	for _, part := range strings.Split(filter, ")(") {
		part = strings.Trim(part, "()")
		if part != "" {
			clauses = append(clauses, part)
		}
	}
	return clauses
}

func matchesAttribute(values []string, pattern string) bool {
	for _, value := range values {
		if matchesPattern(value, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern performs case-insensitive matching with * wildcards,
// like the directory's own caseIgnoreMatch rules.
func matchesPattern(value, pattern string) bool {
	value = strings.ToLower(value)
	pattern = strings.ToLower(pattern)

	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return value == pattern
	}

	if parts[0] != "" {
		if !strings.HasPrefix(value, parts[0]) {
			return false
		}
		value = value[len(parts[0]):]
	}

	last := parts[len(parts)-1]
	if last != "" {
		if !strings.HasSuffix(value, last) {
			return false
		}
		value = value[:len(value)-len(last)]
	}

	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		i := strings.Index(value, part)
		if i < 0 {
			return false
		}
		value = value[i+len(part):]
	}

	return true
}

func toLDAPEntry(entry *MockEntry, requested []string) *ldap.Entry {
	out := &ldap.Entry{DN: entry.DN}

	include := func(name string) bool {
		if len(requested) == 0 {
			return true
		}
		for _, r := range requested {
			if strings.EqualFold(r, name) {
				return true
			}
		}
		return false
	}

	for name, values := range entry.Attributes {
		if include(name) && len(values) > 0 {
			out.Attributes = append(out.Attributes, &ldap.EntryAttribute{
				Name:   name,
				Values: append([]string(nil), values...),
			})
		}
	}

	return out
}
