package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Search returns all principals matching every condition of the template.
func (c *Client) Search(t *Template) ([]Principal, error) {
	return c.SearchContext(context.Background(), t)
}

// SearchContext returns all principals matching every condition of the
// template, with context support. Matching follows the directory's own
// per-attribute rules; values set on the template may contain * wildcards.
func (c *Client) SearchContext(ctx context.Context, t *Template) ([]Principal, error) {
	if t == nil {
		return nil, validationError("template", "cannot be nil")
	}

	start := time.Now()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	r, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       c.config.BaseDN,
		Scope:        ldap.ScopeWholeSubtree,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       t.filter(),
		Attributes:   attributesForKind(t.kind),
	})
	if err != nil {
		return nil, operationError("Search", c.config.Server, c.config.BaseDN, err)
	}

	principals := make([]Principal, 0, len(r.Entries))
	for _, entry := range r.Entries {
		principals = append(principals, principalFromEntry(entry, t.kind))
	}

	c.logger.Debug("principal_search_completed",
		slog.String("kind", t.kind.String()),
		slog.Int("results", len(principals)),
		slog.Duration("duration", time.Since(start)))

	return principals, nil
}

// Exists reports whether at least one principal matches the template.
func (c *Client) Exists(t *Template) (bool, error) {
	return c.ExistsContext(context.Background(), t)
}

// ExistsContext reports whether at least one principal matches the
// template, with context support.
func (c *Client) ExistsContext(ctx context.Context, t *Template) (bool, error) {
	principals, err := c.SearchContext(ctx, t)
	if err != nil {
		return false, err
	}
	return len(principals) > 0, nil
}

// PrincipalExists reports whether the principal is present in the
// directory. The check is re-issued against the live directory on every
// call; results are never cached.
func (c *Client) PrincipalExists(p Principal) (bool, error) {
	return c.PrincipalExistsContext(context.Background(), p)
}

// PrincipalExistsContext reports whether the principal is present in the
// directory, with context support.
func (c *Client) PrincipalExistsContext(ctx context.Context, p Principal) (bool, error) {
	if p == nil {
		return false, validationError("principal", "cannot be nil")
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = conn.Close() }()

	r, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       p.DN(),
		Scope:        ldap.ScopeBaseObject,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       fmt.Sprintf("(objectClass=%s)", p.Kind().objectClass()),
		Attributes:   []string{"cn"},
	})
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return false, nil
		}
		return false, operationError("PrincipalExists", c.config.Server, p.DN(), err)
	}

	return len(r.Entries) > 0, nil
}

// requireExists fails with ErrNotFound when the principal is no longer in
// the directory. Mutating operations call this immediately before acting.
func (c *Client) requireExists(ctx context.Context, p Principal) error {
	exists, err := c.PrincipalExistsContext(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return notFoundError(p.Kind(), p.CN())
	}
	return nil
}

// FindUserBySAMAccountName retrieves a user by their login name.
func (c *Client) FindUserBySAMAccountName(sAMAccountName string) (*User, error) {
	return c.FindUserBySAMAccountNameContext(context.Background(), sAMAccountName)
}

// FindUserBySAMAccountNameContext retrieves a user by their login name with
// context support. It fails with ErrNotFound when no user matches and with
// ErrDNDuplicated when the login name is ambiguous.
func (c *Client) FindUserBySAMAccountNameContext(ctx context.Context, sAMAccountName string) (*User, error) {
	if sAMAccountName == "" {
		return nil, validationError("sAMAccountName", "cannot be empty")
	}

	t, err := NewTemplate(KindUser, "samaccountname", sAMAccountName)
	if err != nil {
		return nil, err
	}

	principals, err := c.SearchContext(ctx, t)
	if err != nil {
		return nil, err
	}

	if len(principals) == 0 {
		return nil, fmt.Errorf("%w: no user found with sAMAccountName %q", ErrNotFound, sAMAccountName)
	}
	if len(principals) > 1 {
		return nil, ErrDNDuplicated
	}

	return principals[0].(*User), nil
}

// FindGroupByName retrieves a group by its common name.
func (c *Client) FindGroupByName(name string) (*Group, error) {
	return c.FindGroupByNameContext(context.Background(), name)
}

// FindGroupByNameContext retrieves a group by its common name with context
// support.
func (c *Client) FindGroupByNameContext(ctx context.Context, name string) (*Group, error) {
	if name == "" {
		return nil, validationError("group name", "cannot be empty")
	}

	t, err := NewTemplate(KindGroup, "name", name)
	if err != nil {
		return nil, err
	}

	principals, err := c.SearchContext(ctx, t)
	if err != nil {
		return nil, err
	}

	if len(principals) == 0 {
		return nil, notFoundError(KindGroup, name)
	}
	if len(principals) > 1 {
		return nil, ErrDNDuplicated
	}

	return principals[0].(*Group), nil
}

// Refresh re-reads a principal's entry from the directory by DN, returning
// its current state.
func (c *Client) Refresh(p Principal) (Principal, error) {
	return c.RefreshContext(context.Background(), p)
}

// RefreshContext re-reads a principal's entry from the directory by DN,
// with context support.
func (c *Client) RefreshContext(ctx context.Context, p Principal) (Principal, error) {
	if p == nil {
		return nil, validationError("principal", "cannot be nil")
	}

	entry, err := c.fetchEntry(ctx, p, attributesForKind(p.Kind()))
	if err != nil {
		return nil, err
	}

	return principalFromEntry(entry, p.Kind()), nil
}

// fetchEntry reads a single entry by base-scope DN search. It fails with
// ErrNotFound when the entry is gone.
func (c *Client) fetchEntry(ctx context.Context, p Principal, attributes []string) (*ldap.Entry, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	r, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       p.DN(),
		Scope:        ldap.ScopeBaseObject,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       fmt.Sprintf("(objectClass=%s)", p.Kind().objectClass()),
		Attributes:   attributes,
	})
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, notFoundError(p.Kind(), p.CN())
		}
		return nil, operationError("Fetch", c.config.Server, p.DN(), err)
	}

	if len(r.Entries) == 0 {
		return nil, notFoundError(p.Kind(), p.CN())
	}
	if len(r.Entries) > 1 {
		return nil, ErrDNDuplicated
	}

	return r.Entries[0], nil
}
