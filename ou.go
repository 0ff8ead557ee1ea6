package directory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// InOrganizationalUnit reports whether the principal lies within the given
// organizational unit.
func (c *Client) InOrganizationalUnit(p Principal, ouDN string, exactLevel bool) (bool, error) {
	return c.InOrganizationalUnitContext(context.Background(), p, ouDN, exactLevel)
}

// InOrganizationalUnitContext reports whether the principal lies within the
// given organizational unit, with context support. When exactLevel is set
// the principal must be a direct member of the OU: its DN must end with
// ouDN and carry the same number of OU= segments. Without exactLevel any
// suffix match counts, i.e. the whole subtree below the OU.
//
// The exact-level test compares OU= segment counts between the two DNs, so
// a principal under a differently-named sibling OU of equal depth whose DN
// happens to end with ouDN would also match. This mirrors the historical
// behavior and is kept as-is.
func (c *Client) InOrganizationalUnitContext(ctx context.Context, p Principal, ouDN string, exactLevel bool) (bool, error) {
	if err := c.requireExists(ctx, p); err != nil {
		return false, err
	}

	return dnWithinOU(p.DN(), ouDN, exactLevel), nil
}

// FindInOrganizationalUnit retrieves all principals of the kind under the
// given organizational unit.
func (c *Client) FindInOrganizationalUnit(kind ObjectKind, ouDN string, entireSubtree bool) ([]Principal, error) {
	return c.FindInOrganizationalUnitContext(context.Background(), kind, ouDN, entireSubtree)
}

// FindInOrganizationalUnitContext retrieves all principals of the kind
// under the given organizational unit, with context support. With
// entireSubtree the whole tree below the OU is included; otherwise only
// direct OU members (per the exact-level test) are returned.
func (c *Client) FindInOrganizationalUnitContext(ctx context.Context, kind ObjectKind, ouDN string, entireSubtree bool) ([]Principal, error) {
	if ouDN == "" {
		return nil, validationError("organizational unit DN", "cannot be empty")
	}

	t, err := NewTemplate(kind, "name", "")
	if err != nil {
		return nil, err
	}

	principals, err := c.SearchContext(ctx, t)
	if err != nil {
		return nil, err
	}

	matches := make([]Principal, 0, len(principals))
	for _, p := range principals {
		if dnWithinOU(p.DN(), ouDN, !entireSubtree) {
			matches = append(matches, p)
		}
	}

	return matches, nil
}

// Move relocates a principal under a new parent DN, renaming it when
// newName is non-empty and preserving its current relative name otherwise.
func (c *Client) Move(p Principal, newParentDN, newName string) error {
	return c.MoveContext(context.Background(), p, newParentDN, newName)
}

// MoveContext relocates a principal under a new parent DN with context
// support. The principal's DN (and, on a rename, its CN) is updated in
// place so the object stays usable for follow-up operations; every other
// attribute is preserved by the directory.
func (c *Client) MoveContext(ctx context.Context, p Principal, newParentDN, newName string) error {
	if err := c.requireExists(ctx, p); err != nil {
		return err
	}
	if newParentDN == "" {
		return validationError("new parent DN", "cannot be empty")
	}

	oldDN := p.DN()
	newRDN := relativeDN(oldDN)
	if newName != "" {
		newRDN = "CN=" + ldap.EscapeDN(newName)
	}
	newDN := newRDN + "," + newParentDN

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.ModifyDN(ldap.NewModifyDNRequest(oldDN, newRDN, true, newParentDN)); err != nil {
		return operationError("Move", c.config.Server, oldDN, err)
	}

	relocate(p, newDN, newName)

	c.logger.Info("principal_moved",
		slog.String("kind", p.Kind().String()),
		slog.String("from", oldDN),
		slog.String("to", newDN))

	return nil
}

// relocate rewrites the principal's location after a directory-side
// rename. An empty newName keeps the current common name.
func relocate(p Principal, newDN, newName string) {
	switch v := p.(type) {
	case *User:
		v.dn = newDN
		if newName != "" {
			v.cn = newName
		}
	case *Group:
		v.dn = newDN
		if newName != "" {
			v.cn = newName
		}
	case *Computer:
		v.dn = newDN
		if newName != "" {
			v.cn = newName
		}
	}
}

// dnWithinOU implements the containment test on distinguished names:
// suffix match for subtree scope, suffix match plus equal OU= segment
// count for exact-level scope.
func dnWithinOU(dn, ouDN string, exactLevel bool) bool {
	if !strings.HasSuffix(dn, ouDN) {
		return false
	}
	if !exactLevel {
		return true
	}
	return countOUSegments(dn) == countOUSegments(ouDN)
}

func countOUSegments(dn string) int {
	count := 0
	for _, segment := range strings.Split(dn, ",") {
		if strings.HasPrefix(segment, "OU=") {
			count++
		}
	}
	return count
}
