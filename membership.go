package directory

import (
	"context"
	"log/slog"
	"slices"

	"github.com/go-ldap/ldap/v3"
)

// GroupMembers returns the members of a group, resolved to principals in
// directory order.
func (c *Client) GroupMembers(group *Group) ([]Principal, error) {
	return c.GroupMembersContext(context.Background(), group)
}

// GroupMembersContext returns the members of a group with context support.
// The group's existence is re-validated first.
func (c *Client) GroupMembersContext(ctx context.Context, group *Group) ([]Principal, error) {
	if group == nil {
		return nil, validationError("group", "cannot be nil")
	}
	if err := c.requireExists(ctx, group); err != nil {
		return nil, err
	}

	members := make([]Principal, 0, len(group.Members))
	for _, memberDN := range group.Members {
		member, err := c.resolveMember(ctx, memberDN)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, nil
}

// GroupMembersOfKind returns the members of a group restricted to one
// principal kind.
func (c *Client) GroupMembersOfKind(group *Group, kind ObjectKind) ([]Principal, error) {
	return c.GroupMembersOfKindContext(context.Background(), group, kind)
}

// GroupMembersOfKindContext returns the members of a group restricted to
// one principal kind, with context support.
func (c *Client) GroupMembersOfKindContext(ctx context.Context, group *Group, kind ObjectKind) ([]Principal, error) {
	members, err := c.GroupMembersContext(ctx, group)
	if err != nil {
		return nil, err
	}

	filtered := make([]Principal, 0, len(members))
	for _, m := range members {
		if m.Kind() == kind {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

// IsGroupMember reports whether the principal is a member of the group.
func (c *Client) IsGroupMember(group *Group, p Principal) (bool, error) {
	return c.IsGroupMemberContext(context.Background(), group, p)
}

// IsGroupMemberContext reports whether the principal is a member of the
// group, with context support. Both operands must exist. Members are
// matched by common name against the member set restricted to the
// principal's kind.
func (c *Client) IsGroupMemberContext(ctx context.Context, group *Group, p Principal) (bool, error) {
	if group == nil {
		return false, validationError("group", "cannot be nil")
	}
	if p == nil {
		return false, validationError("principal", "cannot be nil")
	}
	if err := c.requireExists(ctx, group); err != nil {
		return false, err
	}
	if err := c.requireExists(ctx, p); err != nil {
		return false, err
	}

	members, err := c.GroupMembersOfKindContext(ctx, group, p.Kind())
	if err != nil {
		return false, err
	}

	for _, m := range members {
		if m.CN() == p.CN() {
			return true, nil
		}
	}

	return false, nil
}

// AddGroupMember adds a principal to a group and persists the change.
func (c *Client) AddGroupMember(group *Group, p Principal) error {
	return c.AddGroupMemberContext(context.Background(), group, p)
}

// AddGroupMemberContext adds a principal to a group with context support.
// Adding an already-present member fails with ErrConflict rather than
// being silently ignored.
func (c *Client) AddGroupMemberContext(ctx context.Context, group *Group, p Principal) error {
	isMember, err := c.IsGroupMemberContext(ctx, group, p)
	if err != nil {
		return err
	}
	if isMember {
		return conflictError("%s %q is already a member of group %q", p.Kind(), p.CN(), group.CN())
	}

	if err := c.modifyMembership(ctx, group, p, true); err != nil {
		return err
	}

	group.Members = append(group.Members, p.DN())

	c.logger.Info("group_member_added",
		slog.String("group", group.DN()),
		slog.String("member", p.DN()))

	return nil
}

// RemoveGroupMember removes a principal from a group and persists the
// change.
func (c *Client) RemoveGroupMember(group *Group, p Principal) error {
	return c.RemoveGroupMemberContext(context.Background(), group, p)
}

// RemoveGroupMemberContext removes a principal from a group with context
// support. Removing an absent member fails with ErrConflict rather than
// being a no-op.
func (c *Client) RemoveGroupMemberContext(ctx context.Context, group *Group, p Principal) error {
	isMember, err := c.IsGroupMemberContext(ctx, group, p)
	if err != nil {
		return err
	}
	if !isMember {
		return conflictError("%s %q is not a member of group %q", p.Kind(), p.CN(), group.CN())
	}

	if err := c.modifyMembership(ctx, group, p, false); err != nil {
		return err
	}

	group.Members = slices.DeleteFunc(group.Members, func(dn string) bool {
		return dn == p.DN()
	})

	c.logger.Info("group_member_removed",
		slog.String("group", group.DN()),
		slog.String("member", p.DN()))

	return nil
}

func (c *Client) modifyMembership(ctx context.Context, group *Group, p Principal, add bool) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	req := ldap.NewModifyRequest(group.DN(), nil)
	if add {
		req.Add("member", []string{p.DN()})
	} else {
		req.Delete("member", []string{p.DN()})
	}

	if err := conn.Modify(req); err != nil {
		return operationError("ModifyMembership", c.config.Server, group.DN(), err)
	}

	return nil
}

// resolveMember reads a member entry by DN and decodes it into its
// concrete principal kind. Computer entries also carry the user object
// class, so the computer class is tested first.
func (c *Client) resolveMember(ctx context.Context, memberDN string) (Principal, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	r, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       memberDN,
		Scope:        ldap.ScopeBaseObject,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       "(objectClass=*)",
		Attributes: []string{
			"objectClass", "cn", "sAMAccountName", "givenName", "sn",
			"employeeID", "mail", "description", "userAccountControl",
			"lockoutTime", "memberOf", "member", "dNSHostName",
		},
	})
	if err != nil {
		return nil, operationError("ResolveMember", c.config.Server, memberDN, err)
	}
	if len(r.Entries) == 0 {
		return nil, notFoundError(KindUser, memberDN)
	}

	entry := r.Entries[0]
	classes := entry.GetAttributeValues("objectClass")
	switch {
	case slices.Contains(classes, "computer"):
		return computerFromEntry(entry), nil
	case slices.Contains(classes, "group"):
		return groupFromEntry(entry), nil
	default:
		return userFromEntry(entry), nil
	}
}
