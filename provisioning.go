package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// Property map keys consumed by CreateUser itself rather than mapped onto
// directory attributes.
const (
	propertyPassword             = "password"
	propertyPasswordNeverExpires = "passwordneverexpires"
)

// CreateUser provisions a new user account with the given properties and
// optional group enrollment.
func (c *Client) CreateUser(sAMAccountName string, properties map[string]any, groupNames []string) (*User, error) {
	return c.CreateUserContext(context.Background(), sAMAccountName, properties, groupNames)
}

// CreateUserContext provisions a new user account with context support.
//
// The properties map is keyed case-insensitively. It must carry a
// "password" string and a "passwordNeverExpires" bool; both are checked
// before anything is written to the directory. Remaining keys are mapped
// onto user attributes through the user property table; unknown keys are
// silently ignored. Every name in groupNames must resolve to an existing
// group, also before any write.
//
// The account is created disabled, its password is set after passing the
// complexity policy, expired right away unless it never expires, and the
// account is then enabled and enrolled into the requested groups.
func (c *Client) CreateUserContext(ctx context.Context, sAMAccountName string, properties map[string]any, groupNames []string) (*User, error) {
	if sAMAccountName == "" {
		return nil, validationError("sAMAccountName", "cannot be empty")
	}

	password, ok := stringProperty(properties, propertyPassword)
	if !ok {
		return nil, validationError("properties", "must contain a non-empty 'password' string")
	}
	neverExpires, ok := boolProperty(properties, propertyPasswordNeverExpires)
	if !ok {
		return nil, validationError("properties", "must contain a 'passwordNeverExpires' bool")
	}

	if err := c.requireAbsent(ctx, KindUser, "samaccountname", sAMAccountName); err != nil {
		return nil, err
	}
	groups, err := c.resolveGroups(ctx, groupNames)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New().String()
	logger := c.logger.With(
		slog.String("operation", "create_user"),
		slog.String("correlation_id", correlationID),
		slog.String("sam_account_name", sAMAccountName))

	attrs := mapProperties(KindUser, properties)
	cn := attrs["cn"]
	if cn == "" {
		cn = sAMAccountName
	}
	dn := "CN=" + ldap.EscapeDN(cn) + "," + c.config.UsersContainer

	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
	req.Attribute("cn", []string{cn})
	req.Attribute("sAMAccountName", []string{sAMAccountName})
	// Created disabled; the control value is finalized after the password
	// is in place.
	req.Attribute("userAccountControl", []string{formatUAC(UAC{NormalAccount: true, AccountDisabled: true})})
	addMappedAttributes(req, attrs, "cn", "sAMAccountName", "userAccountControl")

	if err := c.addEntry(ctx, "CreateUser", req); err != nil {
		return nil, err
	}
	logger.Debug("user_entry_added", slog.String("dn", dn))

	user := &User{
		Object:         Object{cn: cn, dn: dn},
		SAMAccountName: sAMAccountName,
		GivenName:      attrs["givenName"],
		Surname:        attrs["sn"],
		EmployeeID:     attrs["employeeID"],
		Mail:           attrs["mail"],
		Description:    attrs["description"],
	}

	ok, err = c.CheckPasswordComplexityContext(ctx, user, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPasswordPolicy
	}

	if err := c.SetPasswordContext(ctx, user, password); err != nil {
		return nil, err
	}
	if !neverExpires {
		if err := c.ExpirePasswordNowContext(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := c.writeAccountControl(ctx, dn, UAC{NormalAccount: true, DontExpirePassword: neverExpires}); err != nil {
		return nil, err
	}
	user.Enabled = true

	for _, group := range groups {
		if err := c.AddGroupMemberContext(ctx, group, user); err != nil {
			return nil, err
		}
	}

	logger.Info("user_created",
		slog.String("dn", dn),
		slog.Int("groups", len(groups)),
		slog.Bool("password_never_expires", neverExpires))

	return user, nil
}

// CreateGroup provisions a new group with the given properties and
// optional enrollment into parent groups.
func (c *Client) CreateGroup(name string, properties map[string]any, groupNames []string) (*Group, error) {
	return c.CreateGroupContext(context.Background(), name, properties, groupNames)
}

// CreateGroupContext provisions a new group with context support. The
// group is created as a global security group. Properties are mapped
// like in CreateUserContext, without any password handling.
func (c *Client) CreateGroupContext(ctx context.Context, name string, properties map[string]any, groupNames []string) (*Group, error) {
	if name == "" {
		return nil, validationError("group name", "cannot be empty")
	}

	if err := c.requireAbsent(ctx, KindGroup, "samaccountname", name); err != nil {
		return nil, err
	}
	groups, err := c.resolveGroups(ctx, groupNames)
	if err != nil {
		return nil, err
	}

	attrs := mapProperties(KindGroup, properties)
	cn := attrs["cn"]
	if cn == "" {
		cn = name
	}
	dn := "CN=" + ldap.EscapeDN(cn) + "," + c.config.GroupsContainer

	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"top", "group"})
	req.Attribute("cn", []string{cn})
	req.Attribute("sAMAccountName", []string{name})
	// Global security group.
	req.Attribute("groupType", []string{"-2147483646"})
	addMappedAttributes(req, attrs, "cn", "sAMAccountName")

	if err := c.addEntry(ctx, "CreateGroup", req); err != nil {
		return nil, err
	}

	group := &Group{
		Object:         Object{cn: cn, dn: dn},
		SAMAccountName: name,
		Description:    attrs["description"],
	}

	for _, parent := range groups {
		if err := c.AddGroupMemberContext(ctx, parent, group); err != nil {
			return nil, err
		}
	}

	c.logger.Info("group_created",
		slog.String("dn", dn),
		slog.Int("groups", len(groups)))

	return group, nil
}

// CreateComputer provisions a new computer account with the given
// properties and optional group enrollment.
func (c *Client) CreateComputer(name string, properties map[string]any, groupNames []string) (*Computer, error) {
	return c.CreateComputerContext(context.Background(), name, properties, groupNames)
}

// CreateComputerContext provisions a new computer account with context
// support. The login identifier is the machine name with the
// conventional trailing dollar sign. Properties are mapped like in
// CreateUserContext, without any password handling.
func (c *Client) CreateComputerContext(ctx context.Context, name string, properties map[string]any, groupNames []string) (*Computer, error) {
	if name == "" {
		return nil, validationError("computer name", "cannot be empty")
	}

	if err := c.requireAbsent(ctx, KindComputer, "name", name); err != nil {
		return nil, err
	}
	groups, err := c.resolveGroups(ctx, groupNames)
	if err != nil {
		return nil, err
	}

	attrs := mapProperties(KindComputer, properties)
	cn := attrs["cn"]
	if cn == "" {
		cn = name
	}
	dn := "CN=" + ldap.EscapeDN(cn) + "," + c.config.ComputersContainer

	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user", "computer"})
	req.Attribute("cn", []string{cn})
	req.Attribute("sAMAccountName", []string{name + "$"})
	req.Attribute("userAccountControl", []string{formatUAC(UAC{WorkstationTrustAccount: true})})
	addMappedAttributes(req, attrs, "cn", "sAMAccountName", "userAccountControl")

	if err := c.addEntry(ctx, "CreateComputer", req); err != nil {
		return nil, err
	}

	computer := &Computer{
		Object:         Object{cn: cn, dn: dn},
		SAMAccountName: name + "$",
		Description:    attrs["description"],
		DNSHostName:    attrs["dNSHostName"],
		Enabled:        true,
	}

	for _, group := range groups {
		if err := c.AddGroupMemberContext(ctx, group, computer); err != nil {
			return nil, err
		}
	}

	c.logger.Info("computer_created",
		slog.String("dn", dn),
		slog.Int("groups", len(groups)))

	return computer, nil
}

// requireAbsent fails with ErrConflict when a principal of the kind
// already matches the given property.
func (c *Client) requireAbsent(ctx context.Context, kind ObjectKind, property, value string) error {
	t, err := NewTemplate(kind, property, value)
	if err != nil {
		return err
	}

	exists, err := c.ExistsContext(ctx, t)
	if err != nil {
		return err
	}
	if exists {
		return conflictError("%s %q already exists in the directory", kind, value)
	}

	return nil
}

// resolveGroups resolves every group name to its group, failing with
// ErrNotFound on the first name that does not exist.
func (c *Client) resolveGroups(ctx context.Context, groupNames []string) ([]*Group, error) {
	groups := make([]*Group, 0, len(groupNames))
	for _, name := range groupNames {
		group, err := c.FindGroupByNameContext(ctx, name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (c *Client) addEntry(ctx context.Context, op string, req *ldap.AddRequest) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Add(req); err != nil {
		return operationError(op, c.config.Server, req.DN, err)
	}

	return nil
}

func (c *Client) writeAccountControl(ctx context.Context, dn string, uac UAC) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	req := ldap.NewModifyRequest(dn, nil)
	req.Replace("userAccountControl", []string{formatUAC(uac)})

	if err := conn.Modify(req); err != nil {
		return operationError("WriteAccountControl", c.config.Server, dn, err)
	}

	return nil
}

func formatUAC(uac UAC) string {
	return strconv.FormatUint(uint64(uac.Uint32()), 10)
}

// stringProperty finds a non-empty string value under a case-insensitive
// key.
func stringProperty(properties map[string]any, key string) (string, bool) {
	for name, value := range properties {
		if strings.ToLower(name) == key {
			s, ok := value.(string)
			return s, ok && s != ""
		}
	}
	return "", false
}

// boolProperty finds a bool value under a case-insensitive key.
func boolProperty(properties map[string]any, key string) (bool, bool) {
	for name, value := range properties {
		if strings.ToLower(name) == key {
			b, ok := value.(bool)
			return b, ok
		}
	}
	return false, false
}

// mapProperties projects a case-insensitive property map onto directory
// attribute names through the kind's property table. Unmatched keys are
// dropped without error; values are stringified.
func mapProperties(kind ObjectKind, properties map[string]any) map[string]string {
	table := propertyTable(kind)
	attrs := make(map[string]string, len(properties))
	for key, value := range properties {
		attr, ok := table[strings.ToLower(key)]
		if !ok || value == nil {
			continue
		}
		attrs[attr] = fmt.Sprint(value)
	}
	return attrs
}

// addMappedAttributes copies mapped attributes onto the add request,
// skipping the ones the caller has already set explicitly.
func addMappedAttributes(req *ldap.AddRequest, attrs map[string]string, explicit ...string) {
	for attr, value := range attrs {
		skip := false
		for _, e := range explicit {
			if attr == e {
				skip = true
				break
			}
		}
		if !skip && value != "" {
			req.Attribute(attr, []string{value})
		}
	}
}
