package directory

import (
	"context"
	"strconv"
	"strings"
)

// IsGenericAccount reports whether the user is a generic (shared or
// service) account rather than a nominated personal one.
func (c *Client) IsGenericAccount(user *User) (bool, error) {
	return c.IsGenericAccountContext(context.Background(), user)
}

// IsGenericAccountContext reports whether the user is a generic account,
// with context support. The user must still exist in the directory. A
// user is nominated when its employee identifier is a checksum-valid
// national register number; everything else, including an empty
// identifier, is generic.
func (c *Client) IsGenericAccountContext(ctx context.Context, user *User) (bool, error) {
	if user == nil {
		return false, validationError("user", "cannot be nil")
	}
	if err := c.requireExists(ctx, user); err != nil {
		return false, err
	}

	return !isNationalRegisterNumber(user.EmployeeID), nil
}

// GenericAccounts projects the list down to its generic users.
func (c *Client) GenericAccounts(users []*User) ([]*User, error) {
	return c.GenericAccountsContext(context.Background(), users)
}

// GenericAccountsContext projects the list down to its generic users,
// with context support. An empty input list is rejected.
func (c *Client) GenericAccountsContext(ctx context.Context, users []*User) ([]*User, error) {
	return c.filterByClassification(ctx, users, true)
}

// NominatedAccounts projects the list down to its nominated users.
func (c *Client) NominatedAccounts(users []*User) ([]*User, error) {
	return c.NominatedAccountsContext(context.Background(), users)
}

// NominatedAccountsContext projects the list down to its nominated users,
// with context support. An empty input list is rejected.
func (c *Client) NominatedAccountsContext(ctx context.Context, users []*User) ([]*User, error) {
	return c.filterByClassification(ctx, users, false)
}

func (c *Client) filterByClassification(ctx context.Context, users []*User, generic bool) ([]*User, error) {
	if len(users) == 0 {
		return nil, validationError("user list", "cannot be empty")
	}

	matches := make([]*User, 0, len(users))
	for _, user := range users {
		isGeneric, err := c.IsGenericAccountContext(ctx, user)
		if err != nil {
			return nil, err
		}
		if isGeneric == generic {
			matches = append(matches, user)
		}
	}

	return matches, nil
}

// isNationalRegisterNumber validates a Belgian national register number.
// The digits extracted from the value must number exactly eleven; the
// last two form the control, which must equal 97 minus the remainder of
// the leading nine digits divided by 97. For people born from 2000 on,
// the remainder is taken over the nine digits prefixed with a literal 2.
// Either check passing is sufficient.
func isNationalRegisterNumber(value string) bool {
	digits := extractDigits(value)
	if len(digits) != 11 {
		return false
	}

	control, err := strconv.ParseUint(digits[9:], 10, 64)
	if err != nil {
		return false
	}

	body, err := strconv.ParseUint(digits[:9], 10, 64)
	if err != nil {
		return false
	}
	bodyFrom2000, err := strconv.ParseUint("2"+digits[:9], 10, 64)
	if err != nil {
		return false
	}

	return 97-body%97 == control || 97-bodyFrom2000%97 == control
}

func extractDigits(value string) string {
	var sb strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
