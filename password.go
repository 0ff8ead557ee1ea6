package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-ldap/ldap/v3"
	textunicode "golang.org/x/text/encoding/unicode"
)

var (
	utf16le = textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM)

	// ErrSecureConnectionRequired is returned when attempting to write a
	// password to Active Directory over an unencrypted connection. AD only
	// accepts unicodePwd modifications over LDAPS.
	ErrSecureConnectionRequired = errors.New("directory: password changes on Active Directory require an ldaps:// connection")
)

// CheckPasswordComplexity reports whether a candidate password satisfies
// the account password policy.
func (c *Client) CheckPasswordComplexity(user *User, password string) (bool, error) {
	return c.CheckPasswordComplexityContext(context.Background(), user, password)
}

// CheckPasswordComplexityContext reports whether a candidate password
// satisfies the account password policy, with context support. All rules
// must hold:
//
//   - at least 12 characters
//   - none of the user's login name, given name, surname (case sensitive)
//     nor the substring "bsca" (case insensitive) appear in the password
//   - at least 3 of the 4 character classes lower, upper, digit, symbol
//     are present, where any whitespace character anywhere voids the
//     class rule entirely
func (c *Client) CheckPasswordComplexityContext(ctx context.Context, user *User, password string) (bool, error) {
	if user == nil {
		return false, validationError("user", "cannot be nil")
	}
	if password == "" {
		return false, validationError("password", "cannot be empty")
	}
	if err := c.requireExists(ctx, user); err != nil {
		return false, err
	}

	if utf8.RuneCountInString(password) < 12 {
		return false, nil
	}

	if containsAnyName(password, user.SAMAccountName, user.GivenName, user.Surname) {
		return false, nil
	}
	if strings.Contains(strings.ToLower(password), "bsca") {
		return false, nil
	}

	return characterClasses(password) >= 3, nil
}

// containsAnyName reports whether the password contains one of the given
// names, case sensitively. Unset names carry no restriction.
func containsAnyName(password string, names ...string) bool {
	for _, name := range names {
		if name != "" && strings.Contains(password, name) {
			return true
		}
	}
	return false
}

// characterClasses counts the character classes present in the password:
// lowercase, uppercase, digit and symbol (anything outside letters,
// digits and underscore). Any whitespace character zeroes the count.
func characterClasses(password string) int {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return 0
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r):
			symbol = true
		}
	}

	count := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			count++
		}
	}
	return count
}

// SetPassword writes a new password for the user without verifying the
// current one. The bound service account needs reset rights.
func (c *Client) SetPassword(user *User, password string) error {
	return c.SetPasswordContext(context.Background(), user, password)
}

// SetPasswordContext writes a new password for the user with context
// support. On Active Directory the password travels in the unicodePwd
// attribute and the connection must be LDAPS.
func (c *Client) SetPasswordContext(ctx context.Context, user *User, password string) error {
	if user == nil {
		return validationError("user", "cannot be nil")
	}
	if password == "" {
		return validationError("password", "cannot be empty")
	}
	if c.config.IsActiveDirectory && !c.secureServer() {
		return ErrSecureConnectionRequired
	}

	encoded, err := encodePassword(password)
	if err != nil {
		return err
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	req := ldap.NewModifyRequest(user.DN(), nil)
	req.Replace("unicodePwd", []string{encoded})

	if err := conn.Modify(req); err != nil {
		return operationError("SetPassword", c.config.Server, user.DN(), err)
	}

	c.logger.Info("password_set",
		slog.String("sam_account_name", user.SAMAccountName))

	return nil
}

// ExpirePasswordNow marks the user's password as expired so the next
// sign-in forces a change.
func (c *Client) ExpirePasswordNow(user *User) error {
	return c.ExpirePasswordNowContext(context.Background(), user)
}

// ExpirePasswordNowContext marks the user's password as expired with
// context support, by zeroing the pwdLastSet attribute.
func (c *Client) ExpirePasswordNowContext(ctx context.Context, user *User) error {
	if user == nil {
		return validationError("user", "cannot be nil")
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	req := ldap.NewModifyRequest(user.DN(), nil)
	req.Replace("pwdLastSet", []string{"0"})

	if err := conn.Modify(req); err != nil {
		return operationError("ExpirePasswordNow", c.config.Server, user.DN(), err)
	}

	return nil
}

// ChangePassword sets a new password for the user after verifying the
// current one and enforcing the complexity policy.
func (c *Client) ChangePassword(user *User, newPassword, currentPassword string, mustChangeAtNextLogon bool) error {
	return c.ChangePasswordContext(context.Background(), user, newPassword, currentPassword, mustChangeAtNextLogon)
}

// ChangePasswordContext sets a new password for the user with context
// support. When currentPassword is non-empty it is verified against the
// directory first; a mismatch fails with ErrInvalidCredentials. The new
// password must pass the complexity policy (ErrPasswordPolicy otherwise).
// With mustChangeAtNextLogon the password is expired right after being
// set.
func (c *Client) ChangePasswordContext(ctx context.Context, user *User, newPassword, currentPassword string, mustChangeAtNextLogon bool) error {
	if user == nil {
		return validationError("user", "cannot be nil")
	}
	if newPassword == "" {
		return validationError("new password", "cannot be empty")
	}
	if err := c.requireExists(ctx, user); err != nil {
		return err
	}

	if currentPassword != "" {
		valid, err := c.validateCredentialsForDN(ctx, user.DN(), currentPassword)
		if err != nil {
			return err
		}
		if !valid {
			return ErrInvalidCredentials
		}
	}

	ok, err := c.CheckPasswordComplexityContext(ctx, user, newPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPasswordPolicy
	}

	if err := c.SetPasswordContext(ctx, user, newPassword); err != nil {
		return err
	}

	if mustChangeAtNextLogon {
		if err := c.ExpirePasswordNowContext(ctx, user); err != nil {
			return err
		}
	}

	c.logger.Info("password_changed",
		slog.String("sam_account_name", user.SAMAccountName),
		slog.Bool("must_change_at_next_logon", mustChangeAtNextLogon))

	return nil
}

func encodePassword(password string) (string, error) {
	return utf16le.NewEncoder().String("\"" + password + "\"")
}
