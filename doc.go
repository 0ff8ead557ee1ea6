// Package directory provides a directory-backed identity and access
// layer for LDAP and Active Directory services.
//
// The package covers:
//   - Principal search and provisioning for users, groups and computers
//   - Group membership management
//   - Organizational unit scoping and relocation
//   - Account classification (generic vs nominated accounts)
//   - Password complexity enforcement and password changes
//   - A multi-step login flow with ordered failure reporting
//
// # Basic Usage
//
//	config := directory.Config{
//		Server:            "ldaps://dc01.example.com:636",
//		BaseDN:            "DC=example,DC=com",
//		IsActiveDirectory: true,
//	}
//
//	client, err := directory.New(&config, "CN=svc,CN=Users,DC=example,DC=com", "password")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Sign a user in
//	user, err := client.Login("jdoe", "password", false)
//	if err != nil {
//		log.Printf("sign-in failed: %v", err)
//		return
//	}
//	fmt.Printf("signed in: %s\n", user.CN())
//
//	// Search by prototype
//	t, _ := directory.NewTemplate(directory.KindUser, "surname", "Do*")
//	users, err := client.Search(t)
//
// # Login Flow
//
// Login validates its arguments, resolves the user, then checks lockout,
// activation, account class and finally the credentials, in that order.
// The first failing check wins; a locked account is reported as locked
// even when the password is also wrong. Failures are returned as errors
// alongside the partially resolved user, so callers can log who failed.
//
// # Active Directory Considerations
//
// With IsActiveDirectory set, password writes use the unicodePwd
// attribute and require an ldaps:// server URL; account state is
// managed through userAccountControl flags.
//
// # Error Handling
//
// Errors are classified by sentinel values matchable with errors.Is:
//   - ErrInvalidArgument: a required argument is empty
//   - ErrNotFound: the referenced principal, group or OU does not exist
//   - ErrConflict: a create or membership change conflicts with current state
//   - ErrUnsupportedKind: activation requested for a group
//   - ErrPasswordPolicy: a password fails the complexity rules
//   - ErrAccountLocked, ErrAccountInactive, ErrGenericAccountNotAllowed,
//     ErrInvalidCredentials: sign-in failures, see IsAuthenticationError
//
// Transport failures are wrapped in *DirectoryError with the operation,
// DN and server attached.
package directory
