package directory

import (
	"errors"
	"fmt"
)

// Sentinel errors for directory operations. They provide a stable API for
// error classification; callers should match with errors.Is.
var (
	// ErrInvalidArgument is returned when a required argument is empty or a
	// list argument contains no elements.
	ErrInvalidArgument = errors.New("directory: invalid argument")

	// ErrNotFound is returned when a referenced principal, group or
	// organizational unit does not exist in the directory.
	ErrNotFound = errors.New("directory: object not found")

	// ErrConflict is returned when a create targets an already-existing
	// login or name, or a membership change violates the current
	// membership state.
	ErrConflict = errors.New("directory: conflicting state")

	// ErrUnsupportedKind is returned when an activation operation is
	// invoked on a principal kind that has no enabled state.
	ErrUnsupportedKind = errors.New("directory: unsupported object kind")

	// ErrPasswordPolicy is returned when a password fails the complexity
	// rules.
	ErrPasswordPolicy = errors.New("directory: password does not meet the complexity requirements")

	// ErrDNDuplicated indicates a data integrity issue: a search found
	// multiple entries with the same DN.
	ErrDNDuplicated = errors.New("directory: DN is not unique")
)

// Authentication errors surfaced by Login. They are returned as data, never
// panicked or wrapped beyond recognition, so callers can present sign-in
// failures uniformly.
var (
	ErrAccountLocked            = errors.New("directory: account is locked")
	ErrAccountInactive          = errors.New("directory: account is not active")
	ErrGenericAccountNotAllowed = errors.New("directory: generic accounts are not allowed to sign in")
	ErrInvalidCredentials       = errors.New("directory: incorrect username/password combination")
)

// DirectoryError carries operation context for failures that originate from
// the directory server.
type DirectoryError struct {
	// Op is the operation name (e.g. "AddGroupMember", "Login").
	Op string
	// DN is the distinguished name involved in the operation, if any.
	DN string
	// Server is the directory server URL.
	Server string
	// Err is the underlying error.
	Err error
}

func (e *DirectoryError) Error() string {
	if e.DN != "" {
		return fmt.Sprintf("directory %s failed for DN %q on server %q: %v", e.Op, e.DN, e.Server, e.Err)
	}
	return fmt.Sprintf("directory %s failed on server %q: %v", e.Op, e.Server, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err is one of the sign-in failures
// produced by Login.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrGenericAccountNotAllowed) ||
		errors.Is(err, ErrInvalidCredentials)
}

// Error helper constructors. These keep error construction consistent across
// the codebase.

func validationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, field, reason)
}

func notFoundError(kind ObjectKind, name string) error {
	return fmt.Errorf("%w: %s %q does not exist in the directory", ErrNotFound, kind, name)
}

func conflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func unsupportedKindError(op string, kind ObjectKind) error {
	return fmt.Errorf("%w: %s is only valid for users and computers, got %s", ErrUnsupportedKind, op, kind)
}

func operationError(op, server, dn string, err error) error {
	return &DirectoryError{Op: op, Server: server, DN: dn, Err: err}
}
