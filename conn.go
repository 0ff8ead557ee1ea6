package directory

import (
	"context"

	"github.com/go-ldap/ldap/v3"
)

// Conn is the subset of the LDAP connection used by this package. It is
// satisfied by *ldap.Conn and small enough to fake in unit tests; transport
// concerns (TLS, retries, thread-safety of a shared connection) belong to
// the implementation behind it.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Add(req *ldap.AddRequest) error
	Modify(req *ldap.ModifyRequest) error
	ModifyDN(req *ldap.ModifyDNRequest) error
	Close() error
}

var _ Conn = (*ldap.Conn)(nil)

// ConnectionFactory produces a bound connection for one operation. The
// default factory dials Config.Server and binds with the client's service
// credentials; tests and embedders may supply their own.
type ConnectionFactory func(ctx context.Context) (Conn, error)
