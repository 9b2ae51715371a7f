package directory

import (
	"errors"

	ldap "github.com/go-ldap/ldap/v3"
)

// Errors crossing the directory boundary. Raw go-ldap errors are always
// converted to one of these before leaving the package.
var (
	// ErrBindFailed means the stored credentials were rejected by the
	// directory. Retrying with the same credentials cannot succeed.
	ErrBindFailed = errors.New("directory bind failed: invalid credentials")

	// ErrConnectFailed covers transport and protocol failures while
	// establishing a connection. Safe for callers to retry.
	ErrConnectFailed = errors.New("could not connect to directory server")

	// ErrSearchFailed is a protocol-level failure mid-search. Partial
	// accumulation is discarded; callers never see mixed outcomes.
	ErrSearchFailed = errors.New("directory search failed")

	// ErrGroupNotFound is returned by single-group lookups when no entry
	// matches the requested distinguished name.
	ErrGroupNotFound = errors.New("group not found")
)

// isInvalidCredentials reports whether a bind error is a credential
// rejection rather than a transport problem.
func isInvalidCredentials(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultInappropriateAuthentication)
}

// isSizeLimitExceeded reports whether a search error is the server's
// size-limit condition, a partial success rather than a failure.
func isSizeLimitExceeded(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded)
}
