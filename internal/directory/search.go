package directory

import (
	"fmt"

	ldap "github.com/go-ldap/ldap/v3"
)

// searchConn is the slice of *ldap.Conn the paging loop needs; tests
// substitute a scripted implementation.
type searchConn interface {
	Search(*ldap.SearchRequest) (*ldap.SearchResult, error)
}

// searchAllPages drives a simple-paged-results search to exhaustion.
// Each page request carries the cookie returned by the previous response;
// an empty cookie ends the loop. A size-limit-exceeded result is a partial
// success: whatever entries arrived are kept and truncated is true. Any
// other error discards the accumulation entirely.
func searchAllPages(conn searchConn, baseDN, filter string, attributes []string, pageSize uint32, maxPages int) (entries []*ldap.Entry, truncated bool, err error) {
	paging := ldap.NewControlPaging(pageSize)

	for page := 0; ; page++ {
		// Bound against a server that keeps handing back cookies forever.
		if maxPages > 0 && page >= maxPages {
			return nil, false, fmt.Errorf("%w: page limit (%d) exceeded", ErrSearchFailed, maxPages)
		}

		req := ldap.NewSearchRequest(
			baseDN,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases,
			0, 0, false,
			filter,
			attributes,
			[]ldap.Control{paging},
		)

		result, err := conn.Search(req)
		if err != nil {
			if isSizeLimitExceeded(err) {
				if result != nil {
					entries = append(entries, result.Entries...)
				}
				return entries, true, nil
			}
			return nil, false, fmt.Errorf("%w: %v", ErrSearchFailed, err)
		}

		entries = append(entries, result.Entries...)

		control, ok := ldap.FindControl(result.Controls, ldap.ControlTypePaging).(*ldap.ControlPaging)
		if !ok || len(control.Cookie) == 0 {
			return entries, false, nil
		}
		paging.SetCookie(control.Cookie)
	}
}
