package directory

import (
	"fmt"
	"strings"

	"github.com/the2dl/friendly-ad/internal/models"
)

// Attribute projections are fixed per search type; normalization depends
// on exactly these being requested.
var userAttributes = []string{
	"name", "mail", "department", "title", "telephoneNumber",
	"manager", "streetAddress", "l", "st", "postalCode", "co",
	"memberOf", "whenCreated", "whenChanged",
	"sAMAccountName", "userPrincipalName", "userAccountControl",
	"lastLogon", "pwdLastSet", "company", "employeeID", "employeeType",
}

var groupAttributes = []string{
	"name", "description", "groupType", "member", "managedBy",
	"whenCreated", "whenChanged",
}

// EscapeFilter escapes the characters that would change the structure of
// a search filter. Applied exactly once to the whole raw query before it
// is embedded in any template; templates add their own wildcards around
// the escaped value.
func EscapeFilter(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		switch r {
		case '\\':
			b.WriteString(`\5c`)
		case '*':
			b.WriteString(`\2a`)
		case '(':
			b.WriteString(`\28`)
		case ')':
			b.WriteString(`\29`)
		case 0:
			b.WriteString(`\00`)
		case '/':
			b.WriteString(`\2f`)
		case '.':
			b.WriteString(`\2e`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildFilter compiles a search query into a filter string and the
// attribute projection for its type. ok is false for an unknown type,
// which callers treat as an empty result set rather than an error.
func BuildFilter(q models.SearchQuery) (filter string, attributes []string, ok bool) {
	escaped := EscapeFilter(q.Query)

	switch q.Type {
	case models.SearchTypeUsers:
		switch {
		case q.SearchBy == "sAMAccountName":
			// Exact account-name lookup; precise is irrelevant here.
			filter = fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", escaped)
		case q.Precise:
			filter = fmt.Sprintf(
				"(&(objectClass=user)(|(sAMAccountName=%[1]s)(userPrincipalName=%[1]s)(employeeID=%[1]s)))",
				escaped)
		default:
			filter = fmt.Sprintf(
				"(&(objectClass=user)(|(name=*%[1]s*)(mail=*%[1]s*)(sAMAccountName=*%[1]s*)(userPrincipalName=*%[1]s*)(employeeID=*%[1]s*)))",
				escaped)
		}
		return filter, userAttributes, true

	case models.SearchTypeGroups:
		if q.Precise {
			filter = fmt.Sprintf("(&(objectClass=group)(sAMAccountName=%s))", escaped)
		} else {
			filter = fmt.Sprintf(
				"(&(objectClass=group)(|(name=*%[1]s*)(description=*%[1]s*)))", escaped)
		}
		return filter, groupAttributes, true

	case models.SearchTypeGroupMembers:
		// The query is the group's distinguished name; members are the
		// users whose memberOf holds that exact DN.
		filter = fmt.Sprintf("(&(objectClass=user)(memberOf=%s))", escaped)
		return filter, userAttributes, true
	}

	return "", nil, false
}

// groupFilter builds the equality lookup for a single group by its
// distinguished name.
func groupFilter(dn string) string {
	return fmt.Sprintf("(distinguishedName=%s)", EscapeFilter(dn))
}

// balancedFilter is a structural sanity check on a compiled filter:
// parentheses must balance, never go negative, and the whole string must
// be one parenthesized expression.
func balancedFilter(filter string) bool {
	if len(filter) < 2 || filter[0] != '(' || filter[len(filter)-1] != ')' {
		return false
	}

	depth := 0
	for i, r := range filter {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
			if depth == 0 && i != len(filter)-1 {
				return false
			}
		}
	}
	return depth == 0
}
