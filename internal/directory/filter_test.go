package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/the2dl/friendly-ad/internal/models"
)

func TestEscapeFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"backslash", `\`, `\5c`},
		{"asterisk", "*", `\2a`},
		{"open paren", "(", `\28`},
		{"close paren", ")", `\29`},
		{"nul byte", "\x00", `\00`},
		{"slash", "/", `\2f`},
		{"period", ".", `\2e`},
		{"clean string unchanged", "alice smith", "alice smith"},
		{"mixed", "o'br*en", `o'br\2aen`},
		{"dn", "CN=Admins,OU=Groups,DC=corp,DC=example", `CN=Admins,OU=Groups,DC=corp,DC=example`},
		{"injection attempt", ")(objectClass=*", `\29\28objectClass=\2a`},
		{"unicode preserved", "müller", "müller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeFilter(tt.input))
		})
	}
}

func TestBuildFilterUsers(t *testing.T) {
	tests := []struct {
		name string
		q    models.SearchQuery
		want string
	}{
		{
			name: "substring search",
			q:    models.SearchQuery{Query: "smith", Type: models.SearchTypeUsers},
			want: "(&(objectClass=user)(|(name=*smith*)(mail=*smith*)(sAMAccountName=*smith*)(userPrincipalName=*smith*)(employeeID=*smith*)))",
		},
		{
			name: "precise search",
			q:    models.SearchQuery{Query: "jsmith", Type: models.SearchTypeUsers, Precise: true},
			want: "(&(objectClass=user)(|(sAMAccountName=jsmith)(userPrincipalName=jsmith)(employeeID=jsmith)))",
		},
		{
			name: "account name fast path ignores precise",
			q:    models.SearchQuery{Query: "jsmith", Type: models.SearchTypeUsers, SearchBy: "sAMAccountName"},
			want: "(&(objectClass=user)(sAMAccountName=jsmith))",
		},
		{
			name: "account name fast path with precise set",
			q:    models.SearchQuery{Query: "jsmith", Type: models.SearchTypeUsers, Precise: true, SearchBy: "sAMAccountName"},
			want: "(&(objectClass=user)(sAMAccountName=jsmith))",
		},
		{
			name: "literal wildcard escaped inside substring template",
			q:    models.SearchQuery{Query: "o'br*en", Type: models.SearchTypeUsers},
			want: `(&(objectClass=user)(|(name=*o'br\2aen*)(mail=*o'br\2aen*)(sAMAccountName=*o'br\2aen*)(userPrincipalName=*o'br\2aen*)(employeeID=*o'br\2aen*)))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, attrs, ok := BuildFilter(tt.q)
			assert.True(t, ok)
			assert.Equal(t, tt.want, filter)
			assert.Equal(t, userAttributes, attrs)
			assert.True(t, balancedFilter(filter))
		})
	}
}

func TestBuildFilterGroups(t *testing.T) {
	filter, attrs, ok := BuildFilter(models.SearchQuery{Query: "admins", Type: models.SearchTypeGroups})
	assert.True(t, ok)
	assert.Equal(t, "(&(objectClass=group)(|(name=*admins*)(description=*admins*)))", filter)
	assert.Equal(t, groupAttributes, attrs)

	filter, _, ok = BuildFilter(models.SearchQuery{Query: "admins", Type: models.SearchTypeGroups, Precise: true})
	assert.True(t, ok)
	assert.Equal(t, "(&(objectClass=group)(sAMAccountName=admins))", filter)
}

func TestBuildFilterGroupMembers(t *testing.T) {
	dn := "CN=Admins,OU=Groups,DC=corp,DC=example"
	filter, attrs, ok := BuildFilter(models.SearchQuery{Query: dn, Type: models.SearchTypeGroupMembers})
	assert.True(t, ok)
	assert.Equal(t, "(&(objectClass=user)(memberOf=CN=Admins,OU=Groups,DC=corp,DC=example))", filter)
	assert.Equal(t, userAttributes, attrs)
	assert.True(t, balancedFilter(filter))
}

func TestBuildFilterUnknownType(t *testing.T) {
	filter, attrs, ok := BuildFilter(models.SearchQuery{Query: "anything", Type: "computers"})
	assert.False(t, ok)
	assert.Empty(t, filter)
	assert.Nil(t, attrs)
}

func TestGroupFilter(t *testing.T) {
	filter := groupFilter(`CN=Ops (EU)\*,OU=Groups,DC=corp,DC=example`)
	assert.Equal(t, `(distinguishedName=CN=Ops \28EU\29\5c\2a,OU=Groups,DC=corp,DC=example)`, filter)
	assert.True(t, balancedFilter(filter))
}

func TestBalancedFilter(t *testing.T) {
	assert.True(t, balancedFilter("(objectClass=user)"))
	assert.True(t, balancedFilter("(&(a=1)(|(b=2)(c=3)))"))
	assert.False(t, balancedFilter("(&(a=1)(b=2)"))
	assert.False(t, balancedFilter("(a=1))(b=2)"))
	assert.False(t, balancedFilter("(a=1)(b=2)"))
	assert.False(t, balancedFilter("a=1"))
	assert.False(t, balancedFilter(""))
}
