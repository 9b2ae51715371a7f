package directory

import (
	"testing"

	ldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the2dl/friendly-ad/internal/models"
)

func userEntry(attrs map[string][]string) *ldap.Entry {
	entry := &ldap.Entry{DN: "CN=Jane Smith,OU=Staff,DC=corp,DC=example"}
	for name, values := range attrs {
		entry.Attributes = append(entry.Attributes, ldap.NewEntryAttribute(name, values))
	}
	return entry
}

func TestEntryToUserFullRecord(t *testing.T) {
	user := EntryToUser(userEntry(map[string][]string{
		"name":               {"Jane Smith"},
		"mail":               {"jane@corp.example"},
		"department":         {"Engineering"},
		"title":              {"Principal Engineer"},
		"telephoneNumber":    {"+1 555 0100"},
		"manager":            {"CN=Boss,OU=Staff,DC=corp,DC=example"},
		"streetAddress":      {"1 Main St"},
		"l":                  {"Springfield"},
		"st":                 {"IL"},
		"postalCode":         {"62701"},
		"co":                 {"United States"},
		"company":            {"Corp"},
		"employeeID":         {"E1234"},
		"employeeType":       {"FTE"},
		"memberOf":           {"CN=Eng,DC=corp,DC=example", "CN=All,DC=corp,DC=example"},
		"whenCreated":        {"20200101000000.0Z"},
		"whenChanged":        {"20240601000000.0Z"},
		"sAMAccountName":     {"jsmith"},
		"userPrincipalName":  {"jsmith@corp.example"},
		"userAccountControl": {"512"},
		"lastLogon":          {"133590000000000000"},
		"pwdLastSet":         {"133500000000000000"},
	}))

	require.NotNil(t, user)
	assert.Equal(t, "CN=Jane Smith,OU=Staff,DC=corp,DC=example", user.ID)
	assert.Equal(t, "Jane Smith", user.Name)
	assert.Equal(t, "jane@corp.example", user.Email)
	assert.Equal(t, []string{"CN=Eng,DC=corp,DC=example", "CN=All,DC=corp,DC=example"}, user.MemberOf)
	require.NotNil(t, user.Enabled)
	assert.True(t, *user.Enabled)
}

func TestEntryToUserDisabledAccount(t *testing.T) {
	// 514 = 0x202, bit 0x2 is the disabled flag.
	user := EntryToUser(userEntry(map[string][]string{
		"name":               {"Jane Smith"},
		"userAccountControl": {"514"},
	}))

	require.NotNil(t, user)
	require.NotNil(t, user.Enabled)
	assert.False(t, *user.Enabled)
}

func TestEntryToUserEnabledUnknownWhenAbsent(t *testing.T) {
	user := EntryToUser(userEntry(map[string][]string{
		"name": {"Jane Smith"},
	}))

	require.NotNil(t, user)
	assert.Nil(t, user.Enabled)
}

func TestEntryToUserMalformedAttributeDropsFieldOnly(t *testing.T) {
	user := EntryToUser(userEntry(map[string][]string{
		"name":               {"Jane Smith"},
		"mail":               {"jane@corp.example"},
		"userAccountControl": {"not a number"},
	}))

	// One malformed attribute never discards an otherwise valid record.
	require.NotNil(t, user)
	assert.Nil(t, user.Enabled)
	assert.Equal(t, "jane@corp.example", user.Email)
}

func TestEntryToUserNoNameDiscarded(t *testing.T) {
	assert.Nil(t, EntryToUser(userEntry(map[string][]string{
		"mail": {"orphan@corp.example"},
	})))
	assert.Nil(t, EntryToUser(userEntry(map[string][]string{
		"name": {""},
	})))
}

func TestEntryToUserEmptyValuesOmitted(t *testing.T) {
	user := EntryToUser(userEntry(map[string][]string{
		"name": {"Jane Smith"},
		"mail": {""},
	}))

	require.NotNil(t, user)
	assert.Empty(t, user.Email)
	// Absent multi-valued attribute yields an empty sequence, never nil.
	assert.NotNil(t, user.MemberOf)
	assert.Empty(t, user.MemberOf)
}

func TestEntryToUserBinaryValueDecoded(t *testing.T) {
	entry := &ldap.Entry{
		DN: "CN=Binary,DC=corp,DC=example",
		Attributes: []*ldap.EntryAttribute{
			{Name: "name", ByteValues: [][]byte{[]byte("Binary Person")}},
		},
	}

	user := EntryToUser(entry)
	require.NotNil(t, user)
	assert.Equal(t, "Binary Person", user.Name)
}

func groupEntry(attrs map[string][]string) *ldap.Entry {
	entry := &ldap.Entry{DN: "CN=Admins,OU=Groups,DC=corp,DC=example"}
	for name, values := range attrs {
		entry.Attributes = append(entry.Attributes, ldap.NewEntryAttribute(name, values))
	}
	return entry
}

func TestEntryToGroup(t *testing.T) {
	group := EntryToGroup(groupEntry(map[string][]string{
		"name":        {"Admins"},
		"description": {"Domain administrators"},
		"groupType":   {"-2147483643"},
		"member":      {"CN=Jane,DC=corp,DC=example", "CN=John,DC=corp,DC=example"},
		"managedBy":   {"CN=Jane,DC=corp,DC=example"},
		"whenCreated": {"20190101000000.0Z"},
	}))

	require.NotNil(t, group)
	assert.Equal(t, "CN=Admins,OU=Groups,DC=corp,DC=example", group.ID)
	assert.Equal(t, models.GroupTypeSecurity, group.Type)
	assert.Len(t, group.Members, 2)
	assert.Equal(t, "CN=Jane,DC=corp,DC=example", group.Owner)
}

func TestEntryToGroupNoNameDiscarded(t *testing.T) {
	assert.Nil(t, EntryToGroup(groupEntry(map[string][]string{
		"description": {"nameless"},
	})))
}

func TestDecodeGroupType(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"security", "-2147483643", models.GroupTypeSecurity},
		{"distribution small", "8", models.GroupTypeDistribution},
		{"distribution other negative", "-2147483646", models.GroupTypeDistribution},
		{"zero", "0", models.GroupTypeUnknown},
		{"absent", "", models.GroupTypeUnknown},
		{"garbage", "not a number", models.GroupTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeGroupType(tt.raw))
		})
	}
}

func TestEntryToGroupMembersDefaultEmpty(t *testing.T) {
	group := EntryToGroup(groupEntry(map[string][]string{
		"name": {"Empty Group"},
	}))

	require.NotNil(t, group)
	assert.NotNil(t, group.Members)
	assert.Empty(t, group.Members)
	assert.Equal(t, models.GroupTypeUnknown, group.Type)
}
