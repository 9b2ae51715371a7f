package directory

import (
	"strconv"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"

	"github.com/the2dl/friendly-ad/internal/models"
)

// securityGroupType is the groupType value of a global security group.
const securityGroupType = -2147483643

// firstValue returns the first value of an attribute, decoding a binary
// value as UTF-8 text when no string form is present. Absent attributes
// and empty values both come back as "".
func firstValue(entry *ldap.Entry, name string) string {
	for _, attr := range entry.Attributes {
		if !strings.EqualFold(attr.Name, name) {
			continue
		}
		if len(attr.Values) > 0 && attr.Values[0] != "" {
			return attr.Values[0]
		}
		if len(attr.ByteValues) > 0 && len(attr.ByteValues[0]) > 0 {
			return string(attr.ByteValues[0])
		}
		return ""
	}
	return ""
}

// allValues returns every value of a multi-valued attribute. Absent
// attributes yield an empty slice, never nil.
func allValues(entry *ldap.Entry, name string) []string {
	for _, attr := range entry.Attributes {
		if !strings.EqualFold(attr.Name, name) {
			continue
		}
		values := make([]string, 0, len(attr.Values))
		for _, v := range attr.Values {
			if v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			for _, bv := range attr.ByteValues {
				if len(bv) > 0 {
					values = append(values, string(bv))
				}
			}
		}
		return values
	}
	return []string{}
}

// EntryToUser converts a raw entry into a User record. An entry with no
// resolvable name is unusable and yields nil; a single malformed
// attribute only drops that field.
func EntryToUser(entry *ldap.Entry) *models.User {
	name := firstValue(entry, "name")
	if name == "" {
		return nil
	}

	user := &models.User{
		ID:                entry.DN,
		Name:              name,
		Email:             firstValue(entry, "mail"),
		Department:        firstValue(entry, "department"),
		Title:             firstValue(entry, "title"),
		Phone:             firstValue(entry, "telephoneNumber"),
		Manager:           firstValue(entry, "manager"),
		Street:            firstValue(entry, "streetAddress"),
		City:              firstValue(entry, "l"),
		State:             firstValue(entry, "st"),
		PostalCode:        firstValue(entry, "postalCode"),
		Country:           firstValue(entry, "co"),
		Company:           firstValue(entry, "company"),
		EmployeeID:        firstValue(entry, "employeeID"),
		EmployeeType:      firstValue(entry, "employeeType"),
		MemberOf:          allValues(entry, "memberOf"),
		Created:           firstValue(entry, "whenCreated"),
		LastModified:      firstValue(entry, "whenChanged"),
		SAMAccountName:    firstValue(entry, "sAMAccountName"),
		UserPrincipalName: firstValue(entry, "userPrincipalName"),
		LastLogon:         firstValue(entry, "lastLogon"),
		PwdLastSet:        firstValue(entry, "pwdLastSet"),
	}

	// Bit 0x2 of userAccountControl is "account disabled". Absent or
	// unparseable leaves Enabled unknown rather than false.
	if raw := firstValue(entry, "userAccountControl"); raw != "" {
		if uac, err := strconv.ParseInt(raw, 10, 64); err == nil {
			enabled := uac&0x2 == 0
			user.Enabled = &enabled
		}
	}

	return user
}

// EntryToGroup converts a raw entry into a Group record, or nil when the
// name attribute is unresolvable.
func EntryToGroup(entry *ldap.Entry) *models.Group {
	name := firstValue(entry, "name")
	if name == "" {
		return nil
	}

	return &models.Group{
		ID:           entry.DN,
		Name:         name,
		Description:  firstValue(entry, "description"),
		Type:         decodeGroupType(firstValue(entry, "groupType")),
		Members:      allValues(entry, "member"),
		Owner:        firstValue(entry, "managedBy"),
		Created:      firstValue(entry, "whenCreated"),
		LastModified: firstValue(entry, "whenChanged"),
	}
}

func decodeGroupType(raw string) string {
	if raw == "" {
		return models.GroupTypeUnknown
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value == 0 {
		return models.GroupTypeUnknown
	}
	if value == securityGroupType {
		return models.GroupTypeSecurity
	}
	return models.GroupTypeDistribution
}
