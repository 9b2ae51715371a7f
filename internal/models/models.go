package models

// Domain is a configured directory service. Rows are never physically
// deleted; deactivation flips IsActive so stored ids stay valid.
type Domain struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Server            string `json:"server"`
	BaseDN            string `json:"base_dn"`
	Username          string `json:"username"`
	EncryptedPassword string `json:"-"`
	IsActive          bool   `json:"is_active"`
}

// DomainSummary is the public view of a domain, safe to hand to the
// search UI (no server address, no credentials).
type DomainSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateDomainInput carries the fields for registering a new domain.
// The password arrives in plaintext and is encrypted before it hits storage.
type CreateDomainInput struct {
	Name     string `json:"name"`
	Server   string `json:"server"`
	BaseDN   string `json:"base_dn"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Search types accepted on the /search endpoint.
const (
	SearchTypeUsers        = "users"
	SearchTypeGroups       = "groups"
	SearchTypeGroupMembers = "group_members"
)

// SearchQuery is one incoming directory search.
type SearchQuery struct {
	Query    string `json:"query"`
	Type     string `json:"type"`
	Precise  bool   `json:"precise"`
	SearchBy string `json:"searchBy,omitempty"`
	DomainID *int64 `json:"domain,omitempty"`
}

// User is a normalized directory user entry. The DN is the identity.
// Optional attributes are omitted rather than serialized as "".
type User struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email,omitempty"`
	Department        string   `json:"department,omitempty"`
	Title             string   `json:"title,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Manager           string   `json:"manager,omitempty"`
	Street            string   `json:"street,omitempty"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	PostalCode        string   `json:"postalCode,omitempty"`
	Country           string   `json:"country,omitempty"`
	Company           string   `json:"company,omitempty"`
	EmployeeID        string   `json:"employeeID,omitempty"`
	EmployeeType      string   `json:"employeeType,omitempty"`
	MemberOf          []string `json:"memberOf"`
	Created           string   `json:"created,omitempty"`
	LastModified      string   `json:"lastModified,omitempty"`
	SAMAccountName    string   `json:"samAccountName,omitempty"`
	UserPrincipalName string   `json:"userPrincipalName,omitempty"`
	LastLogon         string   `json:"lastLogon,omitempty"`
	PwdLastSet        string   `json:"pwdLastSet,omitempty"`
	Enabled           *bool    `json:"enabled"`
}

// Group type classifications decoded from the groupType attribute.
const (
	GroupTypeSecurity     = "security"
	GroupTypeDistribution = "distribution"
	GroupTypeUnknown      = "unknown"
)

// Group is a normalized directory group entry.
type Group struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Type         string   `json:"type"`
	Members      []string `json:"members"`
	Owner        string   `json:"owner,omitempty"`
	Created      string   `json:"created,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
}

// SearchResult is the outcome handed back across the HTTP boundary.
// Truncated marks a partial-but-valid result set; callers surface the
// partial data together with a truncation indicator.
type SearchResult struct {
	Users     []*User
	Groups    []*Group
	Truncated bool
}

// Data returns whichever record slice the search populated, shaped for
// JSON serialization. Never nil.
func (r *SearchResult) Data() any {
	if r.Groups != nil {
		return r.Groups
	}
	if r.Users != nil {
		return r.Users
	}
	return []*User{}
}
