package auth

import "github.com/kasap-ot/thesis-project/internal/apperr"

// Role is the kind of entity a caller acts as.
type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleCompany
}

// Caller is the authenticated identity a request acts as.
type Caller struct {
	ID   int64
	Role Role
}

// AuthorizeStudent allows the call only when the caller is the given student.
func AuthorizeStudent(c Caller, studentID int64) error {
	if c.Role != RoleStudent || c.ID != studentID {
		return apperr.Forbidden("caller may not act as this student")
	}
	return nil
}

// AuthorizeCompany allows the call only when the caller is the given company.
// A nil company (an orphaned offer) is owned by nobody.
func AuthorizeCompany(c Caller, companyID *int64) error {
	if c.Role != RoleCompany || companyID == nil || c.ID != *companyID {
		return apperr.Forbidden("caller may not act as this company")
	}
	return nil
}
