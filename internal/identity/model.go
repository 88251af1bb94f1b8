package identity

import "time"

// Hierarchy roles. Sellers report to supervisors, supervisors to regional
// leads. Admins review withdrawals.
const (
	RoleSeller       = "seller"
	RoleSupervisor   = "supervisor"
	RoleRegionalLead = "regional_lead"
	RoleAdmin        = "admin"
)

// User represents a registered account in the referral hierarchy.
type User struct {
	ID           string
	Name         string
	Phone        string
	Role         string
	ParentID     string // supervisor for sellers, regional lead for supervisors
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials carry a login or registration attempt.
type Credentials struct {
	Phone    string
	Password string
}

// ValidRole reports whether the role is one the hierarchy knows about.
func ValidRole(role string) bool {
	switch role {
	case RoleSeller, RoleSupervisor, RoleRegionalLead, RoleAdmin:
		return true
	default:
		return false
	}
}
