package enum

// Role represents the single role assigned to a user
type Role string

const (
	// RoleU1 enters invoices into the system
	RoleU1 Role = "U1"
	// RoleV1 performs level-1 validation (management control)
	RoleV1 Role = "V1"
	// RoleV2 performs level-2 validation (department head)
	RoleV2 Role = "V2"
	// RoleT1 processes payments
	RoleT1 Role = "T1"
	// RoleAdmin administers users
	RoleAdmin Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleU1, RoleV1, RoleV2, RoleT1, RoleAdmin:
		return true
	}
	return false
}

// Label returns a human-readable description of the role
func (r Role) Label() string {
	switch r {
	case RoleU1:
		return "Utilisateur de saisie"
	case RoleV1:
		return "Validateur niveau 1"
	case RoleV2:
		return "Validateur niveau 2"
	case RoleT1:
		return "Trésorier"
	case RoleAdmin:
		return "Administrateur"
	}
	return string(r)
}
