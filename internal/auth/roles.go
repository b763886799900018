package auth

// Role is the access level carried in a token. Viewers read the graph and
// the query log, operators may additionally force refreshes and pull
// reports, admins everything else.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a raw claim string onto the known roles. Unknown
// values report false rather than defaulting to viewer.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role grants at least the required level.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

// roleRank orders the roles; an unknown role ranks below viewer and so
// satisfies nothing.
func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
