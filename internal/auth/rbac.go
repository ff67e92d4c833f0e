package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// rank orders roles by capability; a higher rank includes the lower ones.
var rank = map[Role]int{
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
}

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleManager):
		return RoleManager
	default:
		return RoleUser
	}
}

// HasRole reports whether role grants at least one of the allowed roles.
// Admin satisfies manager and user; manager satisfies user.
func HasRole(role string, allowed ...Role) bool {
	current := rank[NormalizeRole(role)]
	for _, candidate := range allowed {
		if current >= rank[candidate] {
			return true
		}
	}
	return false
}

// RoleFor maps account flags to the session role.
func RoleFor(admin, manager bool) Role {
	switch {
	case admin:
		return RoleAdmin
	case manager:
		return RoleManager
	default:
		return RoleUser
	}
}
