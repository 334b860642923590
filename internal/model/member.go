package model

import "time"

// Member is a person on the assembly crew.
type Member struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Crew roles.
const (
	MemberAssembler   = "assembler"
	MemberCoordinator = "coordinator"
	MemberDriver      = "driver"
	MemberHelper      = "helper"
)

// ValidMemberRole reports whether r is a known crew role.
func ValidMemberRole(r string) bool {
	switch r {
	case MemberAssembler, MemberCoordinator, MemberDriver, MemberHelper:
		return true
	}
	return false
}

// Access roles. Every caller is crew; admin is granted by the shared passphrase.
const (
	RoleAdmin = "admin"
	RoleCrew  = "crew"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleCrew:  1,
	}
	return levels[role] > 0 && levels[role] >= levels[minimum]
}
