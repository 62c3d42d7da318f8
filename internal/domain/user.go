package domain

import "time"

// Role separates clients from staff members.
type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleStaff
}

// User is a chat participant identified by its channel user id.
type User struct {
	ID           int64
	Role         Role
	DisplayName  string
	PasswordHash *string
	CreatedAt    time.Time
}

// IsStaff reports whether the user may receive escalations.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}
