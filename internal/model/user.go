package model

import (
	"errors"
	"time"
)

// User is an operator account of the service. Marketplace members are
// authenticated elsewhere and only appear as item owner IDs.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Roles.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// MinPasswordLength is the shortest accepted operator password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles never pass.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:     2,
		RoleModerator: 1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	want, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= want
}

// ValidRole reports whether role is a known operator role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// ValidatePassword checks operator password rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
