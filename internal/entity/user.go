package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLength = 72

	// RoleFulfillment may finalize orders placed by other users.
	RoleFulfillment = "fulfillment"
)

var (
	ErrUsernameTooShort = errors.New("username must be at least 3 characters long")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	Created      time.Time
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Grant adds role to the user; it reports false if the role was already held.
func (u *User) Grant(role string) bool {
	if u.HasRole(role) {
		return false
	}
	u.Roles = append(u.Roles, role)
	return true
}

func ValidateUsername(username string) error {
	if len(strings.TrimSpace(username)) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
