package entity

import (
	"slices"
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field.
// Tokens holds the active session tokens in issuance order.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Age       int
	Avatar    []byte
	Tokens    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasToken reports whether token is one of the user's active session tokens.
func (u *User) HasToken(token string) bool {
	return slices.Contains(u.Tokens, token)
}
