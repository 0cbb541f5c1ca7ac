package models

import (
	"strings"
	"time"
)

// User is an account holder. The JSON encoding is the public view: the
// password hash, issued tokens and avatar bytes are never serialized.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash
	Age       int       `json:"age"`
	Tokens    []string  `json:"-"`
	Avatar    []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasToken reports whether token is still registered on the user.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.Tokens != nil {
		c.Tokens = append([]string(nil), u.Tokens...)
	}
	if u.Avatar != nil {
		c.Avatar = append([]byte(nil), u.Avatar...)
	}
	return &c
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest is the JSON body for POST /users.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
}

// LoginRequest is the JSON body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UserUpdatableFields lists the keys accepted by PATCH /users/me.
var UserUpdatableFields = []string{"name", "age", "email", "password"}
