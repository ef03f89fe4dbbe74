// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidUser reports stored content that does not look like a user.
var ErrInvalidUser = errors.New("invalid user record")

// User is the signed-in account as returned by the auth endpoints.
type User struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// DisplayName returns the name when set, otherwise the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	return u.Email
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Name != nil {
		n := *u.Name
		c.Name = &n
	}
	return &c
}

// DecodeUser parses a serialized user. A record without id and email is
// rejected even when it is valid JSON.
func DecodeUser(data []byte) (*User, error) {
	var u *User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	if u == nil || (u.ID == 0 && u.Email == "") {
		return nil, ErrInvalidUser
	}
	return u, nil
}

// StringPtr is a helper for optional string fields.
func StringPtr(s string) *string { return &s }
