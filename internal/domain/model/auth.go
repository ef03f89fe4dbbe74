package model

import (
	"strings"
	"time"
)

// AuthMode selects which auth form the overlay shows.
type AuthMode string

// Auth modes.
const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

// ParseAuthMode maps free input onto a mode. Anything that is not
// "register" falls back to login.
func ParseAuthMode(s string) AuthMode {
	if AuthMode(strings.ToLower(strings.TrimSpace(s))) == ModeRegister {
		return ModeRegister
	}
	return ModeLogin
}

// OrDefault returns m, or login when m is empty or unknown.
func (m AuthMode) OrDefault() AuthMode {
	return ParseAuthMode(string(m))
}

// Endpoint returns the path segment of the auth endpoint for m.
func (m AuthMode) Endpoint() string {
	return string(m.OrDefault())
}

// Overlay is the login/register modal state.
type Overlay struct {
	IsOpen bool     `json:"isOpen"`
	Mode   AuthMode `json:"mode"`
}

// Credentials is what the auth form submits.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthTopic is the broadcast topic used to request the auth overlay from
// code that holds no reference to the session store.
const AuthTopic = "devbasics:auth"

// Event is a broadcast message. Mode is optional.
type Event struct {
	ID    string    `json:"id"`
	Topic string    `json:"topic"`
	Mode  AuthMode  `json:"mode,omitempty"`
	TS    time.Time `json:"ts"`
}
