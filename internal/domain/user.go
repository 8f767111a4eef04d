// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID is the stable client identity carried by the client-token cookie.
// Several connections (tabs) may share one UserID.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, username string) (*User, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if len(id) > MaxUserIDLen {
		id = id[:MaxUserIDLen]
	}
	return &User{ID: id, Username: name}, nil
}

func (u *User) SetUsername(username string) error {
	name, err := NormalizeUsername(username)
	if err != nil {
		return err
	}
	u.Username = name
	return nil
}

// NormalizeUsername trims the name and strips control characters.
func NormalizeUsername(username string) (string, error) {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(username))
	if len(name) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}
