package user

import (
	"errors"
	"time"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrNotConfirmed    = errors.New("email not confirmed")
	ErrInvalidRole     = errors.New("invalid role")
	ErrLastAdmin       = errors.New("cannot demote the last admin")
	ErrWrongPassword   = errors.New("incorrect old password")
	ErrPasswordTooWeak = errors.New("password must be at least 6 characters")
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Confirmed    bool       `json:"confirmed"`
	CreatedAt    time.Time  `json:"created_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type NewUser struct {
	Username  string
	Email     string
	Password  string
	Role      string // defaults to student
	Confirmed bool
}

func ValidRole(r string) bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}
