// Package users keeps the email-keyed identities that own journal accounts.
package users

import (
	"errors"
	"time"
)

var (
	ErrEmailRequired      = errors.New("the given email must be set")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("a user with that email already exists")
	ErrNotFound           = errors.New("user not found")
	ErrSuperuserStaff     = errors.New("superuser must have is_staff=true")
	ErrSuperuserFlag      = errors.New("superuser must have is_superuser=true")
)

// User is identified by email; there is no username.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	Name        string    `db:"name" json:"name"`
	Password    string    `db:"password" json:"-"`
	IsStaff     bool      `db:"is_staff" json:"is_staff"`
	IsSuperuser bool      `db:"is_superuser" json:"is_superuser"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	DateJoined  time.Time `db:"date_joined" json:"date_joined"`
}

func (u User) String() string {
	return u.Email
}

// HasUsablePassword is false for users created without a password.
func (u User) HasUsablePassword() bool {
	return u.Password != "" && u.Password[0] != unusablePrefix
}

// Option adjusts a user before it is stored.
type Option func(*User)

func WithName(name string) Option {
	return func(u *User) { u.Name = name }
}

func WithStaff(staff bool) Option {
	return func(u *User) { u.IsStaff = staff }
}

func WithSuperuser(superuser bool) Option {
	return func(u *User) { u.IsSuperuser = superuser }
}

func WithActive(active bool) Option {
	return func(u *User) { u.IsActive = active }
}
