package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rustyeddy/tradejournal/internal/db"
	"github.com/rustyeddy/tradejournal/pkg/id"
)

// Manager creates, looks up and authenticates users.
type Manager struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewManager(db *sqlx.DB) *Manager {
	return &Manager{db: db, now: time.Now}
}

// NormalizeEmail lower-cases the domain part of an address. The local part
// is left alone since some providers treat it as case sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// CreateUser stores a regular user. Staff and superuser flags default to
// false unless overridden by opts.
func (m *Manager) CreateUser(ctx context.Context, email, password string, opts ...Option) (*User, error) {
	base := []Option{WithStaff(false), WithSuperuser(false)}
	return m.create(ctx, email, password, append(base, opts...)...)
}

// CreateSuperuser stores a user with staff and superuser flags set. Options
// that clear either flag are rejected.
func (m *Manager) CreateSuperuser(ctx context.Context, email, password string, opts ...Option) (*User, error) {
	u := User{IsStaff: true, IsSuperuser: true}
	for _, opt := range opts {
		opt(&u)
	}
	if !u.IsStaff {
		return nil, ErrSuperuserStaff
	}
	if !u.IsSuperuser {
		return nil, ErrSuperuserFlag
	}

	base := []Option{WithStaff(true), WithSuperuser(true)}
	return m.create(ctx, email, password, append(base, opts...)...)
}

func (m *Manager) create(ctx context.Context, email, password string, opts ...Option) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:         id.New(),
		Email:      NormalizeEmail(email),
		Password:   hash,
		IsActive:   true,
		DateJoined: m.now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}

	_, err = m.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password, is_staff, is_superuser, is_active, date_joined)
		VALUES (:id, :email, :name, :password, :is_staff, :is_superuser, :is_active, :date_joined)`, u)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Get returns the user with the given id.
func (m *Manager) Get(ctx context.Context, userID string) (*User, error) {
	var u User
	err := m.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks a user up by normalized email.
func (m *Manager) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := m.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by email.
func (m *Manager) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := m.db.SelectContext(ctx, &out, `SELECT * FROM users ORDER BY email`); err != nil {
		return nil, err
	}
	return out, nil
}

// Authenticate checks credentials. Unknown emails, wrong passwords and
// inactive users all yield ErrInvalidCredentials.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := m.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !checkPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword replaces the stored hash for a user.
func (m *Manager) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := m.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return nil
}
