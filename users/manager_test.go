package users

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradejournal/internal/db"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	conn, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "test.db"), BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewManager(conn)
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	u, err := m.CreateUser(ctx, "Trader@Example.COM", "s3cret", WithName("Trader Joe"))
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Trader@example.com", u.Email)
	assert.Equal(t, "Trader Joe", u.Name)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, "s3cret", u.Password)
	assert.True(t, u.HasUsablePassword())

	got, err := m.GetByEmail(ctx, "Trader@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Trader@example.com", got.String())
}

func TestCreateUserWithoutEmail(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	_, err := m.CreateUser(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateUser(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	_, err = m.CreateUser(ctx, "a@EXAMPLE.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateUserWithoutPassword(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	u, err := m.CreateUser(ctx, "nopw@example.com", "")
	require.NoError(t, err)
	assert.False(t, u.HasUsablePassword())

	_, err = m.Authenticate(ctx, "nopw@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, m.SetPassword(ctx, u.ID, "now-set"))
	got, err := m.Authenticate(ctx, "nopw@example.com", "now-set")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestCreateSuperuser(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	u, err := m.CreateSuperuser(ctx, "admin@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)

	_, err = m.CreateSuperuser(ctx, "x@example.com", "pw", WithStaff(false))
	assert.ErrorIs(t, err, ErrSuperuserStaff)

	_, err = m.CreateSuperuser(ctx, "y@example.com", "pw", WithSuperuser(false))
	assert.ErrorIs(t, err, ErrSuperuserFlag)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateUser(ctx, "a@example.com", "right")
	require.NoError(t, err)
	_, err = m.CreateUser(ctx, "off@example.com", "right", WithActive(false))
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "a@example.com", "right", false},
		{"domain case", "a@Example.com", "right", false},
		{"wrong password", "a@example.com", "wrong", true},
		{"unknown email", "nobody@example.com", "right", true},
		{"inactive", "off@example.com", "right", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetAndList(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	b, err := m.CreateUser(ctx, "b@example.com", "pw")
	require.NoError(t, err)
	_, err = m.CreateUser(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	got, err := m.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@example.com", all[0].Email)
	assert.Equal(t, "b@example.com", all[1].Email)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "John.Doe@example.com", NormalizeEmail(" John.Doe@EXAMPLE.com "))
	assert.Equal(t, "no-at-sign", NormalizeEmail("no-at-sign"))
}

