package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Config holds database connection settings.
type Config struct {
	Path        string        `json:"path" yaml:"path"`
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Path:        "./journal.sqlite",
		BusyTimeout: 5 * time.Second,
	}
}

// DSN builds the go-sqlite3 connection string. Foreign keys are enforced and
// every transaction takes the write lock up front so two writers never read
// the same ledger head.
func (c Config) DSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=immediate&_busy_timeout=%d",
		c.Path, c.BusyTimeout.Milliseconds())
}

// Open connects to the SQLite database and applies Schema.
func Open(cfg Config) (*sqlx.DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sqlx.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err comes from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
