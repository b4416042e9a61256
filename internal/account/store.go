package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Account is one mailbox identity in the directory. The mail transport
// core never reads this store; it exists to back the admin CRUD surface.
type Account struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	QuotaMB   int       `db:"quota_mb" json:"quota_mb"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Store persists mailbox identities in a local SQLite database.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// List retrieves all accounts, newest first.
func (s *Store) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, email, full_name, quota_mb, is_active, created_at, updated_at
		FROM mail_accounts
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acc Account
		var activeInt int
		err := rows.Scan(
			&acc.ID, &acc.Email, &acc.FullName, &acc.QuotaMB,
			&activeInt, &acc.CreatedAt, &acc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		acc.IsActive = activeInt != 0
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Create inserts a new account and returns its assigned id. The secret
// is stored as a SHA-256 hex digest.
func (s *Store) Create(
	ctx context.Context,
	email, password, fullName string,
	quotaMB int,
) (int64, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return 0, fmt.Errorf("email and password must not be empty")
	}
	if quotaMB <= 0 {
		quotaMB = 1024
	}
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO mail_accounts (email, password_hash, full_name, quota_mb, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		email, HashPassword(password), fullName, quotaMB, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("creating account %s: %w", email, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading account id: %w", err)
	}
	return id, nil
}

// Update changes an account's display name, quota and activation state.
func (s *Store) Update(
	ctx context.Context,
	id int64,
	fullName string,
	quotaMB int,
	isActive bool,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE mail_accounts SET
			full_name = ?, quota_mb = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		fullName, quotaMB, boolToInt(isActive), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating account %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// Delete removes an account.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM mail_accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// HashPassword returns the hex SHA-256 digest stored for an account
// secret. The live mail protocols still need the plaintext, so this
// hash only guards the directory at rest.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
