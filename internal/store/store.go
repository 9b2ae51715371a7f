package store

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/the2dl/friendly-ad/internal/crypto"
	"github.com/the2dl/friendly-ad/internal/models"
)

// Errors returned by registry operations.
var (
	ErrDomainNotFound = errors.New("domain not found")
	ErrNoActiveDomain = errors.New("no active domain configured")
	ErrAlreadySetup   = errors.New("admin key already set")
	ErrValidation     = errors.New("validation failed")
)

const adminKeySetting = "admin_key"

// Store is the persistent registry of directory domains and the one-time
// setup secret. Passwords live in the domains table as ciphertext only;
// the injected cipher is the single component that ever sees plaintext.
type Store struct {
	db     *sql.DB
	cipher *crypto.Cipher
	logger *logrus.Logger
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string, cipher *crypto.Cipher, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection keeps the
	// driver from tripping over its own locks under concurrent requests.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, cipher: cipher, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS domains (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			server TEXT NOT NULL,
			base_dn TEXT NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			is_active INTEGER DEFAULT 1
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListDomains returns every domain row, active or not. Admin view only;
// ciphertext is not included.
func (s *Store) ListDomains(ctx context.Context) ([]*models.Domain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, server, base_dn, username, is_active FROM domains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []*models.Domain
	for rows.Next() {
		var d models.Domain
		var active int
		if err := rows.Scan(&d.ID, &d.Name, &d.Server, &d.BaseDN, &d.Username, &active); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		d.IsActive = active != 0
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

// ListActiveDomains returns id and name of every active domain, for the
// search UI's domain selector.
func (s *Store) ListActiveDomains(ctx context.Context) ([]models.DomainSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM domains WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active domains: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.DomainSummary, 0)
	for rows.Next() {
		var d models.DomainSummary
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}

// GetDomain fetches one domain row by id, including its encrypted
// credential. Returns ErrDomainNotFound when the id does not exist.
func (s *Store) GetDomain(ctx context.Context, id int64) (*models.Domain, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, server, base_dn, username, password, is_active
		 FROM domains WHERE id = ?`, id)
	return scanDomain(row)
}

// FirstActiveDomain returns the active domain with the lowest id, the
// default target when a search names no domain. Returns ErrNoActiveDomain
// when the registry is empty or every domain is deactivated.
func (s *Store) FirstActiveDomain(ctx context.Context) (*models.Domain, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, server, base_dn, username, password, is_active
		 FROM domains WHERE is_active = 1 ORDER BY id LIMIT 1`)
	d, err := scanDomain(row)
	if errors.Is(err, ErrDomainNotFound) {
		return nil, ErrNoActiveDomain
	}
	return d, err
}

func scanDomain(row *sql.Row) (*models.Domain, error) {
	var d models.Domain
	var active int
	err := row.Scan(&d.ID, &d.Name, &d.Server, &d.BaseDN, &d.Username, &d.EncryptedPassword, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan domain: %w", err)
	}
	d.IsActive = active != 0
	return &d, nil
}

// CreateDomain validates the input, encrypts the bind password and
// persists the new domain. Returns the new row id.
func (s *Store) CreateDomain(ctx context.Context, input *models.CreateDomainInput) (int64, error) {
	required := map[string]string{
		"name":     input.Name,
		"server":   input.Server,
		"base_dn":  input.BaseDN,
		"username": input.Username,
		"password": input.Password,
	}
	for field, value := range required {
		if value == "" {
			return 0, fmt.Errorf("%w: missing field %q", ErrValidation, field)
		}
	}

	encrypted, err := s.cipher.Encrypt(input.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt password: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO domains (name, server, base_dn, username, password)
		 VALUES (?, ?, ?, ?, ?)`,
		input.Name, input.Server, input.BaseDN, input.Username, encrypted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert domain: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":   id,
		"name": input.Name,
	}).Info("Domain registered")
	return id, nil
}

// DeactivateDomain soft-deletes a domain. Idempotent: deactivating an
// already-inactive or missing id is not an error.
func (s *Store) DeactivateDomain(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE domains SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate domain: %w", err)
	}

	s.logger.WithField("id", id).Info("Domain deactivated")
	return nil
}

// SetupComplete reports whether the one-time admin key has been stored.
func (s *Store) SetupComplete(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, adminKeySetting).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read setup status: %w", err)
	}
	return true, nil
}

// CompleteSetup stores the admin key. The key is written once and never
// updated; a second call fails with ErrAlreadySetup.
func (s *Store) CompleteSetup(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: missing admin key", ErrValidation)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		adminKeySetting, key)
	if err != nil {
		return fmt.Errorf("failed to store admin key: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadySetup
	}

	s.logger.Info("Initial setup completed")
	return nil
}

// CheckAdminKey compares a presented key against the stored secret in
// constant time. A missing secret always fails.
func (s *Store) CheckAdminKey(ctx context.Context, presented string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, adminKeySetting).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read admin key: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1, nil
}
