// Package store persists indexer configs, settings, credentials, and
// health bookkeeping in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spindrift-media/spindrift/internal/crypto"
	"github.com/spindrift-media/spindrift/internal/indexer"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store implements indexer.Store over a SQLite connection.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a store.
func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "indexer-store").Logger(),
	}
}

// CreateUser inserts a user with a fresh credential encryption key and
// returns the user ID.
func (s *Store) CreateUser(ctx context.Context, username string) (int64, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return 0, fmt.Errorf("failed to generate encryption key: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, encryption_key) VALUES (?, ?)`,
		username, key)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return result.LastInsertId()
}

// EnsureUser returns the ID of the named user, creating the user on
// first run.
func (s *Store) EnsureUser(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	return s.CreateUser(ctx, username)
}

// EncryptionKey returns the user's base64-encoded credential key.
func (s *Store) EncryptionKey(ctx context.Context, userID int64) (string, error) {
	var key string
	err := s.db.QueryRowContext(ctx,
		`SELECT encryption_key FROM users WHERE id = ?`, userID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load encryption key: %w", err)
	}
	return key, nil
}

// Create inserts an indexer config with its settings and credentials.
// Credential values are expected to be encrypted already.
func (s *Store) Create(ctx context.Context, cfg indexer.Config) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexers (id, user_id, type, definition_id, name, enabled, base_url, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID.String(), cfg.UserID, cfg.Type, cfg.DefinitionID, cfg.Name, cfg.Enabled, cfg.BaseURL, cfg.Priority)
	if err != nil {
		return fmt.Errorf("failed to insert indexer: %w", err)
	}

	if err := replacePairs(ctx, tx, "indexer_settings", cfg.ID, cfg.Settings); err != nil {
		return err
	}
	if err := replacePairs(ctx, tx, "indexer_credentials", cfg.ID, cfg.Credentials); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites an indexer config in place, replacing its settings and
// credentials.
func (s *Store) Update(ctx context.Context, cfg indexer.Config) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE indexers
		 SET type = ?, definition_id = ?, name = ?, enabled = ?, base_url = ?, priority = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		cfg.Type, cfg.DefinitionID, cfg.Name, cfg.Enabled, cfg.BaseURL, cfg.Priority, cfg.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update indexer: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}

	for _, table := range []string{"indexer_settings", "indexer_credentials"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE indexer_id = ?", cfg.ID.String()); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := replacePairs(ctx, tx, "indexer_settings", cfg.ID, cfg.Settings); err != nil {
		return err
	}
	if err := replacePairs(ctx, tx, "indexer_credentials", cfg.ID, cfg.Credentials); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes an indexer and its dependent rows.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM indexers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete indexer: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled flips an indexer's enabled flag.
func (s *Store) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE indexers SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		enabled, id.String())
	if err != nil {
		return fmt.Errorf("failed to update indexer: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one indexer config with settings and credentials attached.
// Credential values stay encrypted.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*indexer.Config, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, definition_id, name, enabled, base_url, priority
		 FROM indexers WHERE id = ?`, id.String())

	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachPairs(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListByUser returns every indexer config for a user.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]indexer.Config, error) {
	return s.list(ctx,
		`SELECT id, user_id, type, definition_id, name, enabled, base_url, priority
		 FROM indexers WHERE user_id = ? ORDER BY priority, name`, userID)
}

// ListEnabled returns the enabled indexer configs for a user.
func (s *Store) ListEnabled(ctx context.Context, userID int64) ([]indexer.Config, error) {
	return s.list(ctx,
		`SELECT id, user_id, type, definition_id, name, enabled, base_url, priority
		 FROM indexers WHERE user_id = ? AND enabled = 1 ORDER BY priority, name`, userID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]indexer.Config, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexers: %w", err)
	}
	defer rows.Close()

	configs := make([]indexer.Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indexers: %w", err)
	}

	for i := range configs {
		if err := s.attachPairs(ctx, &configs[i]); err != nil {
			return nil, err
		}
	}
	return configs, nil
}

// RecordSuccess stamps the last successful operation and clears the error.
func (s *Store) RecordSuccess(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO indexer_status (indexer_id, last_error, last_error_at, last_success_at)
		 VALUES (?, '', NULL, ?)
		 ON CONFLICT(indexer_id) DO UPDATE SET last_error = '', last_error_at = NULL, last_success_at = excluded.last_success_at`,
		id.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return nil
}

// RecordError stores the most recent failure for an indexer.
func (s *Store) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO indexer_status (indexer_id, last_error, last_error_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(indexer_id) DO UPDATE SET last_error = excluded.last_error, last_error_at = excluded.last_error_at`,
		id.String(), message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

// Status is the health snapshot of one indexer.
type Status struct {
	IndexerID     uuid.UUID  `json:"indexerId"`
	LastError     string     `json:"lastError,omitempty"`
	LastErrorAt   *time.Time `json:"lastErrorAt,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
}

// GetStatus returns the health snapshot for an indexer. An indexer with no
// recorded operations yields a zero status.
func (s *Store) GetStatus(ctx context.Context, id uuid.UUID) (*Status, error) {
	status := &Status{IndexerID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT last_error, last_error_at, last_success_at FROM indexer_status WHERE indexer_id = ?`,
		id.String()).Scan(&status.LastError, &status.LastErrorAt, &status.LastSuccessAt)
	if errors.Is(err, sql.ErrNoRows) {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load indexer status: %w", err)
	}
	return status, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*indexer.Config, error) {
	var cfg indexer.Config
	var id string
	if err := row.Scan(&id, &cfg.UserID, &cfg.Type, &cfg.DefinitionID, &cfg.Name, &cfg.Enabled, &cfg.BaseURL, &cfg.Priority); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan indexer: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid indexer id %q: %w", id, err)
	}
	cfg.ID = parsed
	return &cfg, nil
}

func (s *Store) attachPairs(ctx context.Context, cfg *indexer.Config) error {
	settings, err := s.loadPairs(ctx, "indexer_settings", cfg.ID)
	if err != nil {
		return err
	}
	credentials, err := s.loadPairs(ctx, "indexer_credentials", cfg.ID)
	if err != nil {
		return err
	}
	cfg.Settings = settings
	cfg.Credentials = credentials
	return nil
}

func (s *Store) loadPairs(ctx context.Context, table string, id uuid.UUID) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM "+table+" WHERE indexer_id = ?", id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		pairs[name] = value
	}
	return pairs, rows.Err()
}

func replacePairs(ctx context.Context, tx *sql.Tx, table string, id uuid.UUID, pairs map[string]string) error {
	for name, value := range pairs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (indexer_id, name, value) VALUES (?, ?, ?)",
			id.String(), name, value)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}
