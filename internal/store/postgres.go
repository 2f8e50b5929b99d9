package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS profiles (
    key TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    rule_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore implements core.Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func NewPostgresStore(logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresStore{logger: logger}
}

// Connect establishes a connection to PostgreSQL.
func (s *PostgresStore) Connect(ctx context.Context, dsn string) error {
	s.logger.Debug("connecting to postgres")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.db = db
	return nil
}

// InitSchema creates the profiles table if it does not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the PostgreSQL connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads and normalizes the rule set for key. A missing profile or a
// malformed stored document yields an empty list and a nil error.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]core.Rule, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE key = $1`, key,
	).Scan(&document)

	if errors.Is(err, sql.ErrNoRows) {
		return []core.Rule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", key, err)
	}

	return decodeDocument([]byte(document), key, s.logger), nil
}

// Save writes the full rule set for key, replacing prior contents.
func (s *PostgresStore) Save(ctx context.Context, key string, ruleList []core.Rule) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := validateKey(key); err != nil {
		return err
	}

	document, err := rules.Export(ruleList)
	if err != nil {
		return fmt.Errorf("failed to encode profile %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (key, document, rule_count, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET
		   document = EXCLUDED.document,
		   rule_count = EXCLUDED.rule_count,
		   updated_at = EXCLUDED.updated_at`,
		key, string(document), len(ruleList), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", key, err)
	}

	return nil
}

// List returns summaries of all stored profiles, ordered by key.
func (s *PostgresStore) List(ctx context.Context) ([]core.ProfileInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, rule_count, updated_at FROM profiles ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []core.ProfileInfo
	for rows.Next() {
		var info core.ProfileInfo
		if err := rows.Scan(&info.Key, &info.RuleCount, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return infos, nil
}

// Delete removes a profile. Returns core.ErrProfileNotFound if absent.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", key, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrProfileNotFound, key)
	}

	return nil
}
