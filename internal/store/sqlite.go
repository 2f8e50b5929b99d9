package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// SQLiteStore implements core.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	// WAL mode for better concurrent access; busy timeout so a second
	// process backs off instead of failing immediately.
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads and normalizes the rule set for key. A missing profile or a
// malformed stored document yields an empty list and a nil error.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]core.Rule, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE key = ?`, key,
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
func (s *SQLiteStore) Save(ctx context.Context, key string, ruleList []core.Rule) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if err := validateKey(key); err != nil {
		return err
	}

	document, err := rules.Export(ruleList)
	if err != nil {
		return fmt.Errorf("failed to encode profile %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (key, document, rule_count, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   document = excluded.document,
		   rule_count = excluded.rule_count,
		   updated_at = excluded.updated_at`,
		key, string(document), len(ruleList), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", key, err)
	}

	return nil
}

// List returns summaries of all stored profiles, ordered by key.
func (s *SQLiteStore) List(ctx context.Context) ([]core.ProfileInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
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
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", key, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", core.ErrProfileNotFound, key)
	}

	return nil
}
