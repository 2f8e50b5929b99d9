// Package store persists rule profiles. Three backends share the core.Store
// contract: SQLite (embedded, goose migrations), PostgreSQL (pgx through
// database/sql), and plain JSON files. Every backend funnels stored
// documents through the same tolerant decode — malformed content logs a
// warning and yields an empty rule set, incomplete entries are dropped —
// so a damaged profile can never take the grid down. I/O failures are
// real errors.
package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// decodeDocument normalizes one stored rules document. Empty or malformed
// content yields an empty list, never an error.
func decodeDocument(data []byte, key string, logger *slog.Logger) []core.Rule {
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Rule{}
	}

	decoded, err := rules.Decode(data)
	if err != nil {
		logger.Warn("stored rules are malformed, starting empty",
			slog.String("profile", key), slog.String("error", err.Error()))
		return []core.Rule{}
	}

	return rules.DropIncomplete(decoded)
}

// validateKey rejects profile keys that cannot name a row or a file safely.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("profile key must not be empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid profile key: %q", key)
	}
	return nil
}
