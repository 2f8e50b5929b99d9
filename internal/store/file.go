package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridstack-labs/gridstyle/pkg/core"
	"github.com/gridstack-labs/gridstyle/pkg/rules"
)

// FileStore implements core.Store with one JSON document per profile,
// stored as <dir>/<key>.json. This is the zero-infrastructure backend the
// CLI defaults to.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
// If logger is nil, a discard logger is used.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory profiles are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) profilePath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads and normalizes the rule set for key. A missing profile or a
// malformed stored document yields an empty list and a nil error.
func (s *FileStore) Load(_ context.Context, key string) ([]core.Rule, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.profilePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Rule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %q: %w", key, err)
	}

	return decodeDocument(data, key, s.logger), nil
}

// Save writes the full rule set for key, replacing prior contents.
func (s *FileStore) Save(_ context.Context, key string, ruleList []core.Rule) error {
	if err := validateKey(key); err != nil {
		return err
	}

	document, err := rules.Export(ruleList)
	if err != nil {
		return fmt.Errorf("failed to encode profile %q: %w", key, err)
	}

	if err := os.WriteFile(s.profilePath(key), document, 0o644); err != nil {
		return fmt.Errorf("failed to write profile %q: %w", key, err)
	}

	return nil
}

// List returns summaries of all stored profiles, ordered by key.
func (s *FileStore) List(ctx context.Context) ([]core.ProfileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var infos []core.ProfileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ".json")
		if validateKey(key) != nil {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat profile %q: %w", key, err)
		}

		ruleList, err := s.Load(ctx, key)
		if err != nil {
			return nil, err
		}

		infos = append(infos, core.ProfileInfo{
			Key:       key,
			RuleCount: len(ruleList),
			UpdatedAt: fi.ModTime(),
		})
	}

	return infos, nil
}

// Delete removes a profile. Returns core.ErrProfileNotFound if absent.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(s.profilePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrProfileNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", key, err)
	}

	return nil
}

// Close releases no resources for a file store.
func (s *FileStore) Close() error {
	return nil
}
