package core

import (
	"context"
	"errors"
	"time"
)

// ErrProfileNotFound is returned by Store.Delete for an unknown profile key.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileInfo summarizes one persisted rule set.
type ProfileInfo struct {
	Key       string
	RuleCount int
	UpdatedAt time.Time
}

// Store persists rule sets keyed by profile name.
//
// Load tolerates damage: a missing profile or a malformed stored document
// yields an empty list and a nil error, so one corrupt profile can never
// take the grid down. I/O failures are real errors.
type Store interface {
	// Load reads and normalizes the rule set for key. Missing or
	// malformed content yields ([]Rule{}, nil).
	Load(ctx context.Context, key string) ([]Rule, error)
	// Save writes the full rule set for key, replacing prior contents.
	Save(ctx context.Context, key string, rules []Rule) error
	// List returns summaries of all stored profiles.
	List(ctx context.Context) ([]ProfileInfo, error)
	// Delete removes a profile. Returns ErrProfileNotFound if absent.
	Delete(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}
