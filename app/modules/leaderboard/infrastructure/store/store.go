package snapshotstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// Store persists one JSON snapshot file per source. The files live inside
// the site repository (assets/data/leaderboard_sources/) and are committed,
// so they are written pretty-printed with a trailing newline to keep diffs
// reviewable.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the on-disk path for a snapshot name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Exists reports whether a snapshot file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads a snapshot from disk.
func (s *Store) Load(name string) (*leaderboarddomain.Snapshot, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	var snap leaderboarddomain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	return &snap, nil
}

// Save writes a snapshot to disk, creating the cache directory if needed.
func (s *Store) Save(name string, snap *leaderboarddomain.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	data, err := leaderboarddomain.MarshalSorted(snap, "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

// IsPlaceholder reports whether a snapshot is a seed/empty payload rather
// than real results: an epoch fetch time, an explicit placeholder note, or
// zero rows (these competitions are known to have results).
func IsPlaceholder(snap *leaderboarddomain.Snapshot) bool {
	if snap == nil {
		return true
	}
	if strings.HasPrefix(snap.FetchedAt, "1970-01-01") {
		return true
	}
	if strings.Contains(strings.ToLower(snap.Note), "placeholder") {
		return true
	}
	return len(snap.Rows) == 0
}

// FetchFunc produces a fresh snapshot from upstream.
type FetchFunc func(ctx context.Context) (*leaderboarddomain.Snapshot, error)

// LoadOrFetch returns the cached snapshot unless a refresh is requested.
// When a refresh fails but a non-placeholder cache exists, the last good
// snapshot is kept so one bad upstream day never blanks the site.
func (s *Store) LoadOrFetch(ctx context.Context, name string, refresh bool, fetch FetchFunc) (*leaderboarddomain.Snapshot, error) {
	if s.Exists(name) && !refresh {
		snap, err := s.Load(name)
		if err != nil {
			return nil, err
		}
		if IsPlaceholder(snap) {
			s.logger.Warn("cached snapshot is placeholder/empty; refresh to fetch", "snapshot", name)
		}
		return snap, nil
	}

	if !refresh && !s.Exists(name) {
		return nil, fmt.Errorf("cache missing for %s (%s); run with refresh to fetch once", name, s.Path(name))
	}

	snap, err := fetch(ctx)
	if err != nil {
		if s.Exists(name) {
			cached, loadErr := s.Load(name)
			if loadErr == nil && !IsPlaceholder(cached) {
				s.logger.Warn("refresh failed; using cached snapshot", "snapshot", name, "error", err)
				return cached, nil
			}
		}
		return nil, err
	}

	if err := s.Save(name, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
