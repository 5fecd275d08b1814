package coins

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store persists the coin catalog as a flat JSON snapshot. The snapshot is
// the fallback when a fresh fetch fails.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save overwrites the snapshot. Written to a temp file first and renamed so
// a crash never leaves a half-written snapshot behind.
func (s *Store) Save(coins []Coin) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(coins, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coins: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	slog.Info("saved coin snapshot", "path", s.path, "count", len(coins))
	return nil
}

// Load reads the last snapshot. Returns nil with no error when no snapshot
// exists yet.
func (s *Store) Load() ([]Coin, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("coin snapshot not found", "path", s.path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var coins []Coin
	if err := json.Unmarshal(data, &coins); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	slog.Info("loaded coin snapshot", "path", s.path, "count", len(coins))
	return coins, nil
}
