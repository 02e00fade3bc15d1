package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redmesa/solward/internal/engine"
)

// SnapshotPath returns the snapshot file name for a day within dir.
func SnapshotPath(dir string, day int) string {
	return filepath.Join(dir, fmt.Sprintf("day_%d_state.json", day))
}

// WriteSnapshot serializes the full simulation state to one file per day.
// The write goes through a temp file and rename so readers never see a
// partial snapshot.
func WriteSnapshot(dir string, st *engine.State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	path := SnapshotPath(dir, st.Day)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reconstructs a simulation state from a snapshot file.
func ReadSnapshot(path string) (*engine.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	st := engine.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return st, nil
}

// LatestSnapshot finds the most recent snapshot file in dir, or "" if none.
func LatestSnapshot(dir string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, nil
		}
		return "", 0, err
	}

	best := 0
	for _, e := range entries {
		var day int
		if _, err := fmt.Sscanf(e.Name(), "day_%d_state.json", &day); err == nil && day > best {
			best = day
		}
	}
	if best == 0 {
		return "", 0, nil
	}
	return SnapshotPath(dir, best), best, nil
}
