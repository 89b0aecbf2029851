package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Watchlist is the locally pinned set of instrument ids the watch view and
// predict shortcuts operate on. It lives under ~/.simctl and survives
// server restarts; ids that no longer exist in the session are simply
// skipped by the commands that read it.

func baseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".simctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func watchlistPath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watchlist.json"), nil
}

func LoadWatchlist() ([]string, error) {
	path, err := watchlistPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func SaveWatchlist(ids []string) error {
	path, err := watchlistPath()
	if err != nil {
		return err
	}
	sort.Strings(ids)
	raw, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// WatchAdd pins an id; adding an already-pinned id is a no-op.
func WatchAdd(id string) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	ids, err := LoadWatchlist()
	if err != nil {
		return err
	}
	for _, have := range ids {
		if have == id {
			return nil
		}
	}
	return SaveWatchlist(append(ids, id))
}

// WatchRemove unpins an id; removing an unknown id is a no-op.
func WatchRemove(id string) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	ids, err := LoadWatchlist()
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return SaveWatchlist(out)
}
