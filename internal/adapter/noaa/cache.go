package noaa

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores the last successfully fetched .dly text per station so a run
// can proceed on stale data when NOAA is unreachable.
type Cache struct {
	dir string
}

// NewCache creates a file-backed cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path(stationID string) string {
	return filepath.Join(c.dir, stationID+".dly")
}

// Load returns the cached raw text for the station. The second return value
// is false when no cached copy exists.
func (c *Cache) Load(stationID string) (string, bool, error) {
	data, err := os.ReadFile(c.path(stationID))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached station file: %w", err)
	}
	return string(data), true, nil
}

// Save atomically replaces the cached copy for the station: the text is
// written to a temp file in the cache directory and renamed into place, so a
// crashed run never leaves a truncated cache behind.
func (c *Cache) Save(stationID, text string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, stationID+".dly.tmp*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(stationID)); err != nil {
		return fmt.Errorf("replace cached station file: %w", err)
	}
	return nil
}
