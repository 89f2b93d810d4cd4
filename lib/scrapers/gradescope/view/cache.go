package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// CacheWriteSkipped means the serialized courses would not fit under the
// configured size ceiling, nothing was written.
var CacheWriteSkipped = errors.New("cache write skipped")

const DefaultCacheMaxSize = 1 << 20

type cacheFile struct {
	SavedAt time.Time `json:"saved_at"`
	Courses []*Course `json:"courses"`
}

// Cache is a write-through copy of fetched courses on disk. An empty Path
// disables it.
type Cache struct {
	Path string
	// bytes, 0 means DefaultCacheMaxSize
	MaxSize uint64
}

func (c *Cache) enabled() bool {
	return c != nil && c.Path != ""
}

func (c *Cache) maxSize() uint64 {
	if c.MaxSize == 0 {
		return DefaultCacheMaxSize
	}
	return c.MaxSize
}

// Load returns the cached courses, os.ErrNotExist if there are none.
func (c *Cache) Load() ([]*Course, error) {
	if !c.enabled() {
		return nil, os.ErrNotExist
	}
	contents, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	var file cacheFile
	err = json.Unmarshal(contents, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", c.Path, err)
	}
	return file.Courses, nil
}

func (c *Cache) Save(courses []*Course, now time.Time) error {
	if !c.enabled() {
		return nil
	}

	serialized, err := json.Marshal(cacheFile{
		SavedAt: now,
		Courses: courses,
	})
	if err != nil {
		return err
	}
	if uint64(len(serialized)) > c.maxSize() {
		return fmt.Errorf(
			"%w: %s exceeds the limit of %s",
			CacheWriteSkipped,
			humanize.IBytes(uint64(len(serialized))),
			humanize.IBytes(c.maxSize()),
		)
	}

	err = os.MkdirAll(filepath.Dir(c.Path), 0700)
	if err != nil {
		return err
	}
	tmp := c.Path + ".tmp"
	err = os.WriteFile(tmp, serialized, 0600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, c.Path)
}

// Clear removes the cache file, clearing a missing cache is not an error.
func (c *Cache) Clear() error {
	if !c.enabled() {
		return nil
	}
	err := os.Remove(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
