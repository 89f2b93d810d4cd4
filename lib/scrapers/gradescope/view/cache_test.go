package view

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	cache := &Cache{Path: filepath.Join(t.TempDir(), "nested", "cache.json")}

	_, err := cache.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	courses := []*Course{
		{
			Term:            "Fall 2023",
			Name:            "CS 61A",
			Path:            "/courses/101",
			AssignmentCount: 1,
			LastUpdate:      &now,
			Assignments:     expectedAssignments()[:1],
		},
	}
	err = cache.Save(courses, now)
	require.NoError(t, err)

	loaded, err := cache.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(courses, loaded); diff != "" {
		t.Fatal(diff)
	}

	err = cache.Clear()
	require.NoError(t, err)
	_, err = cache.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	// clearing twice is fine
	require.NoError(t, cache.Clear())
}

func TestCacheSizeCeiling(t *testing.T) {
	cache := &Cache{
		Path:    filepath.Join(t.TempDir(), "cache.json"),
		MaxSize: 256,
	}
	now := time.Now()

	small := []*Course{{Name: "CS 70"}}
	require.NoError(t, cache.Save(small, now))

	large := []*Course{{Name: "CS 61A", FullName: strings.Repeat("x", 1024)}}
	err := cache.Save(large, now)
	require.ErrorIs(t, err, CacheWriteSkipped)
	require.Contains(t, err.Error(), "256 B")

	// the previous contents survive a skipped write
	loaded, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "CS 70", loaded[0].Name)
}

func TestCacheDisabled(t *testing.T) {
	var cache *Cache
	_, err := cache.Load()
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, cache.Save([]*Course{{Name: "x"}}, time.Now()))
	require.NoError(t, cache.Clear())

	empty := &Cache{}
	require.NoError(t, empty.Save(nil, time.Now()))
}

func TestCacheCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	cache := &Cache{Path: path}
	_, err := cache.Load()
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}
