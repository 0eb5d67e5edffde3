package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Bolt {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetPut(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Get("youtube_channels", "sampsontv")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("youtube_channels", "sampsontv", "UCabc"))

	val, ok, err := c.Get("youtube_channels", "sampsontv")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "UCabc", val)
}

func TestBucketsAreIndependent(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("youtube_channels", "k", "v"))

	_, ok, err := c.Get("seen_bodybuilding", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkSeenCountsOnlyFresh(t *testing.T) {
	c := openTestCache(t)
	now := time.Date(2025, 11, 21, 10, 0, 0, 0, time.UTC)

	fresh, err := c.MarkSeen("seen_bodybuilding", []string{"a", "b", "c"}, now)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh)

	fresh, err = c.MarkSeen("seen_bodybuilding", []string{"b", "c", "d"}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, fresh)
}

func TestMarkSeenKeepsFirstTimestamp(t *testing.T) {
	c := openTestCache(t)
	first := time.Date(2025, 11, 21, 10, 0, 0, 0, time.UTC)

	_, err := c.MarkSeen("seen_shows", []string{"a"}, first)
	require.NoError(t, err)
	_, err = c.MarkSeen("seen_shows", []string{"a"}, first.Add(48*time.Hour))
	require.NoError(t, err)

	stamp, ok, err := c.Get("seen_shows", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Format(time.RFC3339), stamp)
}
