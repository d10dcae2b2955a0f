package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("https://api.example/v1/meetings?year=2023")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("https://api.example/v1/meetings?year=2023", []byte(`[{"meeting_key":1}]`)))

	body, ok, err := c.Get("https://api.example/v1/meetings?year=2023")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"meeting_key":1}]`, string(body))

	require.NoError(t, c.Put("https://api.example/v1/meetings?year=2023", []byte(`[]`)))
	body, _, err = c.Get("https://api.example/v1/meetings?year=2023")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(body))

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_TTL(t *testing.T) {
	c, err := Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer c.Close()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put("k", []byte("v")))

	now = now.Add(30 * time.Minute)
	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok, "entry within ttl must be served")

	now = now.Add(time.Hour)
	_, ok, err = c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must be reported as missing")
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := Open(dir, 0)
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("v")))
	require.NoError(t, c.Close())

	_, err = os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)

	reopened, err := Open(dir, 0)
	require.NoError(t, err)
	defer reopened.Close()

	body, ok, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(body))
}

func TestCache_IndependentDirectories(t *testing.T) {
	a, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put("k", []byte("a")))

	_, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
