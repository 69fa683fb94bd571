package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	PointID string    `json:"point_id"`
	Values  []float64 `json:"values"`
	Class   int       `json:"class"`
}

func TestFileCacheRoundtrip(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	fc := NewFileCache[[]samplePayload]("samples")

	key := fc.GenerateKey("135/41", 2024, 1, 42)
	_, ok := fc.Get(key)
	assert.False(t, ok)

	stored := []samplePayload{
		{PointID: "p1", Values: []float64{0.1, 0.2}, Class: 0},
		{PointID: "p2", Values: []float64{0.3, 0.4}, Class: 4},
	}
	require.NoError(t, fc.Set(key, stored))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestGenerateKeyDependsOnParams(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	fc := NewFileCache[int]("keys")

	a := fc.GenerateKey("135/41", 2024, 1)
	b := fc.GenerateKey("135/41", 2024, 2)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, fc.GenerateKey("135/41", 2024, 1))
}

func TestCorruptedEntryIsMiss(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ROOT_PATH", root)
	fc := NewFileCache[samplePayload]("samples")

	key := fc.GenerateKey("corrupt")
	require.NoError(t, fc.Set(key, samplePayload{PointID: "p1", Class: 2}))

	cacheFile := filepath.Join(root, "data", "samples", key+".json")
	raw, err := os.ReadFile(cacheFile)
	require.NoError(t, err)

	var entry CacheEntry[samplePayload]
	require.NoError(t, json.Unmarshal(raw, &entry))
	entry.Data.Class = 5
	tampered, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cacheFile, tampered, 0644))

	_, ok := fc.Get(key)
	assert.False(t, ok)
}

func TestUnreadableEntryIsMiss(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ROOT_PATH", root)
	fc := NewFileCache[int]("samples")

	key := fc.GenerateKey("garbage")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "samples"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "samples", key+".json"), []byte("not json"), 0644))

	_, ok := fc.Get(key)
	assert.False(t, ok)
}
