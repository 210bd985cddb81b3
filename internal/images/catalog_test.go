package images

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByPosition(t *testing.T) {
	t.Parallel()

	names := []string{"a.jpg", "b.jpg", "c.jpg"}
	tests := []struct {
		i    int
		want string
	}{
		{0, "a.jpg"},
		{1, "b.jpg"},
		{2, "c.jpg"},
		{3, "a.jpg"},
		{7, "b.jpg"},
	}

	for _, tt := range tests {
		got, ok := ByPosition(names, tt.i)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	_, ok := ByPosition(nil, 0)
	assert.False(t, ok)
}

func TestByStationIsStable(t *testing.T) {
	t.Parallel()

	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	first, ok := ByStation(names, "TPE500101001")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		got, _ := ByStation(names, "TPE500101001")
		assert.Equal(t, first, got)
	}

	// Different stations spread across the catalog.
	seen := map[string]bool{}
	for _, uid := range []string{"TPE1", "TPE2", "TPE3", "TPE4", "TPE5", "TPE6", "TPE7", "TPE8"} {
		got, _ := ByStation(names, uid)
		seen[got] = true
	}
	assert.Greater(t, len(seen), 1)

	_, ok = ByStation(nil, "TPE1")
	assert.False(t, ok)
}

func TestLocalCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", "c d.jpeg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	c := NewLocalCatalog(dir)
	names, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.JPG", "b.png", "c d.jpeg"}, names)

	assert.Equal(t, "https://bike.example.com/static/image/c%20d.jpeg", c.URL("https://bike.example.com/", "c d.jpeg"))
}

func TestLocalCatalog_MissingDirectory(t *testing.T) {
	t.Parallel()

	c := NewLocalCatalog(filepath.Join(t.TempDir(), "missing"))
	names, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
