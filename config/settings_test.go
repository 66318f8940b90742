package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), s)
	require.Equal(t, 1280, s.Render.Width)
	require.Equal(t, 512, s.Render.MaxSteps)
	require.Equal(t, 16, s.Field.ChunkSize)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	data := `{"render": {"width": 640, "height": 360}, "world": {"gridSize": 64}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 640, s.Render.Width)
	require.Equal(t, 360, s.Render.Height)
	require.Equal(t, 64, s.World.GridSize)
	// untouched fields keep their defaults
	require.Equal(t, 512, s.Render.MaxSteps)
	require.Equal(t, 15000, s.Server.Port)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
