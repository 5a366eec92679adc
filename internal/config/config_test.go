package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/skilltree/internal/graph"
)

// isolate points both the user config and the working directory at fresh
// temp dirs and returns the user config file path.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Chdir(t.TempDir())
	return filepath.Join(home, "skilltree", "config.toml")
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20.0, cfg.Canvas.NodeRadiusMin)
	assert.True(t, cfg.Canvas.ShowHandles)
	assert.Equal(t, InteractionConfig{
		EndpointHit:     12,
		HandleSnap:      18,
		HandleTolerance: 6,
		CollisionMargin: 20,
		EdgeHit:         8,
	}, cfg.Interaction)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 100*time.Millisecond, cfg.Settle())
	assert.Equal(t, 4, cfg.Parallel.Concurrency)
}

func TestConfigDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join("/srv", "xdg"))
	assert.Equal(t, filepath.Join("/srv", "xdg", "skilltree"), ConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "skilltree"), ConfigDir())
}

func TestSaveThenLoad(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.Parallel.Concurrency = 8
	cfg.Canvas.Style = StyleBlueprint
	cfg.Notes.VaultDir = "/notes"
	require.NoError(t, Save(cfg))

	got := Load()
	assert.Equal(t, 8, got.Parallel.Concurrency)
	assert.Equal(t, StyleBlueprint, got.Canvas.Style)
	assert.Equal(t, "/notes", got.Notes.VaultDir)
}

func TestLoadFallsBackPerField(t *testing.T) {
	path := isolate(t)
	writeFile(t, path, `
[canvas]
exp_display = "percent"
node_radius_min = 30

[history]
limit = -5
`)

	cfg := Load()
	assert.Equal(t, ExpAbsolute, cfg.Canvas.ExpDisplay, "unknown display mode")
	assert.Equal(t, 30.0, cfg.Canvas.NodeRadiusMin, "valid value kept")
	assert.Equal(t, 100, cfg.History.Limit, "negative limit")
}

func TestEnsureExistsIsIdempotent(t *testing.T) {
	path := isolate(t)

	require.NoError(t, EnsureExists())
	assert.FileExists(t, path)

	writeFile(t, path, "[history]\nlimit = 7\n")
	require.NoError(t, EnsureExists())
	assert.Equal(t, 7, Load().History.Limit, "existing file must not be replaced")
}

func TestSetAndGet(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    error
	}{
		{"canvas.node_radius_min", "32.5", nil},
		{"canvas.node_radius_min", "huge", ErrInvalidValue},
		{"canvas.exp_display", "fraction", nil},
		{"canvas.exp_display", "percent", ErrInvalidValue},
		{"canvas.colour", "red", ErrUnknownKey},
	}

	cfg := Default()
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, err := cfg.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	assert.Equal(t, 32.5, cfg.Canvas.NodeRadiusMin, "rejected input keeps the prior value")

	v, err := cfg.Get("watch.settle_ms")
	require.NoError(t, err)
	assert.Equal(t, "100", v)
}

func TestEdgeModeFollowsStyle(t *testing.T) {
	c := Default().Canvas
	assert.Equal(t, EdgeCurved, c.EdgeMode())

	c.CurvedEdges = false
	assert.Equal(t, EdgeStraight, c.EdgeMode())

	c.Style = StyleBlueprint
	assert.Equal(t, EdgeRigid, c.EdgeMode())
	assert.Equal(t, graph.ShapeSquare, c.ResolveStyle().DefaultShape)

	c.Style = "neon"
	assert.Equal(t, StyleClassic, c.ResolveStyle().Name)
}

func TestProjectFileOverlaysUserConfig(t *testing.T) {
	path := isolate(t)
	writeFile(t, path, "[parallel]\nconcurrency = 2\n")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, projectFile), "[canvas]\nstyle = \"hex\"\n")
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	t.Chdir(deep)

	want, err := filepath.EvalSymlinks(filepath.Join(root, projectFile))
	require.NoError(t, err)
	found, err := filepath.EvalSymlinks(findProjectConfig())
	require.NoError(t, err)
	assert.Equal(t, want, found)

	cfg := Load()
	assert.Equal(t, StyleHex, cfg.Canvas.Style)
	assert.Equal(t, 2, cfg.Parallel.Concurrency)
}
