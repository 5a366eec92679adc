package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/skilltree/internal/graph"
)

var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// Config holds skilltree configuration.
type Config struct {
	Canvas      CanvasConfig      `toml:"canvas"`
	Notes       NotesConfig       `toml:"notes"`
	Interaction InteractionConfig `toml:"interaction"`
	Watch       WatchConfig       `toml:"watch"`
	History     HistoryConfig     `toml:"history"`
	Log         LogConfig         `toml:"log"`
	Parallel    ParallelConfig    `toml:"parallel"`
}

// CanvasConfig controls how the tree is drawn.
type CanvasConfig struct {
	NodeRadiusMin float64 `toml:"node_radius_min"`
	ShowHandles   bool    `toml:"show_handles"`
	CurvedEdges   bool    `toml:"curved_edges"`
	ExpDisplay    string  `toml:"exp_display"` // "absolute", "fraction"
	Style         string  `toml:"style"`       // "classic", "hex", "blueprint"
}

// NotesConfig locates linked documents.
type NotesConfig struct {
	VaultDir    string `toml:"vault_dir"`
	DefaultPath string `toml:"default_path"`
}

// InteractionConfig holds pointer tolerances in screen pixels.
type InteractionConfig struct {
	EndpointHit     float64 `toml:"endpoint_hit"`
	HandleSnap      float64 `toml:"handle_snap"`
	HandleTolerance float64 `toml:"handle_tolerance"`
	CollisionMargin float64 `toml:"collision_margin"`
	EdgeHit         float64 `toml:"edge_hit"`
}

// WatchConfig controls document change notifications.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
	SettleMS   int `toml:"settle_ms"`
}

type HistoryConfig struct {
	Limit int `toml:"limit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ParallelConfig bounds concurrent document reads.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			NodeRadiusMin: 20,
			ShowHandles:   true,
			CurvedEdges:   true,
			ExpDisplay:    ExpAbsolute,
			Style:         StyleClassic,
		},
		Notes: NotesConfig{VaultDir: ".", DefaultPath: "skills"},
		Interaction: InteractionConfig{
			EndpointHit:     12,
			HandleSnap:      18,
			HandleTolerance: 6,
			CollisionMargin: 20,
			EdgeHit:         8,
		},
		Watch:    WatchConfig{DebounceMS: 150, SettleMS: 100},
		History:  HistoryConfig{Limit: 100},
		Log:      LogConfig{Level: "info", Format: "text"},
		Parallel: ParallelConfig{Concurrency: 4},
	}
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func (c *Config) Settle() time.Duration {
	return time.Duration(c.Watch.SettleMS) * time.Millisecond
}

// ConfigDir returns the skilltree config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "skilltree")
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// projectFile is looked up from the working directory towards the root and
// overlays the user config.
const projectFile = ".skilltree.toml"

func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, projectFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the user config and any project config above the working
// directory. Missing files leave defaults; values that fail validation fall
// back to their defaults.
func Load() *Config {
	cfg := Default()
	for _, path := range []string{configPath(), findProjectConfig()} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		next := *cfg
		if _, err := toml.Decode(string(data), &next); err != nil {
			continue
		}
		*cfg = next
	}
	cfg.sanitize()
	return cfg
}

// sanitize resets every field whose current value Set would reject.
func (c *Config) sanitize() {
	def := Default()
	for _, k := range Keys() {
		f := fields[k]
		if err := f.set(c, f.get(c)); err != nil {
			_ = f.set(c, f.get(def))
		}
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	path := configPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(Default())
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func floatField(p func(*Config) *float64, min float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < min {
				return fmt.Errorf("%w: %q (want a number >= %g)", ErrInvalidValue, v, min)
			}
			*p(c) = f
			return nil
		},
	}
}

func intField(p func(*Config) *int, min int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < min {
				return fmt.Errorf("%w: %q (want an integer >= %d)", ErrInvalidValue, v, min)
			}
			*p(c) = n
			return nil
		},
	}
}

func boolField(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %q (want true or false)", ErrInvalidValue, v)
			}
			*p(c) = b
			return nil
		},
	}
}

func stringField(p func(*Config) *string, allowed ...string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error {
			if len(allowed) > 0 {
				ok := false
				for _, a := range allowed {
					if v == a {
						ok = true
						break
					}
				}
				if !ok {
					return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidValue, v, allowed)
				}
			}
			*p(c) = v
			return nil
		},
	}
}

var fields = map[string]field{
	"canvas.node_radius_min": floatField(func(c *Config) *float64 { return &c.Canvas.NodeRadiusMin }, 1),
	"canvas.show_handles":    boolField(func(c *Config) *bool { return &c.Canvas.ShowHandles }),
	"canvas.curved_edges":    boolField(func(c *Config) *bool { return &c.Canvas.CurvedEdges }),
	"canvas.exp_display":     stringField(func(c *Config) *string { return &c.Canvas.ExpDisplay }, ExpAbsolute, ExpFraction),
	"canvas.style":           stringField(func(c *Config) *string { return &c.Canvas.Style }, StyleClassic, StyleHex, StyleBlueprint),

	"notes.vault_dir":    stringField(func(c *Config) *string { return &c.Notes.VaultDir }),
	"notes.default_path": stringField(func(c *Config) *string { return &c.Notes.DefaultPath }),

	"interaction.endpoint_hit":     floatField(func(c *Config) *float64 { return &c.Interaction.EndpointHit }, 0),
	"interaction.handle_snap":      floatField(func(c *Config) *float64 { return &c.Interaction.HandleSnap }, 0),
	"interaction.handle_tolerance": floatField(func(c *Config) *float64 { return &c.Interaction.HandleTolerance }, 0),
	"interaction.collision_margin": floatField(func(c *Config) *float64 { return &c.Interaction.CollisionMargin }, 0),
	"interaction.edge_hit":         floatField(func(c *Config) *float64 { return &c.Interaction.EdgeHit }, 0),

	"watch.debounce_ms": intField(func(c *Config) *int { return &c.Watch.DebounceMS }, 0),
	"watch.settle_ms":   intField(func(c *Config) *int { return &c.Watch.SettleMS }, 0),

	"history.limit": intField(func(c *Config) *int { return &c.History.Limit }, 1),

	"log.level":  stringField(func(c *Config) *string { return &c.Log.Level }, "debug", "info", "warn", "error"),
	"log.format": stringField(func(c *Config) *string { return &c.Log.Format }, "text", "json"),

	"parallel.concurrency": intField(func(c *Config) *int { return &c.Parallel.Concurrency }, 1),
}

// Keys lists every settable key in dotted form.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a dotted key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set parses and assigns a dotted key. On error the previous value is kept.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.set(c, value)
}

// Exp display modes.
const (
	ExpAbsolute = "absolute"
	ExpFraction = "fraction"
)

// Visual styles.
const (
	StyleClassic   = "classic"
	StyleHex       = "hex"
	StyleBlueprint = "blueprint"
)

// EdgeMode is how edges are routed.
type EdgeMode int

const (
	EdgeCurved EdgeMode = iota
	EdgeStraight
	EdgeRigid
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeStraight:
		return "straight"
	case EdgeRigid:
		return "rigid"
	default:
		return "curved"
	}
}

// Style is what a visual style key fixes.
type Style struct {
	Name         string
	DefaultShape graph.Shape
	ForceRigid   bool
}

var styles = map[string]Style{
	StyleClassic:   {Name: StyleClassic, DefaultShape: graph.ShapeCircle},
	StyleHex:       {Name: StyleHex, DefaultShape: graph.ShapeHexagon},
	StyleBlueprint: {Name: StyleBlueprint, DefaultShape: graph.ShapeSquare, ForceRigid: true},
}

// ResolveStyle returns the configured style, defaulting to classic.
func (c *CanvasConfig) ResolveStyle() Style {
	if s, ok := styles[c.Style]; ok {
		return s
	}
	return styles[StyleClassic]
}

// EdgeMode combines the style with the curved-edges toggle.
func (c *CanvasConfig) EdgeMode() EdgeMode {
	switch {
	case c.ResolveStyle().ForceRigid:
		return EdgeRigid
	case c.CurvedEdges:
		return EdgeCurved
	default:
		return EdgeStraight
	}
}
