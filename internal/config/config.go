// Package config loads the metaviz settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"metaviz/internal/interaction"
)

var validate = validator.New()

// Config holds metaviz configuration.
type Config struct {
	Editor  EditorConfig      `toml:"editor"`
	Pointer PointerConfig     `toml:"pointer"`
	Grid    GridConfig        `toml:"grid"`
	Zoom    ZoomConfig        `toml:"zoom"`
	Log     LogConfig         `toml:"log"`
	Keys    map[string]string `toml:"keys"`
}

// EditorConfig controls file handling and prompts.
type EditorConfig struct {
	SaveDirectory string `toml:"save_directory"`
	Confirmations bool   `toml:"confirmations"`
	Author        string `toml:"author"`
}

// PointerConfig controls how drags and clicks are recognised.
type PointerConfig struct {
	Primary       string  `toml:"primary" validate:"oneof=mouse touchpad"`
	DragThreshold float64 `toml:"drag_threshold" validate:"gte=0,lte=64"`
	DoubleClickMS int     `toml:"double_click_ms" validate:"gte=50,lte=2000"`
}

type GridConfig struct {
	Enabled bool    `toml:"enabled"`
	Width   float64 `toml:"width" validate:"gt=0,lte=256"`
}

type ZoomConfig struct {
	Min  float64 `toml:"min" validate:"gt=0,ltefield=Max"`
	Max  float64 `toml:"max" validate:"gt=0"`
	Step float64 `toml:"step" validate:"gt=1,lte=4"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	// File receives the editor log; the terminal is owned by the editor while it runs.
	File string `toml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Editor:  EditorConfig{Confirmations: true},
		Pointer: PointerConfig{Primary: interaction.PrimaryMouse, DragThreshold: 2, DoubleClickMS: 300},
		Grid:    GridConfig{Enabled: false, Width: 16},
		Zoom:    ZoomConfig{Min: 0.1, Max: 4, Step: 1.25},
		Log:     LogConfig{Level: "info"},
		Keys:    map[string]string{},
	}
}

// Dir returns the metaviz config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "metaviz")
}

// Path returns the location of the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Editor.SaveDirectory = expandHome(cfg.Editor.SaveDirectory)
	cfg.Log.File = expandHome(cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	return SaveFile(Path(), cfg)
}

func SaveFile(path string, cfg *Config) error {
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

// Validate checks field ranges and that every key binding names a known command.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if err := interaction.DefaultKeymap().Apply(c.Keys); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var msgs []string
	for _, e := range verrs {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "ltefield":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s", field, strings.ToLower(e.Param())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, e.Tag(), e.Param()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Settings returns the pointer settings the config describes.
func (c *Config) Settings() interaction.Settings {
	s := interaction.DefaultSettings()
	s.Primary = c.Pointer.Primary
	s.Threshold = c.Pointer.DragThreshold
	s.DoubleClick = time.Duration(c.Pointer.DoubleClickMS) * time.Millisecond
	if c.Grid.Enabled {
		s.Grid = c.Grid.Width
	}
	return s
}

// Keymap returns the default bindings with the configured overrides applied.
func (c *Config) Keymap() (*interaction.Keymap, error) {
	km := interaction.DefaultKeymap()
	if err := km.Apply(c.Keys); err != nil {
		return nil, err
	}
	return km, nil
}

// SavePath resolves a board file name against the save directory. Absolute names and
// names with a directory part are used as given.
func (c *Config) SavePath(filename string) string {
	if c.Editor.SaveDirectory == "" || filepath.IsAbs(filename) || filepath.Base(filename) != filename {
		return filename
	}
	_ = os.MkdirAll(c.Editor.SaveDirectory, 0o755)
	return filepath.Join(c.Editor.SaveDirectory, filename)
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
