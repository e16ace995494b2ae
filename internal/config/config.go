// Package config loads hexkit settings from ~/.hexkit/config.yaml with
// HEXKIT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

const (
	// DefaultDir is the per-user directory under $HOME.
	DefaultDir = ".hexkit"
	// FileName is the config file inside DefaultDir.
	FileName = "config.yaml"
	// PathEnv names a config file that replaces the default location.
	PathEnv = "HEXKIT_CONFIG"
)

// Config is the on-disk configuration.
type Config struct {
	View    ViewConfig    `yaml:"view"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
}

// ViewConfig is the hex grid geometry.
type ViewConfig struct {
	BytesPerRow  int    `yaml:"bytes_per_row" env:"HEXKIT_BYTES_PER_ROW"`
	RowsPerPage  int    `yaml:"rows_per_page" env:"HEXKIT_ROWS_PER_PAGE"`
	OverlayLimit int    `yaml:"overlay_limit" env:"HEXKIT_OVERLAY_LIMIT"`
	Charset      string `yaml:"charset" env:"HEXKIT_CHARSET"`
}

// StorageConfig locates local files.
type StorageConfig struct {
	Root string `yaml:"root" env:"HEXKIT_STORAGE_ROOT"`
}

// ServerConfig configures the range server and remote clients.
type ServerConfig struct {
	Addr      string `yaml:"addr" env:"HEXKIT_SERVER_ADDR"`
	URL       string `yaml:"url" env:"HEXKIT_SERVER_URL"`
	MaxLength int64  `yaml:"max_length" env:"HEXKIT_MAX_LENGTH"`
}

// ExportConfig says where edited copies go.
type ExportConfig struct {
	Dir string `yaml:"dir" env:"HEXKIT_EXPORT_DIR"`
}

// LogConfig toggles file logging.
type LogConfig struct {
	Debug bool   `yaml:"debug" env:"HEXKIT_DEBUG"`
	Dir   string `yaml:"dir" env:"HEXKIT_LOG_DIR"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			BytesPerRow: hexview.DefaultBytesPerRow,
			RowsPerPage: hexview.DefaultRowsPerPage,
			Charset:     string(hexfmt.ASCII),
		},
		Storage: StorageConfig{Root: "."},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8765",
			MaxLength: 64 << 20,
		},
		Export: ExportConfig{Dir: "."},
	}
}

// Path returns the config file location: $HEXKIT_CONFIG if set, else
// ~/.hexkit/config.yaml.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	return filepath.Join(home, DefaultDir, FileName), nil
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error. An empty path uses Path().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	//nolint:gosec // G304: path is chosen by the user.
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if err := c.HexView().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := hexfmt.ParseCharset(c.View.Charset); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Server.MaxLength < 0 {
		return fmt.Errorf("config: max_length must not be negative, got %d", c.Server.MaxLength)
	}
	return nil
}

// HexView returns the controller settings. The logger is left for the
// caller.
func (c *Config) HexView() hexview.Config {
	return hexview.Config{
		BytesPerRow:  c.View.BytesPerRow,
		RowsPerPage:  c.View.RowsPerPage,
		OverlayLimit: c.View.OverlayLimit,
	}
}

// Charset returns the parsed text column code page.
func (c *Config) Charset() hexfmt.Charset {
	cs, err := hexfmt.ParseCharset(c.View.Charset)
	if err != nil {
		return hexfmt.ASCII
	}
	return cs
}
