package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultAvatarURL is the placeholder image new users start with.
const DefaultAvatarURL = "https://t4.ftcdn.net/jpg/00/64/67/27/360_F_64672736_U5kpdGs9keUll8CRQ3p3YaEv2M6qkVY5.jpg"

// Config holds all tally configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Profile    ProfileConfig    `toml:"profile"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds storage and ledger preferences.
type GeneralConfig struct {
	DataPath        string `toml:"data_path,omitempty"`
	Currency        string `toml:"currency"`
	DefaultDays     int    `toml:"default_days"`
	UniqueUsernames bool   `toml:"unique_usernames"`
}

// ProfileConfig holds defaults for new accounts.
type ProfileConfig struct {
	DefaultAvatarURL string `toml:"default_avatar_url"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:    "£",
			DefaultDays: 30,
		},
		Profile: ProfileConfig{
			DefaultAvatarURL: DefaultAvatarURL,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "warning",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tally")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tally")
}

// DBPath returns the database location, falling back to the data dir.
func (c Config) DBPath() string {
	if c.General.DataPath != "" {
		return c.General.DataPath
	}
	return filepath.Join(DataDir(), "tally.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load for an explicit file path.
func LoadFrom(path string) (Config, error) {
	cfg, err := LoadFileFrom(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads only the config file, without environment overrides.
// Anything that writes the config back starts from this.
func LoadFile() (Config, error) {
	return LoadFileFrom(ConfigPath())
}

// LoadFileFrom is LoadFile for an explicit file path.
func LoadFileFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays TALLY_* variables. A .env file in the working directory
// is read first; variables already set in the environment win over it.
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v := os.Getenv("TALLY_DB_PATH"); v != "" {
		cfg.General.DataPath = v
	}
	if v := os.Getenv("TALLY_CURRENCY"); v != "" {
		cfg.General.Currency = v
	}
	if v := os.Getenv("TALLY_DEFAULT_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TALLY_DEFAULT_DAYS: %w", err)
		}
		cfg.General.DefaultDays = days
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TALLY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.General.Currency) == "" {
		problems = append(problems, "currency symbol cannot be empty")
	}
	if c.General.DefaultDays < 0 {
		problems = append(problems, fmt.Sprintf("invalid default_days %d: must not be negative", c.General.DefaultDays))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level %q: must be debug, info, warning or error", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo is Save for an explicit file path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	return writeConfig(f, cfg)
}

// writeConfig encodes cfg to w and closes it, reporting a failed close.
func writeConfig(w io.WriteCloser, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing config file: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
