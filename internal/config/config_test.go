package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv keeps the developer's own TALLY_* settings out of the tests and
// runs each test from an empty directory so no stray .env is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TALLY_DB_PATH", "TALLY_CURRENCY", "TALLY_DEFAULT_DAYS", "TALLY_LOG_LEVEL", "TALLY_LOG_FILE"} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())
}

// chdir switches the working directory for the rest of the test and restores
// it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg != def {
		t.Fatalf("LoadFrom = %+v, want defaults %+v", cfg, def)
	}
	if cfg.Profile.DefaultAvatarURL == "" {
		t.Error("default avatar URL is empty")
	}
}

func TestSaveThenLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tally", "config.toml")

	cfg := DefaultConfig()
	cfg.General.Currency = "€"
	cfg.General.DefaultDays = 7
	cfg.General.UniqueUsernames = true
	cfg.Appearance.Theme = "tokyo-night"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLY_DB_PATH", "/tmp/other.db")
	t.Setenv("TALLY_CURRENCY", "$")
	t.Setenv("TALLY_DEFAULT_DAYS", "90")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath() != "/tmp/other.db" {
		t.Errorf("DBPath = %q, want /tmp/other.db", cfg.DBPath())
	}
	if cfg.General.Currency != "$" {
		t.Errorf("Currency = %q, want $", cfg.General.Currency)
	}
	if cfg.General.DefaultDays != 90 {
		t.Errorf("DefaultDays = %d, want 90", cfg.General.DefaultDays)
	}
}

func TestLoadFileFrom_IgnoresEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLY_DB_PATH", "/tmp/other.db")
	t.Setenv("TALLY_LOG_FILE", "/tmp/tally.log")
	if err := os.WriteFile(".env", []byte("TALLY_CURRENCY=CHF\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TALLY_CURRENCY") })

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.General.Currency = "€"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFileFrom(path)
	if err != nil {
		t.Fatalf("LoadFileFrom: %v", err)
	}
	if got != cfg {
		t.Errorf("LoadFileFrom = %+v, want file contents %+v", got, cfg)
	}

	// Saving what LoadFileFrom returned must not persist the overrides.
	if err := SaveTo(path, got); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, leaked := range []string{"/tmp/other.db", "/tmp/tally.log", "CHF"} {
		if strings.Contains(string(data), leaked) {
			t.Errorf("saved config contains env override %q:\n%s", leaked, data)
		}
	}
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("TALLY_CURRENCY")
	if err := os.WriteFile(".env", []byte("TALLY_CURRENCY=CHF\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TALLY_CURRENCY") })

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.Currency != "CHF" {
		t.Errorf("Currency = %q, want CHF from .env", cfg.General.Currency)
	}
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func TestWriteConfig_ReportsCloseError(t *testing.T) {
	w := &failingCloser{closeErr: errors.New("disk full")}
	err := writeConfig(w, DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("writeConfig err = %v, want close error", err)
	}
	if !strings.Contains(w.String(), "currency") {
		t.Errorf("nothing encoded before close: %q", w.String())
	}

	if err := writeConfig(&failingCloser{}, DefaultConfig()); err != nil {
		t.Fatalf("writeConfig with clean close: %v", err)
	}
}

func TestSaveTo_UnwritableDir(t *testing.T) {
	clearEnv(t)
	parent := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(parent, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SaveTo(filepath.Join(parent, "config.toml"), DefaultConfig()); err == nil {
		t.Fatal("SaveTo under a regular file succeeded")
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\ncurrency = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Fatalf("LoadFrom err = %v, want parsing error", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:        "empty currency",
			mutate:      func(c *Config) { c.General.Currency = " " },
			errorString: "currency symbol cannot be empty",
		},
		{
			name:        "negative days",
			mutate:      func(c *Config) { c.General.DefaultDays = -1 },
			errorString: "invalid default_days -1",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.Log.Level = "loud" },
			errorString: `invalid log level "loud"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.errorString)
			}
		})
	}
}
