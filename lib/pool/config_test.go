package pool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/go-i2p/connpool/lib/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxActive != DefaultMaxActive {
		t.Errorf("default MaxActive = %d, want %d", cfg.MaxActive, DefaultMaxActive)
	}
	if cfg.MaxIdle != DefaultMaxIdle {
		t.Errorf("default MaxIdle = %d, want %d", cfg.MaxIdle, DefaultMaxIdle)
	}
	if cfg.MaxCheckoutTime != DefaultMaxCheckoutTime {
		t.Errorf("default MaxCheckoutTime = %v, want %v", cfg.MaxCheckoutTime, DefaultMaxCheckoutTime)
	}
	if cfg.WaitTimeout != DefaultWaitTimeout {
		t.Errorf("default WaitTimeout = %v, want %v", cfg.WaitTimeout, DefaultWaitTimeout)
	}
	if cfg.MaxIdleTime != DefaultMaxIdleTime {
		t.Errorf("default MaxIdleTime = %v, want %v", cfg.MaxIdleTime, DefaultMaxIdleTime)
	}
	if cfg.PingEnabled {
		t.Error("pinging should be off by default")
	}
	if cfg.Breaker.Enabled {
		t.Error("breaker should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "max active zero",
			modify:  func(c *Config) { c.MaxActive = 0 },
			wantErr: true,
		},
		{
			name:    "max idle negative",
			modify:  func(c *Config) { c.MaxIdle = -1 },
			wantErr: true,
		},
		{
			name:    "max idle zero is allowed",
			modify:  func(c *Config) { c.MaxIdle = 0 },
			wantErr: false,
		},
		{
			name:    "checkout time zero",
			modify:  func(c *Config) { c.MaxCheckoutTime = 0 },
			wantErr: true,
		},
		{
			name:    "wait timeout zero",
			modify:  func(c *Config) { c.WaitTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "idle time zero",
			modify:  func(c *Config) { c.MaxIdleTime = 0 },
			wantErr: true,
		},
		{
			name:    "sweep interval negative",
			modify:  func(c *Config) { c.SweepInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "sweep interval zero disables sweeping",
			modify:  func(c *Config) { c.SweepInterval = 0 },
			wantErr: false,
		},
		{
			name:    "validation grace negative",
			modify:  func(c *Config) { c.ValidationGrace = -time.Second },
			wantErr: true,
		},
		{
			name:    "bad conn tolerance negative",
			modify:  func(c *Config) { c.BadConnTolerance = -1 },
			wantErr: true,
		},
		{
			name:    "breaker enabled with defaults",
			modify:  func(c *Config) { c.Breaker.Enabled = true },
			wantErr: false,
		},
		{
			name: "breaker enabled without failure threshold",
			modify: func(c *Config) {
				c.Breaker.Enabled = true
				c.Breaker.FailureThreshold = 0
			},
			wantErr: true,
		},
		{
			name: "breaker enabled without open timeout",
			modify: func(c *Config) {
				c.Breaker.Enabled = true
				c.Breaker.OpenTimeout = 0
			},
			wantErr: true,
		},
		{
			name: "breaker disabled skips breaker checks",
			modify: func(c *Config) {
				c.Breaker.Enabled = false
				c.Breaker.FailureThreshold = 0
				c.Breaker.OpenTimeout = 0
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.toml")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig should not error on missing file: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfig should return default config when file is missing")
	}
	if cfg.MaxActive != DefaultMaxActive {
		t.Errorf("MaxActive = %d, want default %d", cfg.MaxActive, DefaultMaxActive)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	original := DefaultConfig()
	original.MaxActive = 21
	original.MaxCheckoutTime = 45 * time.Second
	original.PingEnabled = true
	original.ValidationGrace = 30 * time.Second
	original.Breaker.Enabled = true
	original.Breaker.FailureThreshold = 4

	if err := SaveConfig(&original, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.MaxActive != original.MaxActive {
		t.Errorf("MaxActive mismatch: got %d, want %d", loaded.MaxActive, original.MaxActive)
	}
	if loaded.MaxCheckoutTime != original.MaxCheckoutTime {
		t.Errorf("MaxCheckoutTime mismatch: got %v, want %v", loaded.MaxCheckoutTime, original.MaxCheckoutTime)
	}
	if !loaded.PingEnabled {
		t.Error("PingEnabled should survive the round trip")
	}
	if loaded.ValidationGrace != original.ValidationGrace {
		t.Errorf("ValidationGrace mismatch: got %v, want %v", loaded.ValidationGrace, original.ValidationGrace)
	}
	if !loaded.Breaker.Enabled {
		t.Error("Breaker.Enabled should survive the round trip")
	}
	if loaded.Breaker.FailureThreshold != original.Breaker.FailureThreshold {
		t.Errorf("Breaker.FailureThreshold mismatch: got %d, want %d",
			loaded.Breaker.FailureThreshold, original.Breaker.FailureThreshold)
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	if err := os.WriteFile(configPath, []byte("this is not [valid toml"), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("LoadConfig should error on invalid TOML")
	}
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[pool]\nmax_active = 0\n"), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("LoadConfig should reject out-of-range values")
	}
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestSaveConfig_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "new", "nested", "config.toml")

	cfg := DefaultConfig()
	if err := SaveConfig(&cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed to create nested directory: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.MaxActive != DefaultMaxActive {
		t.Errorf("MaxActive = %d, want %d", cfg.MaxActive, DefaultMaxActive)
	}
	if cfg.MaxIdle != 0 {
		t.Errorf("MaxIdle = %d, want 0 kept as configured", cfg.MaxIdle)
	}
	if cfg.MaxCheckoutTime != DefaultMaxCheckoutTime {
		t.Errorf("MaxCheckoutTime = %v, want %v", cfg.MaxCheckoutTime, DefaultMaxCheckoutTime)
	}
	if cfg.WaitTimeout != DefaultWaitTimeout {
		t.Errorf("WaitTimeout = %v, want %v", cfg.WaitTimeout, DefaultWaitTimeout)
	}
	if cfg.MaxIdleTime != DefaultMaxIdleTime {
		t.Errorf("MaxIdleTime = %v, want %v", cfg.MaxIdleTime, DefaultMaxIdleTime)
	}

	neg := Config{MaxIdle: -1, BadConnTolerance: -2}
	neg.applyDefaults()
	if neg.MaxIdle != DefaultMaxIdle {
		t.Errorf("negative MaxIdle = %d, want default %d", neg.MaxIdle, DefaultMaxIdle)
	}
	if neg.BadConnTolerance != DefaultBadConnTolerance {
		t.Errorf("negative BadConnTolerance = %d, want default %d", neg.BadConnTolerance, DefaultBadConnTolerance)
	}
}
