package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-key-at-least-32-chars!"
	testRefreshSecret = "refresh-secret-key-at-least-32-chars"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWT.AccessSecret = testAccessSecret
	cfg.Security.JWT.RefreshSecret = testRefreshSecret
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  environment: "production"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    access_secret: "access-secret-key-at-least-32-chars!"
    refresh_secret: "refresh-secret-key-at-least-32-chars"
    access_token_ttl: 15
    refresh_token_ttl: 1440
  admin_emails:
    - "root@example.com"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Environment != EnvProduction {
		t.Errorf("Server.Environment = %q, want %q", cfg.Server.Environment, EnvProduction)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true for production config")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
	if len(cfg.Security.AdminEmails) != 1 || cfg.Security.AdminEmails[0] != "root@example.com" {
		t.Errorf("Security.AdminEmails = %v", cfg.Security.AdminEmails)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for missing secrets, got nil")
	}
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv("INKWELL_ACCESS_SECRET", testAccessSecret)
	t.Setenv("INKWELL_REFRESH_SECRET", testRefreshSecret)
	t.Setenv("INKWELL_API_PORT", "not-a-port")

	_, err := Load(writeConfig(t, "server:\n  name: test\n"))
	if err == nil {
		t.Error("Load() expected error for non-numeric INKWELL_API_PORT, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing access secret",
			mutate:  func(c *Config) { c.Security.JWT.AccessSecret = "" },
			wantErr: true,
		},
		{
			name:    "refresh secret too short",
			mutate:  func(c *Config) { c.Security.JWT.RefreshSecret = "short" },
			wantErr: true,
		},
		{
			name:    "identical secrets",
			mutate:  func(c *Config) { c.Security.JWT.RefreshSecret = c.Security.JWT.AccessSecret },
			wantErr: true,
		},
		{
			name:    "refresh ttl not longer than access ttl",
			mutate:  func(c *Config) { c.Security.JWT.RefreshTokenTTL = c.Security.JWT.AccessTokenTTL },
			wantErr: true,
		},
		{
			name:    "storage without bucket",
			mutate:  func(c *Config) { c.Storage.Enabled = true; c.Storage.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "rate limit with zero budget",
			mutate:  func(c *Config) { c.Security.RateLimit.RequestsPerMinute = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Codec(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWT.AccessTokenTTL = 15
	cfg.Security.JWT.RefreshTokenTTL = 60

	codec := cfg.Codec()
	if string(codec.AccessSecret) != testAccessSecret {
		t.Errorf("AccessSecret = %q", codec.AccessSecret)
	}
	if string(codec.RefreshSecret) != testRefreshSecret {
		t.Errorf("RefreshSecret = %q", codec.RefreshSecret)
	}
	if codec.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", codec.AccessTTL)
	}
	if codec.RefreshTTL != time.Hour {
		t.Errorf("RefreshTTL = %v, want 1h", codec.RefreshTTL)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("INKWELL_ENV", "production")
	t.Setenv("INKWELL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("INKWELL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("INKWELL_API_PORT", "9000")
	t.Setenv("INKWELL_REDIS_ADDR", "redis:6379")
	t.Setenv("INKWELL_S3_ACCESS_KEY", "AKIA-TEST")
	t.Setenv("INKWELL_ACCESS_SECRET", "access")
	t.Setenv("INKWELL_REFRESH_SECRET", "refresh")
	t.Setenv("INKWELL_ACCESS_TTL", "5")
	t.Setenv("INKWELL_REFRESH_TTL", "120")
	t.Setenv("INKWELL_ADMIN_EMAILS", "a@example.com, b@example.com,")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Server.Environment != "production" {
		t.Errorf("Server.Environment = %q", cfg.Server.Environment)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Storage.AccessKey != "AKIA-TEST" {
		t.Errorf("Storage.AccessKey = %q", cfg.Storage.AccessKey)
	}
	if cfg.Security.JWT.AccessSecret != "access" || cfg.Security.JWT.RefreshSecret != "refresh" {
		t.Errorf("JWT secrets not overridden: %+v", cfg.Security.JWT)
	}
	if cfg.Security.JWT.AccessTokenTTL != 5 || cfg.Security.JWT.RefreshTokenTTL != 120 {
		t.Errorf("JWT TTLs not overridden: %+v", cfg.Security.JWT)
	}
	if len(cfg.Security.AdminEmails) != 2 || cfg.Security.AdminEmails[1] != "b@example.com" {
		t.Errorf("Security.AdminEmails = %v", cfg.Security.AdminEmails)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if !cfg.IsDevelopment() {
		t.Error("defaultConfig should run in development")
	}
	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.Security.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("defaultConfig RateLimit = %d, want 60", cfg.Security.RateLimit.RequestsPerMinute)
	}
	if cfg.API.Port != 3000 {
		t.Errorf("defaultConfig API.Port = %d, want 3000", cfg.API.Port)
	}
}
