package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validJWTSecret meets the 32-character minimum.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 9090
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
    access_token_ttl: 30
  audit:
    allow_cross_user: true
  seed:
    auditor_username: "carol"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.GetTokenTTL() != 30*time.Minute {
		t.Errorf("GetTokenTTL() = %v, want 30m", cfg.GetTokenTTL())
	}
	if !cfg.Security.Audit.AllowCrossUser {
		t.Error("Security.Audit.AllowCrossUser = false, want true")
	}
	if cfg.Security.Seed.AuditorUsername != "carol" {
		t.Errorf("Security.Seed.AuditorUsername = %q, want %q", cfg.Security.Seed.AuditorUsername, "carol")
	}

	// Untouched sections keep their defaults.
	if cfg.Security.Audit.DefaultPageSize != 10 {
		t.Errorf("Security.Audit.DefaultPageSize = %d, want 10", cfg.Security.Audit.DefaultPageSize)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled should default to false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
api:
  port: 8080
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for missing jwt secret, got nil")
	}
	if !strings.Contains(err.Error(), "security.jwt.secret is required") {
		t.Errorf("error = %v, want mention of security.jwt.secret", err)
	}
}

func TestLoad_SecretFromEnvironment(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)
	t.Setenv("SESSIONAUDIT_JWT_SECRET", validJWTSecret)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.Secret != validJWTSecret {
		t.Errorf("Security.JWT.Secret = %q, want env value", cfg.Security.JWT.Secret)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = validJWTSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "zero token ttl", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: true},
		{name: "invalid QoS ignored when mqtt disabled", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: false},
		{
			name: "invalid QoS with mqtt enabled",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled without topic prefix",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.TopicPrefix = ""
			},
			wantErr: true,
		},
		{name: "influxdb enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{
			name: "page size above max",
			mutate: func(c *Config) {
				c.Security.Audit.DefaultPageSize = 50
				c.Security.Audit.MaxPageSize = 20
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
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

	t.Setenv("SESSIONAUDIT_DATABASE_PATH", "/custom/path.db")
	t.Setenv("SESSIONAUDIT_API_HOST", "192.168.1.1")
	t.Setenv("SESSIONAUDIT_API_PORT", "9443")
	t.Setenv("SESSIONAUDIT_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SESSIONAUDIT_MQTT_USERNAME", "testuser")
	t.Setenv("SESSIONAUDIT_MQTT_PASSWORD", "testpass")
	t.Setenv("SESSIONAUDIT_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("SESSIONAUDIT_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.API.Port != 9443 {
		t.Errorf("API.Port = %d, want 9443", cfg.API.Port)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("SESSIONAUDIT_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Security.JWT.AccessTokenTTL != 60 {
		t.Errorf("defaultConfig AccessTokenTTL = %d, want 60", cfg.Security.JWT.AccessTokenTTL)
	}
	if cfg.Security.Audit.DefaultPageSize != 10 || cfg.Security.Audit.MaxPageSize != 200 {
		t.Errorf("defaultConfig audit page sizes = %d/%d, want 10/200",
			cfg.Security.Audit.DefaultPageSize, cfg.Security.Audit.MaxPageSize)
	}
	if cfg.Security.Audit.AllowCrossUser {
		t.Error("defaultConfig should restrict audit to the caller's own history")
	}
}
