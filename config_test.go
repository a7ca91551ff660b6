package adminAuth

import (
	"net/http"
	"testing"
	"time"
)

var testSecret = []byte("test-secret-0123456789-abcdefghijk")

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = append([]byte(nil), testSecret...)
	return cfg
}

func TestDefaultConfigRequiresOnlySecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without secret to fail")
	}

	cfg = validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config with secret to validate: %v", err)
	}
	if cfg.JWT.TTL != 600*time.Second {
		t.Fatalf("expected 600s TTL, got %v", cfg.JWT.TTL)
	}
	if cfg.Lockout.Threshold != 3 {
		t.Fatalf("expected lockout threshold 3, got %d", cfg.Lockout.Threshold)
	}
	if cfg.Cookie.Name != "Authorization" {
		t.Fatalf("expected Authorization cookie, got %q", cfg.Cookie.Name)
	}
}

func TestConfigValidateFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "short secret invalid",
			mutate:    func(c *Config) { c.JWT.Secret = []byte("short") },
			wantValid: false,
		},
		{
			name:      "blank issuer invalid",
			mutate:    func(c *Config) { c.JWT.Issuer = "  " },
			wantValid: false,
		},
		{
			name:      "blank audience invalid",
			mutate:    func(c *Config) { c.JWT.Audience = "" },
			wantValid: false,
		},
		{
			name:      "zero ttl invalid",
			mutate:    func(c *Config) { c.JWT.TTL = 0 },
			wantValid: false,
		},
		{
			name:      "fractional ttl invalid",
			mutate:    func(c *Config) { c.JWT.TTL = 1500 * time.Millisecond },
			wantValid: false,
		},
		{
			name:      "shorter ttl valid",
			mutate:    func(c *Config) { c.JWT.TTL = 5 * time.Minute },
			wantValid: true,
		},
		{
			name:      "low iterations invalid",
			mutate:    func(c *Config) { c.Password.Iterations = 999 },
			wantValid: false,
		},
		{
			name:      "higher iterations valid",
			mutate:    func(c *Config) { c.Password.Iterations = 210000 },
			wantValid: true,
		},
		{
			name:      "short key invalid",
			mutate:    func(c *Config) { c.Password.KeyLength = 8 },
			wantValid: false,
		},
		{
			name:      "short salt invalid",
			mutate:    func(c *Config) { c.Password.SaltBytes = 4 },
			wantValid: false,
		},
		{
			name:      "zero threshold invalid",
			mutate:    func(c *Config) { c.Lockout.Threshold = 0 },
			wantValid: false,
		},
		{
			name:      "threshold five valid",
			mutate:    func(c *Config) { c.Lockout.Threshold = 5 },
			wantValid: true,
		},
		{
			name: "async without buffer invalid",
			mutate: func(c *Config) {
				c.Notifications.Async = true
				c.Notifications.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "sync without buffer valid",
			mutate: func(c *Config) {
				c.Notifications.Async = false
				c.Notifications.BufferSize = 0
			},
			wantValid: true,
		},
		{
			name:      "latency without metrics invalid",
			mutate:    func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
			wantValid: false,
		},
		{
			name:      "blank cookie name invalid",
			mutate:    func(c *Config) { c.Cookie.Name = "" },
			wantValid: false,
		},
		{
			name: "samesite none insecure invalid",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Cookie.Secure = false
			},
			wantValid: false,
		},
		{
			name:      "samesite out of range invalid",
			mutate:    func(c *Config) { c.Cookie.SameSite = http.SameSite(42) },
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWithConfigClonesSecret(t *testing.T) {
	cfg := validTestConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'X'

	if b.config.JWT.Secret[0] == 'X' {
		t.Fatal("builder config must not alias caller secret")
	}
}
