package adminAuth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/adminAuth/internal/limiters"
	"github.com/MrEthical07/adminAuth/jwt"
	"github.com/MrEthical07/adminAuth/password"
)

// Config holds every engine setting. Build it from DefaultConfig and
// override fields; Builder.Build validates it.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	Lockout       LockoutConfig
	Notifications NotificationConfig
	Metrics       MetricsConfig
	Cookie        CookieConfig
	Cache         CacheConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session token signing. The algorithm is fixed to
// HS256 and there is no key rotation.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig tunes PBKDF2-SHA512. Defaults keep hashes compatible with
// existing 128-hex-character stored values.
type PasswordConfig struct {
	Iterations       int
	KeyLength        int
	SaltBytes        int
	MaxPasswordBytes int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig sets the failed-attempt lockout threshold.
type LockoutConfig struct {
	// Threshold is the failed-attempt count at which an account locks.
	Threshold int
}

/*
====================================
NOTIFICATION CONFIG
====================================
*/

// NotificationConfig controls delivery of login notifications. With Async
// set, events are queued to a single dispatcher goroutine.
type NotificationConfig struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig shapes the session cookie written after login. The cookie is
// always HttpOnly and its Max-Age always equals the token TTL.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig configures the uuid to id cache used by identity resolution.
type CacheConfig struct {
	// RedisPrefix namespaces cache keys when a Redis client is supplied.
	RedisPrefix string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a config with every field but JWT.Secret populated.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:   "adminauth",
			Audience: "adminauth-admin",
			TTL:      jwt.DefaultTTL,
		},
		Password: PasswordConfig{
			Iterations:       password.DefaultIterations,
			KeyLength:        password.DefaultKeyLength,
			SaltBytes:        password.DefaultSaltBytes,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
		},
		Lockout: LockoutConfig{
			Threshold: limiters.DefaultLockoutThreshold,
		},
		Notifications: NotificationConfig{
			Async:      true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Cookie: CookieConfig{
			Name:     "Authorization",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
		Cache: CacheConfig{
			RedisPrefix: "aid",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting. Builder.Build calls it.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		return errors.New("JWT Issuer must be set")
	}
	if strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must be set")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if c.JWT.TTL%time.Second != 0 {
		return errors.New("JWT TTL must be a whole number of seconds")
	}

	// Password
	if c.Password.Iterations < password.DefaultIterations {
		return fmt.Errorf("Password Iterations must be >= %d", password.DefaultIterations)
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.SaltBytes < 16 {
		return errors.New("Password SaltBytes must be >= 16")
	}
	if c.Password.MaxPasswordBytes <= 0 {
		return errors.New("Password MaxPasswordBytes must be > 0")
	}

	// Lockout
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}

	// Notifications
	if c.Notifications.Async && c.Notifications.BufferSize <= 0 {
		return errors.New("Notifications BufferSize must be > 0 when Async is true")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.SameSite < http.SameSiteDefaultMode || c.Cookie.SameSite > http.SameSiteNoneMode {
		return errors.New("Cookie SameSite is invalid")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	return nil
}
