package adminAuth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintLow LintSeverity = iota
	LintMedium
	LintHigh
)

// String returns the lowercase severity name.
func (s LintSeverity) String() string {
	switch s {
	case LintLow:
		return "low"
	case LintMedium:
		return "medium"
	case LintHigh:
		return "high"
	default:
		return "unknown"
	}
}

// LintWarning is an advisory finding about a config that passes Validate but
// is probably not what a production deployment wants.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins the warnings at or above min into one error, or returns nil.
// Deployments use it to fail startup on high-severity findings.
func (r LintResult) AsError(min LintSeverity) error {
	filtered := r.BySeverity(min)
	if len(filtered) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(filtered))
	for _, w := range filtered {
		msgs = append(msgs, w.Code+": "+w.Message)
	}
	return errors.New("config lint: " + strings.Join(msgs, "; "))
}

const (
	lintTTLLongThreshold       = 15 * time.Minute
	lintIterationsRecommended  = 100000
	lintThresholdHighThreshold = 10
)

// Lint inspects c for risky but valid settings.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.JWT.TTL > lintTTLLongThreshold {
		add("token_ttl_long", LintMedium, "session tokens cannot be revoked; keep TTL at or below 15m")
	}
	if c.JWT.Issuer != "" && c.JWT.Issuer == c.JWT.Audience {
		add("issuer_equals_audience", LintLow, "issuer and audience are identical")
	}
	if c.Password.Iterations < lintIterationsRecommended {
		add("pbkdf2_iterations_low", LintLow, "iteration count is kept for stored-hash compatibility; plan a rehash")
	}
	if c.Lockout.Threshold > lintThresholdHighThreshold {
		add("lockout_threshold_high", LintMedium, "a high lockout threshold weakens brute-force protection")
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", LintHigh, "session cookie is sent over plain HTTP")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode || c.Cookie.SameSite == http.SameSiteDefaultMode {
		add("cookie_samesite_lax", LintMedium, "session cookie is sent on cross-site requests")
	}
	if c.Notifications.Async && c.Notifications.DropIfFull {
		add("notifications_may_drop", LintLow, "login notifications are dropped when the buffer is full")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintLow, "login and identity counters are not collected")
	}

	return ws
}
