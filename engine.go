package adminAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/adminAuth/internal/flows"
	"github.com/MrEthical07/adminAuth/internal/limiters"
	"github.com/MrEthical07/adminAuth/internal/notify"
	"github.com/MrEthical07/adminAuth/jwt"
	"github.com/MrEthical07/adminAuth/password"
	"github.com/MrEthical07/adminAuth/permission"
)

// Engine authenticates logins and resolves request identities. Build it with
// New().With...().Build(); the zero value is not usable.
//
// An Engine is safe for concurrent use. Call Close on shutdown to drain
// queued notifications.
type Engine struct {
	config       Config
	directory    UserDirectory
	permissions  PermissionStore
	hasher       *password.Hasher
	codec        *jwt.Codec
	lockout      *limiters.LockoutPolicy
	cacheBackend string
	notifier     notify.Sink
	dispatcher   *notify.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	flows        flows.Deps
}

// Close stops the notification dispatcher after delivering queued events.
// It is safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.dispatcher != nil {
		e.dispatcher.Close()
	}
}

// NotificationsDropped returns how many notifications the async dispatcher
// discarded because its buffer was full.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.dispatcher == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

// MetricsSnapshot copies the current counters and histograms. A nil engine
// returns empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the lifetime of issued session tokens. Cookies written for a
// token use it as Max-Age.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.codec == nil {
		return 0
	}
	return e.codec.TTL()
}

// CookieConfig returns the configured session cookie shape.
func (e *Engine) CookieConfig() CookieConfig {
	if e == nil {
		return defaultConfig().Cookie
	}
	return e.config.Cookie
}

// HashPassword derives a stored hash for password under a fresh salt. User
// provisioning tools call it; login never does.
func (e *Engine) HashPassword(password string) (salt, hash string, err error) {
	if e == nil || e.hasher == nil {
		return "", "", ErrEngineNotReady
	}
	salt, err = e.hasher.GenerateSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = e.hasher.Hash(salt, password)
	if err != nil {
		return "", "", err
	}
	return salt, hash, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// verifyPassword maps the stored credential pair onto the hasher. An empty
// stored salt is malformed input; an oversized password is a plain mismatch.
func (e *Engine) verifyPassword(password, salt, expectedHash string) (bool, error) {
	if salt == "" {
		return false, ErrInternalHash
	}
	return e.hasher.Matches(password, salt, expectedHash), nil
}

func (e *Engine) buildFlowDeps() flows.Deps {
	return flows.Deps{
		Login: flows.LoginDeps{
			FindAccounts:            e.findAccounts,
			Admit:                   e.lockout.Admit,
			Escalate:                e.lockout.Escalate,
			VerifyPassword:          e.verifyPassword,
			IncrementFailedAttempts: e.incrementFailedAttempts,
			SetLockedOut:            e.setLockedOut,
			GetPermissions:          e.permissionsForUser,
			IssueToken:              e.codec.Issue,
			Notify:                  e.emitNotification,
			MetricInc:               func(id int) { e.metricInc(MetricID(id)) },
			Metrics: flows.LoginMetrics{
				LoginSuccess:   int(MetricLoginSuccess),
				LoginFailure:   int(MetricLoginFailure),
				LoginInactive:  int(MetricLoginInactive),
				LoginLocked:    int(MetricLoginLocked),
				AccountLockout: int(MetricAccountLockout),
			},
			Events: flows.LoginEvents{
				Succeeded:       notify.EventLoginSucceeded,
				FailedAttempt:   notify.EventFailedAttempt,
				AccountLocked:   notify.EventAccountLocked,
				InactiveAttempt: notify.EventInactiveLoginAttempt,
				LockedAttempt:   notify.EventLockedLoginAttempt,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				AccountNotActive:   ErrAccountNotActive,
				AccountLocked:      ErrAccountLocked,
			},
		},
		Identity: flows.IdentityDeps{
			VerifyToken:    e.verifySubject,
			ResolveID:      e.resolveAccountID,
			IsNotFound:     func(err error) bool { return errors.Is(err, ErrAccountNotFound) },
			GetPermissions: e.permissionsForUser,
			MetricInc:      func(id int) { e.metricInc(MetricID(id)) },
			Metrics: flows.IdentityMetrics{
				Authenticated: int(MetricIdentityAuthenticated),
				Anonymous:     int(MetricIdentityAnonymous),
				Rejected:      int(MetricIdentityRejected),
			},
			Errors: flows.IdentityErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidToken:   ErrInvalidToken,
			},
		},
	}
}

func (e *Engine) findAccounts(ctx context.Context, login string) ([]flows.LoginAccount, error) {
	accounts, err := e.directory.FindManyByCredentialString(ctx, login)
	if err != nil {
		return nil, backendError(err)
	}
	out := make([]flows.LoginAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toLoginAccount(a))
	}
	return out, nil
}

func (e *Engine) incrementFailedAttempts(ctx context.Context, id int64) (int, error) {
	count, err := e.directory.IncrementFailedAttempts(ctx, id)
	if err != nil {
		return 0, backendError(err)
	}
	return count, nil
}

func (e *Engine) setLockedOut(ctx context.Context, id int64) error {
	if err := e.directory.SetLockedOut(ctx, id); err != nil {
		return backendError(err)
	}
	return nil
}

func (e *Engine) permissionsForUser(ctx context.Context, id int64) ([]permission.Permission, error) {
	perms, err := e.permissions.GetPermissionsForUser(ctx, id)
	if err != nil {
		return nil, backendError(err)
	}
	return perms, nil
}

func (e *Engine) verifySubject(token string) (string, error) {
	verified, err := e.codec.Verify(token)
	if err != nil {
		return "", err
	}
	return verified.Subject, nil
}

func (e *Engine) resolveAccountID(ctx context.Context, uuid string) (int64, error) {
	account, err := e.directory.GetByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, err
		}
		return 0, backendError(err)
	}
	return account.ID, nil
}

func toLoginAccount(a UserAccount) flows.LoginAccount {
	return flows.LoginAccount{
		ID:           a.ID,
		UUID:         a.UUID,
		Email:        a.Email,
		Phone:        a.Phone,
		PasswordHash: a.PasswordHash,
		Salt:         a.Salt,
		IsActive:     a.IsActive,
		IsLockedOut:  a.IsLockedOut,
	}
}

// backendError marks a collaborator failure as ErrBackendUnavailable while
// keeping the original error in the chain.
func backendError(err error) error {
	if err == nil || errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}
