package adminAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/adminAuth/internal/flows"
)

// Login authenticates login (an email or phone, matched exactly) with
// password and issues a session token.
//
// Failure kinds are ErrInvalidCredentials, ErrAccountNotActive and
// ErrAccountLocked. A login string matching zero or several accounts fails
// exactly like a wrong password. The attempt that triggers a lockout still
// reports ErrInvalidCredentials; the next one reports ErrAccountLocked.
//
// Collaborator failures are returned wrapped in ErrBackendUnavailable and are
// not retried.
func (e *Engine) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	res, err := flows.RunLogin(ctx, login, password, e.flows.Login)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     res.Token,
		ExpiresIn: e.codec.TTL(),
		ExpiresAt: res.ExpiresAt,
		Profile: PublicProfile{
			UUID:  res.Account.UUID,
			Email: res.Account.Email,
			Phone: res.Account.Phone,
		},
	}, nil
}
