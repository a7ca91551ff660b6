package adminAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/adminAuth/internal/flows"
)

// ResolveIdentity turns an optional session token into an Identity.
//
// An empty credential yields the anonymous identity and no error. A present
// credential that fails verification, or whose subject no longer resolves to
// an account, yields ErrInvalidToken. Permissions are always read from the
// PermissionStore; the token's permission claim is ignored.
//
// Active and lockout status are not consulted here, so a token issued before
// an account was locked stays usable until it expires.
func (e *Engine) ResolveIdentity(ctx context.Context, credential string) (Identity, error) {
	if e == nil {
		return Identity{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricResolveLatency, start)

	res, err := flows.RunResolveIdentity(ctx, credential, e.flows.Identity)
	if err != nil {
		return Identity{}, err
	}
	if res.Anonymous {
		return AnonymousIdentity(), nil
	}
	return newIdentity(res.ID, res.UUID, res.Permissions), nil
}
