package adminAuth

import (
	"context"
	"errors"
)

// UserProfile returns the public profile of the account identified by uuid.
// An unknown uuid yields an *AccountNotFoundError.
func (e *Engine) UserProfile(ctx context.Context, uuid string) (PublicProfile, error) {
	if e == nil || e.directory == nil {
		return PublicProfile{}, ErrEngineNotReady
	}

	account, err := e.directory.GetByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicProfile{}, &AccountNotFoundError{UUID: uuid}
		}
		return PublicProfile{}, backendError(err)
	}
	return account.Profile(), nil
}
