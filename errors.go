package adminAuth

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/adminAuth/jwt"
	"github.com/MrEthical07/adminAuth/password"
)

var (
	// ErrInvalidCredentials covers a wrong password and a login string that
	// matched zero or several accounts. The cases are deliberately merged.
	ErrInvalidCredentials = errors.New("invalid login or password")
	// ErrAccountNotActive is returned when the matched account is deactivated.
	ErrAccountNotActive = errors.New("account not active")
	// ErrAccountLocked is returned when the matched account is locked out.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidToken covers every session token defect. Callers cannot tell
	// a bad signature from an expired or foreign token.
	ErrInvalidToken = jwt.ErrInvalidToken
	// ErrNotAuthenticated is returned by guards when no identity is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned by guards when the identity lacks a capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInternalHash signals malformed hashing input (empty salt or password).
	ErrInternalHash = password.ErrInvalidArgument
	// ErrAccountNotFound is the UserDirectory contract error for absent accounts.
	ErrAccountNotFound = errors.New("account not found")
	// ErrBackendUnavailable wraps directory, store and cache failures.
	ErrBackendUnavailable = errors.New("auth backend unavailable")
	// ErrEngineNotReady is returned when an Engine was not built by Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// MessageKey is a stable machine-readable error identifier sent to clients.
type MessageKey string

const (
	MessageInvalidLoginOrPassword MessageKey = "Invalid_Login_Or_Password"
	MessageWrongToken             MessageKey = "Wrong_Authentication_Token"
	MessageNotAuthenticated       MessageKey = "User_Not_Authenticated"
	MessageNotAuthorized          MessageKey = "User_Not_Authorized"
	MessageNotActive              MessageKey = "User_Is_Not_Active"
	MessageLockedOut              MessageKey = "User_Is_Locked_Out"
	MessageUserDoesNotExist       MessageKey = "User_Does_Not_Exist"
	MessageInternal               MessageKey = "Internal_Server_Error"
)

// AccountNotFoundError reports a profile lookup for an unknown uuid. It
// matches ErrAccountNotFound under errors.Is.
type AccountNotFoundError struct {
	UUID string
}

// Error names the missing uuid.
func (e *AccountNotFoundError) Error() string {
	return "account not found: " + e.UUID
}

// Is matches ErrAccountNotFound.
func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// ResponseError is the boundary form of an engine error: an HTTP status, a
// message key and optional positional arguments. It never carries internal
// error text.
type ResponseError struct {
	Status int
	Key    MessageKey
	Args   []any
}

// Error returns the message key.
func (e *ResponseError) Error() string {
	return string(e.Key)
}

// AsResponseError classifies err for the request boundary. Unknown errors,
// including backend failures and ErrInternalHash, map to 500.
func AsResponseError(err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}

	var nf *AccountNotFoundError
	if errors.As(err, &nf) {
		return &ResponseError{Status: http.StatusBadRequest, Key: MessageUserDoesNotExist, Args: []any{nf.UUID}}
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return &ResponseError{Status: http.StatusBadRequest, Key: MessageInvalidLoginOrPassword}
	case errors.Is(err, ErrAccountNotActive):
		return &ResponseError{Status: http.StatusBadRequest, Key: MessageNotActive}
	case errors.Is(err, ErrAccountLocked):
		return &ResponseError{Status: http.StatusBadRequest, Key: MessageLockedOut}
	case errors.Is(err, ErrInvalidToken):
		return &ResponseError{Status: http.StatusUnauthorized, Key: MessageWrongToken}
	case errors.Is(err, ErrNotAuthenticated):
		return &ResponseError{Status: http.StatusUnauthorized, Key: MessageNotAuthenticated}
	case errors.Is(err, ErrForbidden):
		return &ResponseError{Status: http.StatusForbidden, Key: MessageNotAuthorized}
	default:
		return &ResponseError{Status: http.StatusInternalServerError, Key: MessageInternal}
	}
}
