package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	adminAuth "github.com/MrEthical07/adminAuth"
	"github.com/MrEthical07/adminAuth/memstore"
	"github.com/MrEthical07/adminAuth/middleware"
	"github.com/MrEthical07/adminAuth/permission"
	"github.com/MrEthical07/adminAuth/sqlstore"
	"github.com/go-chi/chi/v5"
)

const (
	emailMaxLength    = 100
	phoneMaxLength    = 16
	passwordMaxLength = 50
)

const (
	messageInvalidEmail        adminAuth.MessageKey = "Invalid_Email"
	messageEmailTooLong        adminAuth.MessageKey = "Email_To_Long"
	messageInvalidPhone        adminAuth.MessageKey = "Invalid_Phone"
	messagePhoneTooLong        adminAuth.MessageKey = "Phone_To_Long"
	messageInvalidPassword     adminAuth.MessageKey = "Invalid_Password"
	messagePasswordTooLong     adminAuth.MessageKey = "Password_To_Long"
	messageUserAlreadyExists   adminAuth.MessageKey = "User_Already_Exists"
	messageInvalidPermissionID adminAuth.MessageKey = "Invalid_Permission"
)

// accountAdmin is the write side of the account store used by the
// administrative routes. *sqlstore.Store satisfies it.
type accountAdmin interface {
	GetByUUID(ctx context.Context, uuid string) (adminAuth.UserAccount, error)
	CreateUser(ctx context.Context, u sqlstore.NewUser) (adminAuth.UserAccount, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Unlock(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64) error
	Grant(ctx context.Context, id, assignedBy int64, perms ...permission.Permission) error
	Revoke(ctx context.Context, id int64, perms ...permission.Permission) error
	GetPermissionsForUser(ctx context.Context, id int64) ([]permission.Permission, error)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type permissionsResponse struct {
	UUID        string                  `json:"uuid"`
	Permissions []permission.Permission `json:"permissions"`
}

// mountAdminRoutes registers the user and permission management routes. r must
// already carry middleware.Identify.
func mountAdminRoutes(r chi.Router, engine *adminAuth.Engine, store accountAdmin) {
	userPath := "/users/{uuid:" + uuidPattern + "}"
	guard := func(p permission.Permission) chi.Router {
		return r.With(middleware.Guard(middleware.RequirePermission(p)))
	}

	guard(permission.AddUser).Post("/users", createUserHandler(engine, store))
	guard(permission.ActivateUser).Post(userPath+"/activate", setActiveHandler(store, true))
	guard(permission.DeactivateUser).Post(userPath+"/deactivate", setActiveHandler(store, false))
	guard(permission.UnlockUser).Post(userPath+"/unlock", unlockHandler(store))
	guard(permission.DeleteUser).Delete(userPath, deleteUserHandler(store))

	permPath := "/permissions/{uuid:" + uuidPattern + "}"
	guard(permission.AddPermission).Post(permPath+"/{permissionId:[0-9]+}", grantHandler(store))
	guard(permission.DeletePermission).Delete(permPath+"/{permissionId:[0-9]+}", revokeHandler(store))
	guard(permission.DeletePermission).Delete(permPath, revokeHandler(store))
}

func validateNewUser(req createUserRequest) error {
	switch {
	case !memstore.IsEmail(req.Email):
		return badRequest(messageInvalidEmail)
	case len(req.Email) > emailMaxLength:
		return badRequest(messageEmailTooLong)
	case !isPhone(req.Phone):
		return badRequest(messageInvalidPhone)
	case len(req.Phone) > phoneMaxLength:
		return badRequest(messagePhoneTooLong)
	case strings.TrimSpace(req.Password) == "":
		return badRequest(messageInvalidPassword)
	case len(req.Password) > passwordMaxLength:
		return badRequest(messagePasswordTooLong)
	}
	return nil
}

// isPhone accepts digits with an optional leading plus sign.
func isPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func badRequest(key adminAuth.MessageKey, args ...any) *adminAuth.ResponseError {
	return &adminAuth.ResponseError{Status: http.StatusBadRequest, Key: key, Args: args}
}

// accountFromPath loads the account named by the {uuid} path parameter.
func accountFromPath(r *http.Request, store accountAdmin) (adminAuth.UserAccount, error) {
	id := chi.URLParam(r, "uuid")
	account, err := store.GetByUUID(r.Context(), id)
	if errors.Is(err, adminAuth.ErrAccountNotFound) {
		return adminAuth.UserAccount{}, &adminAuth.AccountNotFoundError{UUID: id}
	}
	return account, err
}

func createUserHandler(engine *adminAuth.Engine, store accountAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
			middleware.WriteError(w, badRequest(messageInvalidEmail))
			return
		}
		if err := validateNewUser(body); err != nil {
			middleware.WriteError(w, err)
			return
		}

		salt, hash, err := engine.HashPassword(body.Password)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		account, err := store.CreateUser(r.Context(), sqlstore.NewUser{
			Email:        body.Email,
			Phone:        body.Phone,
			Salt:         salt,
			PasswordHash: hash,
			IsActive:     true,
		})
		if errors.Is(err, sqlstore.ErrDuplicateAccount) {
			middleware.WriteError(w, badRequest(messageUserAlreadyExists, body.Email, body.Phone))
			return
		}
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusCreated, account.Profile())
	}
}

func setActiveHandler(store accountAdmin, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromPath(r, store)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		if account.IsActive != active {
			if err := store.SetActive(r.Context(), account.ID, active); err != nil {
				middleware.WriteError(w, err)
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, active)
	}
}

func unlockHandler(store accountAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromPath(r, store)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		if err := store.Unlock(r.Context(), account.ID); err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, true)
	}
}

func deleteUserHandler(store accountAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromPath(r, store)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		if err := store.DeleteUser(r.Context(), account.ID); err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, account.UUID)
	}
}

// permissionFromPath parses {permissionId}. ok is false when the segment is
// absent.
func permissionFromPath(r *http.Request) (p permission.Permission, ok bool, err error) {
	raw := chi.URLParam(r, "permissionId")
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || !permission.Valid(permission.Permission(n)) {
		return 0, true, badRequest(messageInvalidPermissionID, raw)
	}
	return permission.Permission(n), true, nil
}

func grantHandler(store accountAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _, err := permissionFromPath(r)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		account, err := accountFromPath(r, store)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		caller, _ := middleware.IdentityFromContext(r.Context())
		if err := store.Grant(r.Context(), account.ID, caller.UserID(), p); err != nil {
			middleware.WriteError(w, err)
			return
		}
		writePermissions(w, r, store, account, http.StatusCreated)
	}
}

// revokeHandler removes one permission, or every permission the account
// holds when no code is given.
func revokeHandler(store accountAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, single, err := permissionFromPath(r)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		account, err := accountFromPath(r, store)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		perms := []permission.Permission{p}
		if !single {
			perms, err = store.GetPermissionsForUser(r.Context(), account.ID)
			if err != nil {
				middleware.WriteError(w, err)
				return
			}
		}
		if err := store.Revoke(r.Context(), account.ID, perms...); err != nil {
			middleware.WriteError(w, err)
			return
		}
		writePermissions(w, r, store, account, http.StatusOK)
	}
}

func writePermissions(w http.ResponseWriter, r *http.Request, store accountAdmin, account adminAuth.UserAccount, status int) {
	perms, err := store.GetPermissionsForUser(r.Context(), account.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, status, permissionsResponse{UUID: account.UUID, Permissions: perms})
}
