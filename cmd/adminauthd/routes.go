package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	adminAuth "github.com/MrEthical07/adminAuth"
	"github.com/MrEthical07/adminAuth/middleware"
	"github.com/MrEthical07/adminAuth/permission"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const uuidPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      adminAuth.PublicProfile `json:"user"`
	ExpiresIn int64                   `json:"expiresIn"`
}

type meResponse struct {
	UUID        string                  `json:"uuid"`
	Permissions []permission.Permission `json:"permissions"`
}

func newRouter(engine *adminAuth.Engine, store accountAdmin, metrics http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Post("/login", loginHandler(engine))
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identify(engine))

		r.With(middleware.Guard(middleware.RequireAuthenticated())).
			Get("/me", meHandler)
		r.With(middleware.Guard(middleware.RequirePermission(permission.PreviewUserProfile))).
			Get("/users/{uuid:"+uuidPattern+"}", userProfileHandler(engine))
		r.Post("/logout", logoutHandler(engine))

		mountAdminRoutes(r, engine, store)
	})

	return r
}

func loginHandler(engine *adminAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
			middleware.WriteError(w, adminAuth.ErrInvalidCredentials)
			return
		}

		res, err := engine.Login(middleware.RequestContext(r), body.Login, body.Password)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		middleware.SetTokenCookie(w, engine.CookieConfig(), res.Token, res.ExpiresIn)
		middleware.WriteJSON(w, http.StatusOK, loginResponse{
			User:      res.Profile,
			ExpiresIn: int64(res.ExpiresIn / time.Second),
		})
	}
}

func logoutHandler(engine *adminAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		middleware.ClearTokenCookie(w, engine.CookieConfig())
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, meResponse{
		UUID:        id.UserUUID(),
		Permissions: id.Permissions(),
	})
}

func userProfileHandler(engine *adminAuth.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := engine.UserProfile(r.Context(), chi.URLParam(r, "uuid"))
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, profile)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
