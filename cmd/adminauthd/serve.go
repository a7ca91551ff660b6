package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adminAuth "github.com/MrEthical07/adminAuth"
	"github.com/MrEthical07/adminAuth/internal/bootstrap"
	"github.com/MrEthical07/adminAuth/metrics/export/prometheus"
	"github.com/MrEthical07/adminAuth/sqlstore"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	store, err := sqlstore.Open(ctx, sqlstore.Config{Path: a.cfg.DBPath})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	engine, err := a.buildEngine(ctx, store)
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, w := range a.cfg.Auth.Lint().BySeverity(adminAuth.LintMedium) {
		a.logger.Warn("auth config warning", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}
	report := engine.SecurityReport()
	a.logger.Info("auth engine ready",
		"id_cache", report.IDCacheBackend,
		"token_ttl", report.TokenTTL.String(),
		"lockout_threshold", report.LockoutThreshold,
	)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           newRouter(engine, store, prometheus.NewPrometheusExporter(engine).Handler(), a.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// buildEngine wires the engine to store, with Redis backing the id cache when
// a URL is configured.
func (a *app) buildEngine(ctx context.Context, store *sqlstore.Store) (*adminAuth.Engine, error) {
	registry := adminAuth.NewNotificationRegistry(a.logger)
	registry.SubscribeAll(adminAuth.LogHandler(a.logger), adminAuth.AllEvents()...)

	b := adminAuth.New().
		WithConfig(a.cfg.Auth).
		WithUserDirectory(store).
		WithPermissionStore(store).
		WithLogger(a.logger).
		WithNotificationRegistry(registry)

	if a.cfg.RedisURL != "" {
		client, err := bootstrap.ConnectRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b = b.WithRedis(client)
	}

	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}
