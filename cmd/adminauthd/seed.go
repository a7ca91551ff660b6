package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	adminAuth "github.com/MrEthical07/adminAuth"
	"github.com/MrEthical07/adminAuth/memstore"
	"github.com/MrEthical07/adminAuth/sqlstore"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	email    string
	phone    string
	password string
}

func newSeedCmd(a *app) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the full-access admin account",
		Long: `Creates an active account holding every catalogue permission. Re-running
is safe: an existing account keeps its password and only gains missing grants.

The password is read from --password or ADMINAUTH_ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.password == "" {
				opts.password = os.Getenv("ADMINAUTH_ADMIN_PASSWORD")
			}
			return a.seed(cmd.Context(), *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "admin phone (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func (a *app) seed(ctx context.Context, opts seedOptions, out io.Writer) error {
	if opts.password == "" {
		return errors.New("admin password required (--password or ADMINAUTH_ADMIN_PASSWORD)")
	}
	if !memstore.IsEmail(opts.email) {
		return fmt.Errorf("invalid email %q", opts.email)
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{Path: a.cfg.DBPath})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	engine, err := adminAuth.New().
		WithConfig(a.cfg.Auth).
		WithUserDirectory(store).
		WithPermissionStore(store).
		WithLogger(a.logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	salt, hash, err := engine.HashPassword(opts.password)
	if err != nil {
		return err
	}

	account, created, err := store.SeedAdmin(ctx, sqlstore.NewUser{
		Email:        opts.email,
		Phone:        opts.phone,
		Salt:         salt,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	a.logger.Info("admin seeded", "uuid", account.UUID, "created", created)
	_, err = fmt.Fprintf(out, "%s\n", account.UUID)
	return err
}
