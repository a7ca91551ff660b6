package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/adminAuth/password"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a fresh salt and PBKDF2 hash for a password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			pw := strings.TrimRight(line, "\r\n")

			h, err := password.NewHasher(password.Config{
				Iterations:       a.cfg.Auth.Password.Iterations,
				KeyLength:        a.cfg.Auth.Password.KeyLength,
				SaltBytes:        a.cfg.Auth.Password.SaltBytes,
				MaxPasswordBytes: a.cfg.Auth.Password.MaxPasswordBytes,
			})
			if err != nil {
				return err
			}
			salt, err := h.GenerateSalt()
			if err != nil {
				return err
			}
			hash, err := h.Hash(salt, pw)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "salt=%s\nhash=%s\n", salt, hash)
			return err
		},
	}
}
