// Command adminauthd serves the admin authentication API and provisions its
// SQLite store.
//
// Subcommands:
//
//	adminauthd serve                    start the HTTP server
//	adminauthd seed --email --phone     create the full-access admin account
//	adminauthd hash-password            print a salt and hash for a password
//
// Configuration comes from --config (YAML) and ADMINAUTH_* environment
// variables.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
