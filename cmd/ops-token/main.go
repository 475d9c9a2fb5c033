// Command ops-token prints a signed token for the operational API, using
// the same configuration as the server.
//
//	TASKMASTER_AUTH_JWT_SECRET=... ops-token -subject oncall
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/service/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ops-token:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ops-token", flag.ContinueOnError)
	subject := fs.String("subject", "", "operator or service the token is issued to (required)")
	lifetime := fs.Int("lifetime", 0, "token lifetime in minutes (default: auth.ops_token_lifetime_minutes)")
	secret := fs.String("secret", "", "signing secret (default: auth.jwt_secret from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	cfg := config.AuthConfig{JWTSecret: *secret, OpsTokenLifetimeMinutes: *lifetime}
	if cfg.JWTSecret == "" || cfg.OpsTokenLifetimeMinutes == 0 {
		loaded, err := config.LoadAuth()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = loaded.JWTSecret
		}
		if cfg.OpsTokenLifetimeMinutes == 0 {
			cfg.OpsTokenLifetimeMinutes = loaded.OpsTokenLifetimeMinutes
		}
	}

	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(context.Background(), *subject)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
