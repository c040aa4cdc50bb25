// Command optoken mints an operator bearer token for the manual /test-call endpoint.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lead-dialer/internal/auth"
	"lead-dialer/internal/config"
	"lead-dialer/pkg/logger"
)

func main() {
	operator := flag.String("operator", "", "operator name or email recorded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)

	if *ttl > 0 {
		cfg.Auth.TokenTTL = *ttl
	}
	m, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	tok, err := m.Issue(time.Now(), *operator)
	if err != nil {
		log.Error("token issuance failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
