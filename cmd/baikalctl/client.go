package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/baikal-ai/baikalctl/internal/config"
	"github.com/baikal-ai/baikalctl/internal/gateway"
	"github.com/baikal-ai/baikalctl/internal/platform"
	"github.com/baikal-ai/baikalctl/internal/session"
)

// console bundles the configured client and the typed collection views
// every command works against.
type console struct {
	cfg      config.Config
	sessions *session.Store
	client   *gateway.Client

	auth        *platform.Auth
	docs        *platform.Documents
	automations *platform.Automations
	assistant   *platform.Assistant
}

// newConsole is a var so tests can point commands at a fake backend.
var newConsole = func() (*console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	sessions, err := session.Open(session.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	timeout, err := time.ParseDuration(cfg.API.Timeout)
	if err != nil {
		slog.Warn("invalid api.timeout, using default 30s", "value", cfg.API.Timeout, "error", err)
		timeout = 30 * time.Second
	}

	client := gateway.New(gateway.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  timeout,
		Sessions: sessions,
		OnAuthFailure: func() {
			printWarning("Session expired. Run 'baikalctl login' to sign in again.")
		},
		Logger: slog.Default(),
	})

	return buildConsole(cfg, sessions, client), nil
}

func buildConsole(cfg config.Config, sessions *session.Store, client *gateway.Client) *console {
	return &console{
		cfg:         cfg,
		sessions:    sessions,
		client:      client,
		auth:        platform.NewAuth(client, sessions),
		docs:        platform.NewDocuments(client),
		automations: platform.NewAutomations(client),
		assistant:   platform.NewAssistant(client),
	}
}
