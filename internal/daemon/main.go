// Package daemon wires config, logging, the auth relay and the web service together.
package daemon

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/logger"
	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it was shut down by a signal.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	go func() {
		if err := d.webService.Start(addr); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	log.Info().Str("addr", addr).Str("url", d.cfg.Webserver.URL).Msg("web service started")

	d.webService.WaitShutdown()

	return nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	connector, err := NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	relay, err := auth.NewService(func(store supabase.CookieStore) auth.Provider {
		return connector.Connect(store)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create auth relay")
	}

	webService, err := web.New(cfg, relay)
	if err != nil {
		return nil, errors.Wrap(err, "create web service")
	}

	log.Debug().Str("cookie", connector.Key()).Msg("auth relay ready")

	return &Daemon{
		cfg:        cfg,
		webService: webService,
	}, nil
}

// NewConnector creates the provider connector from cfg.
func NewConnector(cfg *config.Config) (*supabase.Connector, error) {
	cookie := supabase.DefaultCookieOptions()
	cookie.Domain = cfg.Webserver.Domain

	connector, err := supabase.NewConnector(supabase.Options{
		URL:        cfg.Supabase.URL,
		AnonKey:    cfg.Supabase.AnonKey,
		StorageKey: cfg.Supabase.CookieName,
		Cookie:     cookie,
		Timeout:    cfg.Supabase.Timeout.Duration,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create supabase connector")
	}

	return connector, nil
}
