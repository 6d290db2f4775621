package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/web/session"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error
}

// CookieOptions returns the cookie store options for cfg.
// Cookies are Secure unless dev mode is enabled.
func CookieOptions(cfg *config.Config) session.Options {
	return session.Options{Secure: !cfg.DevMode}
}
