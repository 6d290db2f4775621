package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/session"
)

// Path is the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	relay *auth.Service
}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error {
	if app == nil || cfg == nil || relay == nil {
		return handler.ErrNilACR
	}

	s.cfg = cfg
	s.relay = relay

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout signs the user out at the provider, expires the session cookies and
// redirects to the login page. Provider failures keep the session.
func (s *Service) Logout(c *fiber.Ctx) error {
	if err := s.relay.Logout(session.ActionStore(c, handler.CookieOptions(s.cfg))); err != nil {
		log.Error().Err(err).Msg("logout failed")
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.Redirect(handler.LoginPath)
}
