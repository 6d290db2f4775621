package login

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/web/handler"
	authmw "github.com/authrelay/authrelay/internal/web/middleware/auth"
	"github.com/authrelay/authrelay/internal/web/navigation"
	"github.com/authrelay/authrelay/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	relay *auth.Service
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error {
	if app == nil || cfg == nil || relay == nil {
		return handler.ErrNilACR
	}

	s.cfg = cfg
	s.relay = relay

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering. Signed in users go to the dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	if authmw.CurrentUser(c) != nil {
		return c.Redirect(handler.DashboardPath)
	}

	return s.render(c, "", "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(auth.Credentials)

	if err := c.BodyParser(creds); err != nil {
		log.Debug().Err(err).Msg("can't parse login form")
		return s.render(c, "", "invalid form data")
	}

	if err := s.relay.Login(session.ActionStore(c, handler.CookieOptions(s.cfg)), *creds); err != nil {
		return s.render(c, creds.Email, err.Error())
	}

	return c.Redirect(handler.DashboardPath)
}

func (s *Service) render(c *fiber.Ctx, email, errMsg string) error {
	nav := navigation.NewContext("Sign in", navigation.PageLogin, nil)

	data := fiber.Map{
		"Title":      s.cfg.Title,
		"Navigation": nav,
		"Email":      email,
	}

	if errMsg != "" {
		data["error"] = errMsg
	}

	return c.Render(TemplateName, data, handler.BaseLayout)
}
