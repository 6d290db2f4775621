// Package register serves the sign up page.
package register

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/navigation"
	"github.com/authrelay/authrelay/internal/web/session"
)

const (
	// Path is the path to the register page.
	Path = "/auth/register"

	// TemplateName is the name of the register template.
	TemplateName = "register"

	// MsgConfirmEmail is shown when the provider requires an email confirmation.
	MsgConfirmEmail = "Check your email to confirm your account."
)

// Service is the register handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	relay *auth.Service
}

// Handler is the register handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the register handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error {
	if app == nil || cfg == nil || relay == nil {
		return handler.ErrNilACR
	}

	s.cfg = cfg
	s.relay = relay

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get renders the empty register form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.Map{})
}

// Post creates the account. When the provider signs the new user in right away
// the user goes to the dashboard, otherwise the form asks to confirm the email.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(auth.Credentials)

	if err := c.BodyParser(creds); err != nil {
		log.Debug().Err(err).Msg("can't parse register form")
		return s.render(c, fiber.Map{"error": "invalid form data"})
	}

	if err := s.relay.Register(session.ActionStore(c, handler.CookieOptions(s.cfg)), *creds); err != nil {
		return s.render(c, fiber.Map{
			"error": err.Error(),
			"Name":  creds.Name,
			"Email": creds.Email,
		})
	}

	// the action store already carries a new session on the request
	if s.relay.CurrentSession(session.ReadOnlyStore(c)) != nil {
		return c.Redirect(handler.DashboardPath)
	}

	return s.render(c, fiber.Map{"info": MsgConfirmEmail, "Email": creds.Email})
}

func (s *Service) render(c *fiber.Ctx, data fiber.Map) error {
	data["Title"] = s.cfg.Title
	data["Navigation"] = navigation.NewContext("Create account", navigation.PageRegister, nil)

	return c.Render(TemplateName, data, handler.BaseLayout)
}
