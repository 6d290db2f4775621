// Package api exposes the session relay as JSON endpoints below /auth/api.
//
// Mutating endpoints answer {"error": null} on success and {"error": "<provider message>"}
// otherwise. The status code follows the provider status; transport failures map to 502.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/session"
)

// Path is the prefix of all API routes.
const Path = "/auth/api"

// UserResponse is the body of GET /user.
type UserResponse struct {
	User *supabase.User `json:"user"`
}

// SessionResponse is the body of GET /session.
type SessionResponse struct {
	Session *supabase.Session `json:"session"`
}

// Service is the JSON API handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	relay *auth.Service
}

// Handler is the JSON API handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the API routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error {
	if app == nil || cfg == nil || relay == nil {
		return handler.ErrNilACR
	}

	s.cfg = cfg
	s.relay = relay

	app.Route(Path, func(router fiber.Router) {
		router.Post("/login", s.Login)
		router.Post("/register", s.Register)
		router.Post("/logout", s.Logout)
		router.Get("/user", s.User)
		router.Get("/session", s.Session)
	})

	return nil
}

// Login relays a password sign in.
func (s *Service) Login(c *fiber.Ctx) error {
	var creds auth.Credentials

	if err := c.BodyParser(&creds); err != nil {
		return badRequest(c, err)
	}

	return result(c, s.relay.Login(s.store(c), creds))
}

// Register relays a sign up.
func (s *Service) Register(c *fiber.Ctx) error {
	var creds auth.Credentials

	if err := c.BodyParser(&creds); err != nil {
		return badRequest(c, err)
	}

	return result(c, s.relay.Register(s.store(c), creds))
}

// Logout relays a sign out.
func (s *Service) Logout(c *fiber.Ctx) error {
	return result(c, s.relay.Logout(s.store(c)))
}

// User returns the current user, null when there is none.
func (s *Service) User(c *fiber.Ctx) error {
	return c.JSON(UserResponse{User: s.relay.CurrentUser(s.store(c))})
}

// Session returns the current session, null when there is none.
func (s *Service) Session(c *fiber.Ctx) error {
	return c.JSON(SessionResponse{Session: s.relay.CurrentSession(s.store(c))})
}

func (s *Service) store(c *fiber.Ctx) supabase.CookieStore {
	return session.ActionStore(c, handler.CookieOptions(s.cfg))
}

func badRequest(c *fiber.Ctx, err error) error {
	log.Debug().Err(err).Str("path", c.Path()).Msg("can't parse request body")

	msg := "invalid request body"

	return c.Status(fiber.StatusBadRequest).JSON(auth.Result{Error: &msg})
}

func result(c *fiber.Ctx, err error) error {
	res := auth.ResultOf(err)

	if !res.OK() {
		log.Debug().Err(err).Str("path", c.Path()).Msg("relay call failed")
		c.Status(StatusOf(err))
	}

	return c.JSON(res)
}

// StatusOf maps a relay error to the HTTP status of the API response.
func StatusOf(err error) int {
	var apiErr *supabase.Error

	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &apiErr) && apiErr.Status == 0:
		return fiber.StatusBadGateway
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, supabase.ErrSessionMissing):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
