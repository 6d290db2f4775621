package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	relay "github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/web/session"
)

const (
	// LocalsUser is the fiber.Locals key of the authenticated *supabase.User.
	LocalsUser = "CurrentUser"

	defaultLoginPath = "/login"
)

// defaultPublicPrefixes are reachable without a user.
var defaultPublicPrefixes = []string{"/login", "/auth"} //nolint:gochecknoglobals

// Config defines the config for the middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Relay performs the current user lookup.
	//
	// Required.
	Relay *relay.Service

	// Cookies are applied to every cookie written while refreshing the session.
	Cookies session.Options

	// LoginPath is the redirect target for requests without a user.
	//
	// Optional. Default: "/login"
	LoginPath string

	// PublicPrefixes are path prefixes that do not require a user.
	//
	// Optional. Default: "/login", "/auth"
	PublicPrefixes []string
}

func configDefault(cfg Config) Config {
	if cfg.Relay == nil {
		panic("auth middleware: relay can not be nil")
	}

	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}

	if len(cfg.PublicPrefixes) == 0 {
		cfg.PublicPrefixes = defaultPublicPrefixes
	}

	return cfg
}

// New creates the request session middleware.
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		// Nothing may read or write the response between binding the store and the
		// user lookup, otherwise stale cookies leak to the client.
		user := cfg.Relay.CurrentUser(session.RequestStore(c, cfg.Cookies))

		if user == nil && !IsPublicPath(c.Path(), cfg.PublicPrefixes) {
			// a fresh redirect response does not carry the staged cookies
			c.Response().Header.DelAllCookies()
			return c.Redirect(loginURL(c, cfg.LoginPath))
		}

		if user != nil {
			c.Locals(LocalsUser, user)
		}

		return c.Next()
	}
}

// IsPublicPath reports whether path starts with one of the prefixes.
func IsPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// CurrentUser returns the user stored by the middleware, nil when there is none.
func CurrentUser(c *fiber.Ctx) *supabase.User {
	user, _ := c.Locals(LocalsUser).(*supabase.User)
	return user
}

// loginURL keeps the query string of the original request.
func loginURL(c *fiber.Ctx, loginPath string) string {
	query := c.Request().URI().QueryString()
	if len(query) == 0 {
		return loginPath
	}

	return loginPath + "?" + string(query)
}
