// Package dashboard provides the dashboard handler showing the signed in user and session.
package dashboard

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/web/handler"
	authmw "github.com/authrelay/authrelay/internal/web/middleware/auth"
	"github.com/authrelay/authrelay/internal/web/navigation"
	"github.com/authrelay/authrelay/internal/web/session"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.DashboardPath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard"
)

// Attribute is a key/value row of the user table.
type Attribute struct {
	Key   string
	Value string
}

// Data represents the complete dashboard data.
type Data struct {
	User       *supabase.User
	Name       string
	Attributes []Attribute
	ExpiresAt  time.Time
	ExpiresIn  time.Duration
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	relay *auth.Service
	now   func() time.Time
}

// Handler is the dashboard handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, relay *auth.Service) error {
	if app == nil || cfg == nil || relay == nil {
		return handler.ErrNilACR
	}

	s.cfg = cfg
	s.relay = relay
	s.now = time.Now

	app.Get(Path, s.Get)

	return nil
}

// Get handles the dashboard page rendering. The session is read only here; the
// middleware already refreshed it for this request.
func (s *Service) Get(c *fiber.Ctx) error {
	user := authmw.CurrentUser(c)
	if user == nil {
		return c.Redirect(handler.LoginPath)
	}

	nav := navigation.NewContext("Dashboard", navigation.PageDashboard, user).
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Dashboard", Path, true)

	data := Data{
		User:       user,
		Name:       user.DisplayName(),
		Attributes: attributes(user),
	}

	if sess := s.relay.CurrentSession(session.ReadOnlyStore(c)); sess != nil {
		data.ExpiresAt = sess.Expiry()
		if !data.ExpiresAt.IsZero() {
			data.ExpiresIn = data.ExpiresAt.Sub(s.now()).Truncate(time.Second)
		}
	}

	log.Debug().
		Str("user_id", user.ID.String()).
		Time("expires_at", data.ExpiresAt).
		Msg("dashboard rendered")

	return c.Render(TemplateName, fiber.Map{
		"Title":      s.cfg.Title,
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}

// attributes lists the user fields and metadata shown on the dashboard.
func attributes(u *supabase.User) []Attribute {
	attrs := []Attribute{
		{Key: "id", Value: u.ID.String()},
		{Key: "email", Value: u.Email},
	}

	if u.Role != "" {
		attrs = append(attrs, Attribute{Key: "role", Value: u.Role})
	}

	if u.LastSignInAt != nil {
		attrs = append(attrs, Attribute{Key: "last sign in", Value: u.LastSignInAt.Format(time.RFC1123)})
	}

	keys := make([]string, 0, len(u.UserMetadata))
	for k := range u.UserMetadata {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if v, ok := u.UserMetadata[k].(string); ok {
			attrs = append(attrs, Attribute{Key: k, Value: v})
		}
	}

	return attrs
}
