// Package handlertest provides helpers for testing web handlers against a fake provider.
package handlertest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/supabase/supabasetest"
	authmw "github.com/authrelay/authrelay/internal/web/middleware/auth"
	"github.com/authrelay/authrelay/internal/web/session"
)

// Views is a minimal fiber Views engine. It writes the "error" field of the
// data (if any), otherwise the template name, and remembers the last render.
type Views struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

// Load implements fiber.Views.
func (*Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data any, _ ...string) error {
	m, _ := data.(fiber.Map)

	v.mu.Lock()
	v.name, v.data = name, m
	v.mu.Unlock()

	if msg, ok := m["error"].(string); ok && msg != "" {
		_, _ = io.WriteString(w, msg)
		return nil
	}

	_, _ = io.WriteString(w, name)

	return nil
}

// Last returns the name and data of the last render.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

// Env is a fake provider plus everything a handler needs.
type Env struct {
	Server    *supabasetest.Server
	Connector *supabase.Connector
	Relay     *auth.Service
	Config    *config.Config
	Views     *Views
	App       *fiber.App
}

// New starts a fake provider and an app with the request session middleware.
// Handlers are registered by the caller.
func New(t *testing.T) *Env {
	t.Helper()

	srv := supabasetest.NewServer(t)

	cfg := &config.Config{
		Title: "authrelay",
		Webserver: config.Webserver{
			URL:  "http://localhost",
			Port: 3000,
		},
		Supabase: config.Supabase{
			URL:     srv.URL,
			AnonKey: supabasetest.AnonKey,
		},
	}

	connector, err := supabase.NewConnector(supabase.Options{URL: cfg.Supabase.URL, AnonKey: cfg.Supabase.AnonKey})
	require.NoError(t, err)

	relay, err := auth.NewService(func(store supabase.CookieStore) auth.Provider {
		return connector.Connect(store)
	})
	require.NoError(t, err)

	views := new(Views)
	app := fiber.New(fiber.Config{Views: views})
	app.Use(authmw.New(authmw.Config{Relay: relay, Cookies: session.Options{Secure: !cfg.DevMode}}))

	return &Env{
		Server:    srv,
		Connector: connector,
		Relay:     relay,
		Config:    cfg,
		Views:     views,
		App:       app,
	}
}

// SignIn signs in at the provider and returns the resulting session cookie.
func (e *Env) SignIn(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	s, err := e.Connector.Connect(discard{}).SignInWithPassword(email, password)
	require.NoError(t, err)

	value, err := supabase.EncodeSession(s)
	require.NoError(t, err)

	return &http.Cookie{Name: e.Connector.Key(), Value: value}
}

// Do sends req and returns the response with its body read.
func (e *Env) Do(t *testing.T, req *http.Request, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// Get sends a GET request.
func (e *Env) Get(t *testing.T, target string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	return e.Do(t, httptest.NewRequest(http.MethodGet, target, nil), cookies...)
}

// PostForm sends a url encoded form.
func (e *Env) PostForm(t *testing.T, target string, form url.Values, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return e.Do(t, req, cookies...)
}

// PostJSON sends a JSON body.
func (e *Env) PostJSON(t *testing.T, target, body string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return e.Do(t, req, cookies...)
}

// SessionCookie returns the session cookie set on resp, nil if there is none.
func (e *Env) SessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == e.Connector.Key() {
			return c
		}
	}

	return nil
}

// discard is a cookie store without cookies that drops every write.
type discard struct{}

func (discard) GetAll() []supabase.Cookie { return nil }

func (discard) SetAll([]supabase.Cookie) error { return nil }
