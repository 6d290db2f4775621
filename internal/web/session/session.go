// Package session adapts fiber request contexts to supabase.CookieStore.
//
// The three stores differ only in what a cookie write does:
//   - RequestStore (middleware): updates the request cookies for downstream handlers and
//     replaces every cookie staged on the response so far
//   - ActionStore (handlers): updates the request cookies and adds to the response
//   - ReadOnlyStore (rendering): refuses writes with ErrReadOnly
package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/authrelay/authrelay/internal/supabase"
)

// ErrReadOnly is returned by the SetAll method of a ReadOnlyStore.
var ErrReadOnly = errors.New("cookies can not be modified in this context")

// expiredAt is sent as Expires for deleted cookies.
var expiredAt = time.Unix(0, 0).UTC() //nolint:gochecknoglobals

// Options are applied on top of the options the provider client asks for.
type Options struct {
	// Secure forces the Secure attribute on every auth cookie.
	Secure bool
}

type store struct {
	c         *fiber.Ctx
	opts      Options
	freshResp bool
}

// RequestStore returns the store used by the request session middleware.
func RequestStore(c *fiber.Ctx, opts Options) supabase.CookieStore {
	return &store{c: c, opts: opts, freshResp: true}
}

// ActionStore returns the store used by handlers that change the session.
func ActionStore(c *fiber.Ctx, opts Options) supabase.CookieStore {
	return &store{c: c, opts: opts}
}

// ReadOnlyStore returns a store that only reads the request cookies.
func ReadOnlyStore(c *fiber.Ctx) supabase.CookieStore {
	return readOnlyStore{c: c}
}

func (s *store) GetAll() []supabase.Cookie {
	return requestCookies(s.c)
}

func (s *store) SetAll(cookies []supabase.Cookie) error {
	for _, c := range cookies {
		if c.Options.MaxAge < 0 {
			s.c.Request().Header.DelCookie(c.Name)
			continue
		}

		s.c.Request().Header.SetCookie(c.Name, c.Value)
	}

	if s.freshResp {
		s.c.Response().Header.DelAllCookies()
	}

	for _, c := range cookies {
		s.c.Cookie(s.toFiber(c))
	}

	return nil
}

func (s *store) toFiber(c supabase.Cookie) *fiber.Cookie {
	fc := &fiber.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Options.Path,
		Domain:   c.Options.Domain,
		MaxAge:   c.Options.MaxAge,
		Expires:  c.Options.Expires,
		Secure:   c.Options.Secure || s.opts.Secure,
		HTTPOnly: c.Options.HTTPOnly,
		SameSite: c.Options.SameSite,
	}

	if c.Options.MaxAge < 0 {
		fc.MaxAge = 0
		fc.Expires = expiredAt
	}

	return fc
}

type readOnlyStore struct {
	c *fiber.Ctx
}

func (s readOnlyStore) GetAll() []supabase.Cookie {
	return requestCookies(s.c)
}

func (readOnlyStore) SetAll([]supabase.Cookie) error {
	return ErrReadOnly
}

// requestCookies copies the request cookies in header order.
func requestCookies(c *fiber.Ctx) []supabase.Cookie {
	var cookies []supabase.Cookie

	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		cookies = append(cookies, supabase.Cookie{Name: string(key), Value: string(value)})
	})

	return cookies
}
