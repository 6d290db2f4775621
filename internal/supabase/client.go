package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	authPath        = "/auth/v1"
	defaultTimeout  = 10 * time.Second
	storageKeyFmt   = "sb-%s-auth-token"
	codeSessionGone = "session_not_found"
)

// Options configure a Connector.
type Options struct {
	// URL is the public project URL, e.g. https://abcdefgh.supabase.co.
	URL string

	// AnonKey is the public anonymous key of the project.
	AnonKey string

	// StorageKey overrides the cookie name derived from the project URL.
	StorageKey string

	// Cookie are the options of every session cookie written.
	Cookie CookieOptions

	// Timeout bounds every request to the provider. Zero means 10 seconds.
	Timeout time.Duration
}

// Connector creates connection handles for one project.
type Connector struct {
	api        *gotrue
	storageKey string
	cookie     CookieOptions
	now        func() time.Time
}

// NewConnector validates the options and returns a Connector.
func NewConnector(opts Options) (*Connector, error) {
	if opts.URL == "" {
		return nil, ErrEmptyURL
	}

	if opts.AnonKey == "" {
		return nil, ErrEmptyAnonKey
	}

	projectURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse supabase project url")
	}

	if projectURL.Scheme == "" || projectURL.Host == "" {
		return nil, errors.Wrap(ErrInvalidURL, opts.URL)
	}

	if opts.StorageKey == "" {
		opts.StorageKey = StorageKey(projectURL)
	}

	if opts.Cookie == (CookieOptions{}) {
		opts.Cookie = DefaultCookieOptions()
	}

	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &Connector{
		api: &gotrue{
			baseURL: strings.TrimRight(opts.URL, "/") + authPath,
			anonKey: opts.AnonKey,
			timeout: opts.Timeout,
		},
		storageKey: opts.StorageKey,
		cookie:     opts.Cookie,
		now:        time.Now,
	}, nil
}

// StorageKey derives the session cookie name from the first label of the project host.
func StorageKey(projectURL *url.URL) string {
	ref, _, _ := strings.Cut(projectURL.Hostname(), ".")
	return fmt.Sprintf(storageKeyFmt, ref)
}

// Key returns the session cookie name used by this connector.
func (c *Connector) Key() string {
	return c.storageKey
}

// Connect returns a new handle bound to store. Handles are not shared between requests.
func (c *Connector) Connect(store CookieStore) *Client {
	return &Client{
		api: c.api,
		storage: &cookieStorage{
			key:     c.storageKey,
			options: c.cookie,
			store:   store,
		},
		now: c.now,
	}
}

// Client is a connection handle bound to one CookieStore.
type Client struct {
	api     *gotrue
	storage *cookieStorage
	now     func() time.Time
}

// SignInWithPassword signs in with email and password and stores the new session.
func (c *Client) SignInWithPassword(email, password string) (*Session, error) {
	session := new(Session)

	err := c.api.call(fiber.MethodPost, pathPasswordGrant, "", passwordGrant{
		Email:    email,
		Password: password,
	}, session)
	if err != nil {
		return nil, err
	}

	session.fillExpiry(c.now())
	c.storage.save(session)

	return session, nil
}

// SignUp creates a user. Any stored session is dropped first. When the project
// confirms users automatically the returned session is stored and returned,
// otherwise the session is nil.
func (c *Client) SignUp(email, password string, data map[string]any) (*User, *Session, error) {
	c.storage.remove()

	body, err := c.api.do(fiber.MethodPost, pathSignup, "", signupRequest{
		Email:    email,
		Password: password,
		Data:     data,
	})
	if err != nil {
		return nil, nil, err
	}

	session := new(Session)
	if err = json.Unmarshal(body, session); err != nil {
		return nil, nil, errors.Wrap(err, "decode signup response")
	}

	if session.AccessToken != "" {
		session.fillExpiry(c.now())
		c.storage.save(session)

		return session.User, session, nil
	}

	user := new(User)
	if err = json.Unmarshal(body, user); err != nil {
		return nil, nil, errors.Wrap(err, "decode signup user")
	}

	return user, nil, nil
}

// SignOut revokes the session at the provider and removes the session cookies.
// A session already unknown to the provider is not an error.
func (c *Client) SignOut() error {
	session, err := c.loadSession()
	if err != nil {
		return err
	}

	if session != nil {
		err = c.api.call(fiber.MethodPost, pathLogout, session.AccessToken, nil, nil)
		if err != nil && !sessionGone(err) {
			return err
		}
	}

	c.storage.remove()

	return nil
}

// GetUser returns the user of the stored session as seen by the provider.
// The session is refreshed first when it is about to expire.
func (c *Client) GetUser() (*User, error) {
	session, err := c.loadSession()
	if err != nil {
		return nil, err
	}

	if session == nil {
		return nil, ErrSessionMissing
	}

	user := new(User)
	if err = c.api.call(fiber.MethodGet, pathUser, session.AccessToken, nil, user); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Code == codeSessionGone {
			c.storage.remove()
		}

		return nil, err
	}

	return user, nil
}

// GetSession returns the stored session, refreshed when it is about to expire.
// It does not ask the provider to validate the access token.
func (c *Client) GetSession() (*Session, error) {
	return c.loadSession()
}

// loadSession reads the session from the cookies and refreshes it if needed.
// Unreadable cookies count as no session.
func (c *Client) loadSession() (*Session, error) {
	session, err := c.storage.load()
	if err != nil {
		log.Debug().Err(err).Str("key", c.storage.key).Msg("ignoring unreadable auth cookie")
		return nil, nil //nolint:nilnil
	}

	if session == nil {
		return nil, nil //nolint:nilnil
	}

	if session.AccessToken == "" {
		c.storage.remove()
		return nil, nil //nolint:nilnil
	}

	if !session.needsRefresh(c.now()) {
		return session, nil
	}

	return c.refresh(session.RefreshToken)
}

// refresh exchanges the refresh token for a new session. Stored cookies are
// removed unless the failure is transient.
func (c *Client) refresh(refreshToken string) (*Session, error) {
	if refreshToken == "" {
		c.storage.remove()
		return nil, ErrSessionMissing
	}

	session := new(Session)

	err := c.api.call(fiber.MethodPost, pathRefreshGrant, "", refreshGrant{RefreshToken: refreshToken}, session)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			c.storage.remove()
		}

		return nil, err
	}

	session.fillExpiry(c.now())
	c.storage.save(session)

	return session, nil
}

// sessionGone reports provider answers meaning the session no longer exists.
func sessionGone(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
