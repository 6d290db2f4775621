package supabase

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/supabase/supabasetest"
)

func newTestConnector(t *testing.T, srv *supabasetest.Server) *Connector {
	t.Helper()

	connector, err := NewConnector(Options{
		URL:        srv.URL,
		AnonKey:    supabasetest.AnonKey,
		StorageKey: "sb-test-auth-token",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	return connector
}

func TestNewConnector_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"missing url", Options{AnonKey: "k"}, ErrEmptyURL},
		{"missing key", Options{URL: "https://abc.supabase.co"}, ErrEmptyAnonKey},
		{"relative url", Options{URL: "abc.supabase.co", AnonKey: "k"}, ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnector(tt.opts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewConnector_Defaults(t *testing.T) {
	connector, err := NewConnector(Options{URL: "https://abcdefgh.supabase.co/", AnonKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, "sb-abcdefgh-auth-token", connector.Key())
	assert.Equal(t, "https://abcdefgh.supabase.co/auth/v1", connector.api.baseURL)
	assert.Equal(t, DefaultCookieOptions(), connector.cookie)
	assert.Equal(t, defaultTimeout, connector.api.timeout)
}

func TestStorageKey(t *testing.T) {
	u, err := url.Parse("http://127.0.0.1:54321")
	require.NoError(t, err)

	assert.Equal(t, "sb-127-auth-token", StorageKey(u))
}

func TestSignInWithPassword(t *testing.T) {
	srv := supabasetest.NewServer(t)
	id := srv.AddUser("alice@example.com", "secret", map[string]any{"name": "Alice"})
	connector := newTestConnector(t, srv)

	t.Run("valid credentials store the session", func(t *testing.T) {
		store := &memoryStore{}

		session, err := connector.Connect(store).SignInWithPassword("alice@example.com", "secret")
		require.NoError(t, err)
		require.NotNil(t, session.User)
		assert.Equal(t, id, session.User.ID.String())
		assert.Equal(t, "Alice", session.User.DisplayName())
		assert.Equal(t, []string{"sb-test-auth-token"}, store.names())
	})

	t.Run("invalid credentials relay the provider message", func(t *testing.T) {
		store := &memoryStore{}

		session, err := connector.Connect(store).SignInWithPassword("alice@example.com", "wrong")
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Equal(t, "Invalid login credentials", err.Error())

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "invalid_credentials", apiErr.Code)
		assert.False(t, apiErr.Retryable())
		assert.Empty(t, store.cookies)
	})
}

func TestGetUser(t *testing.T) {
	srv := supabasetest.NewServer(t)
	srv.AddUser("bob@example.com", "secret", nil)
	connector := newTestConnector(t, srv)

	t.Run("no cookie", func(t *testing.T) {
		user, err := connector.Connect(&memoryStore{}).GetUser()
		require.ErrorIs(t, err, ErrSessionMissing)
		assert.Nil(t, user)
		assert.Equal(t, 0, srv.Calls("user"))
	})

	t.Run("signed in", func(t *testing.T) {
		store := &memoryStore{}
		_, err := connector.Connect(store).SignInWithPassword("bob@example.com", "secret")
		require.NoError(t, err)

		user, err := connector.Connect(store).GetUser()
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", user.Email)
		assert.Equal(t, 1, srv.Calls("user"))
	})

	t.Run("revoked token", func(t *testing.T) {
		store := &memoryStore{}
		value, err := EncodeSession(&Session{AccessToken: "unknown", RefreshToken: "unknown"})
		require.NoError(t, err)
		store.cookies = []Cookie{{Name: "sb-test-auth-token", Value: value}}

		user, err := connector.Connect(store).GetUser()
		require.Error(t, err)
		assert.Nil(t, user)
	})

	t.Run("garbage cookie counts as no session", func(t *testing.T) {
		store := &memoryStore{cookies: []Cookie{{Name: "sb-test-auth-token", Value: "base64-###"}}}

		user, err := connector.Connect(store).GetUser()
		require.ErrorIs(t, err, ErrSessionMissing)
		assert.Nil(t, user)
	})
}

func TestGetUser_RefreshesExpiringSession(t *testing.T) {
	srv := supabasetest.NewServer(t)
	srv.AddUser("carol@example.com", "secret", nil)
	connector := newTestConnector(t, srv)

	store := &memoryStore{}
	first, err := connector.Connect(store).SignInWithPassword("carol@example.com", "secret")
	require.NoError(t, err)

	before := store.GetAll()

	// one minute before expiry is inside the refresh margin
	connector.SetClock(func() time.Time { return first.Expiry().Add(-time.Minute) })

	user, err := connector.Connect(store).GetUser()
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", user.Email)
	assert.Equal(t, 1, srv.Calls("token:refresh_token"))
	assert.NotEqual(t, before, store.GetAll())

	session, err := DecodeSession(combineChunks("sb-test-auth-token", store.GetAll()))
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, session.AccessToken)
	assert.NotEqual(t, first.RefreshToken, session.RefreshToken)
}

func TestGetSession_RefreshFailure(t *testing.T) {
	srv := supabasetest.NewServer(t)
	srv.AddUser("dave@example.com", "secret", nil)
	connector := newTestConnector(t, srv)

	signIn := func(t *testing.T) (*memoryStore, *Session) {
		t.Helper()

		store := &memoryStore{}
		session, err := connector.Connect(store).SignInWithPassword("dave@example.com", "secret")
		require.NoError(t, err)

		return store, session
	}

	t.Run("unknown refresh token removes the cookies", func(t *testing.T) {
		store, first := signIn(t)
		srv.SetRefreshStatus(0)
		connector.SetClock(func() time.Time { return first.Expiry().Add(time.Hour) })

		// a first refresh rotates the token, replaying the old cookie must fail
		stale := store.GetAll()
		_, err := connector.Connect(store).GetSession()
		require.NoError(t, err)

		replay := &memoryStore{cookies: stale}
		session, err := connector.Connect(replay).GetSession()
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Equal(t, "Invalid Refresh Token: Refresh Token Not Found", err.Error())
		assert.Empty(t, replay.cookies)
	})

	t.Run("gateway failure keeps the cookies", func(t *testing.T) {
		store, first := signIn(t)
		srv.SetRefreshStatus(http.StatusServiceUnavailable)
		t.Cleanup(func() { srv.SetRefreshStatus(0) })
		connector.SetClock(func() time.Time { return first.Expiry().Add(time.Hour) })

		session, err := connector.Connect(store).GetSession()
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Equal(t, []string{"sb-test-auth-token"}, store.names())
	})
}

func TestGetSession_NoNetworkWhenValid(t *testing.T) {
	srv := supabasetest.NewServer(t)
	srv.AddUser("erin@example.com", "secret", nil)
	connector := newTestConnector(t, srv)

	store := &memoryStore{}
	_, err := connector.Connect(store).SignInWithPassword("erin@example.com", "secret")
	require.NoError(t, err)

	session, err := connector.Connect(store).GetSession()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 0, srv.Calls("user"))
	assert.Equal(t, 0, srv.Calls("token:refresh_token"))

	empty, err := connector.Connect(&memoryStore{}).GetSession()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSignUp(t *testing.T) {
	srv := supabasetest.NewServer(t)
	connector := newTestConnector(t, srv)

	t.Run("unconfirmed user has no session", func(t *testing.T) {
		store := &memoryStore{}

		user, session, err := connector.Connect(store).SignUp("frank@example.com", "secret", map[string]any{"name": "Frank"})
		require.NoError(t, err)
		assert.Nil(t, session)
		assert.Equal(t, "Frank", user.DisplayName())
		assert.Empty(t, store.cookies)
	})

	t.Run("auto confirmed user is signed in", func(t *testing.T) {
		srv.SetAutoConfirm(true)
		t.Cleanup(func() { srv.SetAutoConfirm(false) })

		store := &memoryStore{}

		user, session, err := connector.Connect(store).SignUp("gina@example.com", "secret", nil)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, "gina@example.com", user.Email)
		assert.Equal(t, []string{"sb-test-auth-token"}, store.names())
	})

	t.Run("existing user", func(t *testing.T) {
		_, _, err := connector.Connect(&memoryStore{}).SignUp("frank@example.com", "secret", nil)
		require.Error(t, err)
		assert.Equal(t, "User already registered", err.Error())
	})
}

func TestSignOut(t *testing.T) {
	srv := supabasetest.NewServer(t)
	srv.AddUser("hank@example.com", "secret", nil)
	connector := newTestConnector(t, srv)

	store := &memoryStore{}
	_, err := connector.Connect(store).SignInWithPassword("hank@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, srv.ActiveSessions())

	require.NoError(t, connector.Connect(store).SignOut())
	assert.Empty(t, store.cookies)
	assert.Equal(t, 0, srv.ActiveSessions())

	// signing out without a session is a no-op
	require.NoError(t, connector.Connect(&memoryStore{}).SignOut())
	assert.Equal(t, 1, srv.Calls("logout"))
}

func TestSignOut_RevokedSessionStillClearsCookies(t *testing.T) {
	srv := supabasetest.NewServer(t)
	connector := newTestConnector(t, srv)

	value, err := EncodeSession(&Session{AccessToken: "revoked", RefreshToken: "revoked"})
	require.NoError(t, err)

	store := &memoryStore{cookies: []Cookie{{Name: "sb-test-auth-token", Value: value}}}

	require.NoError(t, connector.Connect(store).SignOut())
	assert.Empty(t, store.cookies)
}

func TestTransportError(t *testing.T) {
	connector, err := NewConnector(Options{
		URL:     "http://127.0.0.1:1",
		AnonKey: "k",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	_, err = connector.Connect(&memoryStore{}).SignInWithPassword("a@example.com", "b")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, apiErr.Retryable())
}
