package auth

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/supabase"
)

// Operation names used in logs and metrics.
const (
	OpLogin          = "login"
	OpRegister       = "register"
	OpLogout         = "logout"
	OpCurrentUser    = "current_user"
	OpCurrentSession = "current_session"
)

// Provider is the subset of the provider client the relay forwards to.
// *supabase.Client implements it.
type Provider interface {
	SignInWithPassword(email, password string) (*supabase.Session, error)
	SignUp(email, password string, data map[string]any) (*supabase.User, *supabase.Session, error)
	SignOut() error
	GetUser() (*supabase.User, error)
	GetSession() (*supabase.Session, error)
}

// ConnectFunc opens a connection handle bound to store.
type ConnectFunc func(store supabase.CookieStore) Provider

// Credentials are the transient sign-in and sign-up form values.
type Credentials struct {
	Name     string `json:"name"     form:"name"`
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

// Service relays authentication operations.
type Service struct {
	connect ConnectFunc
}

// NewService creates a relay using connect for every operation.
func NewService(connect ConnectFunc) (*Service, error) {
	if connect == nil {
		return nil, ErrNilConnect
	}

	return &Service{connect: connect}, nil
}

// Login signs in with email and password.
func (s *Service) Login(store supabase.CookieStore, creds Credentials) error {
	_, err := s.connect(store).SignInWithPassword(creds.Email, creds.Password)
	observe(OpLogin, err)

	return err
}

// Register creates an account; a non-empty Name is stored as the "name" user metadata.
func (s *Service) Register(store supabase.CookieStore, creds Credentials) error {
	var data map[string]any
	if creds.Name != "" {
		data = map[string]any{"name": creds.Name}
	}

	_, _, err := s.connect(store).SignUp(creds.Email, creds.Password, data)
	observe(OpRegister, err)

	return err
}

// Logout signs the current user out.
func (s *Service) Logout(store supabase.CookieStore) error {
	err := s.connect(store).SignOut()
	observe(OpLogout, err)

	return err
}

// CurrentUser returns the authenticated user, nil when there is none.
func (s *Service) CurrentUser(store supabase.CookieStore) *supabase.User {
	user, err := s.connect(store).GetUser()
	observe(OpCurrentUser, err)

	if err != nil {
		logLookupFailure(OpCurrentUser, err)
		return nil
	}

	return user
}

// CurrentSession returns the current session, nil when there is none.
func (s *Service) CurrentSession(store supabase.CookieStore) *supabase.Session {
	session, err := s.connect(store).GetSession()
	observe(OpCurrentSession, err)

	if err != nil {
		logLookupFailure(OpCurrentSession, err)
		return nil
	}

	return session
}

// Result is the {"error": ...} outcome of a relayed operation.
type Result struct {
	Error *string `json:"error"`
}

// ResultOf converts an operation error into a Result carrying its message unchanged.
func ResultOf(err error) Result {
	if err == nil {
		return Result{}
	}

	msg := err.Error()

	return Result{Error: &msg}
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Error == nil
}

func logLookupFailure(op string, err error) {
	if errors.Is(err, supabase.ErrSessionMissing) {
		return
	}

	log.Debug().Err(err).Str("operation", op).Msg("auth lookup failed")
}
