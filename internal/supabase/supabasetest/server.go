// Package supabasetest provides an in-memory GoTrue server for tests.
//
// Only the endpoints used by package supabase are served: password and refresh token
// grants, signup, user and logout. Responses follow the shapes of the hosted service,
// including its error bodies.
package supabasetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// AnonKey is the anonymous key the server accepts.
const AnonKey = "test-anon-key"

type account struct {
	ID       string
	Email    string
	Password string
	Metadata map[string]any
	Created  time.Time
}

// Server is a fake GoTrue server mounted under /auth/v1.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	autoConfirm   bool
	expiresIn     int64
	refreshStatus int
	seq           int
	accounts      map[string]*account // by email
	access        map[string]string   // access token -> email
	refresh       map[string]string   // refresh token -> email
	calls         map[string]int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		expiresIn: 3600, //nolint:mnd
		accounts:  make(map[string]*account),
		access:    make(map[string]string),
		refresh:   make(map[string]string),
		calls:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", s.token)
	mux.HandleFunc("POST /auth/v1/signup", s.signup)
	mux.HandleFunc("GET /auth/v1/user", s.user)
	mux.HandleFunc("POST /auth/v1/logout", s.logout)

	s.Server = httptest.NewServer(s.checkAPIKey(mux))
	t.Cleanup(s.Close)

	return s
}

// AddUser registers a confirmed account and returns its id.
func (s *Server) AddUser(email, password string, metadata map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &account{
		ID:       uuid.NewString(),
		Email:    email,
		Password: password,
		Metadata: metadata,
		Created:  time.Now().UTC(),
	}
	s.accounts[email] = a

	return a.ID
}

// SetAutoConfirm makes signup return a session instead of an unconfirmed user.
func (s *Server) SetAutoConfirm(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoConfirm = on
}

// SetRefreshStatus forces refresh token grants to fail with status; 0 restores them.
func (s *Server) SetRefreshStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshStatus = status
}

// Calls returns how often an endpoint was hit, e.g. "token:password", "user", "logout".
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[endpoint]
}

// ActiveSessions returns the number of valid access tokens.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.access)
}

func (s *Server) checkAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != AnonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grant := r.URL.Query().Get("grant_type")
	s.calls["token:"+grant]++

	switch grant {
	case "password":
		a, ok := s.accounts[body.Email]
		if !ok || a.Password != body.Password {
			writeError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
			return
		}

		writeJSON(w, http.StatusOK, s.issue(a))
	case "refresh_token":
		if s.refreshStatus != 0 {
			writeError(w, s.refreshStatus, "unexpected_failure", http.StatusText(s.refreshStatus))
			return
		}

		email, ok := s.refresh[body.RefreshToken]
		if !ok {
			writeError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
			return
		}

		delete(s.refresh, body.RefreshToken)
		writeJSON(w, http.StatusOK, s.issue(s.accounts[email]))
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "unsupported_grant_type")
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["signup"]++

	if len(body.Password) < 6 { //nolint:mnd
		writeError(w, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
		return
	}

	if _, exists := s.accounts[body.Email]; exists {
		writeError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}

	a := &account{
		ID:       uuid.NewString(),
		Email:    body.Email,
		Password: body.Password,
		Metadata: body.Data,
		Created:  time.Now().UTC(),
	}
	s.accounts[a.Email] = a

	if s.autoConfirm {
		writeJSON(w, http.StatusOK, s.issue(a))
		return
	}

	writeJSON(w, http.StatusOK, userJSON(a))
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["user"]++

	email, ok := s.access[bearer(r)]
	if !ok {
		writeError(w, http.StatusForbidden, "bad_jwt", "invalid JWT: unable to parse or verify signature")
		return
	}

	writeJSON(w, http.StatusOK, userJSON(s.accounts[email]))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["logout"]++

	email, ok := s.access[bearer(r)]
	if !ok {
		writeError(w, http.StatusForbidden, "bad_jwt", "invalid JWT: unable to parse or verify signature")
		return
	}

	// scope=global revokes every session of the user
	for token, owner := range s.access {
		if owner == email {
			delete(s.access, token)
		}
	}

	for token, owner := range s.refresh {
		if owner == email {
			delete(s.refresh, token)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// issue creates a session for a; callers hold s.mu.
func (s *Server) issue(a *account) map[string]any {
	s.seq++
	accessToken := "access-" + strconv.Itoa(s.seq)
	refreshToken := "refresh-" + strconv.Itoa(s.seq)

	s.access[accessToken] = a.Email
	s.refresh[refreshToken] = a.Email

	return map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    s.expiresIn,
		"expires_at":    time.Now().Unix() + s.expiresIn,
		"refresh_token": refreshToken,
		"user":          userJSON(a),
	}
}

func userJSON(a *account) map[string]any {
	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return map[string]any{
		"id":            a.ID,
		"aud":           "authenticated",
		"role":          "authenticated",
		"email":         a.Email,
		"app_metadata":  map[string]any{"provider": "email"},
		"user_metadata": metadata,
		"created_at":    a.Created.Format(time.RFC3339Nano),
	}
}

func bearer(r *http.Request) string {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "error_code": code, "msg": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
