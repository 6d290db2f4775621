package supabase

import (
	"time"

	"github.com/google/uuid"
)

// expiryMargin is how long before expires_at a session is already treated as expired.
const expiryMargin = 90 * time.Second

// User is the provider user object.
type User struct {
	ID               uuid.UUID      `json:"id"`
	Aud              string         `json:"aud,omitempty"`
	Role             string         `json:"role,omitempty"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	ConfirmedAt      *time.Time     `json:"confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// DisplayName returns the "name" user metadata set at sign-up, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}

	if name, ok := u.UserMetadata["name"].(string); ok && name != "" {
		return name
	}

	return u.Email
}

// Session is the provider token bundle. It is stored in cookies exactly as received.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Expiry returns the absolute expiry time, or the zero time if unknown.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}

	return time.Unix(s.ExpiresAt, 0)
}

// fillExpiry sets expires_at from expires_in when the provider omitted it.
func (s *Session) fillExpiry(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Unix() + s.ExpiresIn
	}
}

// needsRefresh reports whether the access token expires within the margin.
// Sessions without expires_at never need a refresh.
func (s *Session) needsRefresh(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}

	return time.Unix(s.ExpiresAt, 0).Sub(now) < expiryMargin
}
