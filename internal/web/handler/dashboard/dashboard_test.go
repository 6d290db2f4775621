package dashboard

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/supabase"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/handler/handlertest"
)

func TestGet_WithoutSessionRedirects(t *testing.T) {
	env := handlertest.New(t)

	var s Service
	require.NoError(t, s.Init(env.App, env.Config, env.Relay))

	resp, _ := env.Get(t, Path)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.LoginPath, resp.Header.Get(fiber.HeaderLocation))
}

func TestGet_ShowsUserAndSession(t *testing.T) {
	env := handlertest.New(t)
	env.Server.AddUser("alice@example.com", "secret123", map[string]any{"name": "Alice"})

	var s Service
	require.NoError(t, s.Init(env.App, env.Config, env.Relay))

	resp, body := env.Get(t, Path, env.SignIn(t, "alice@example.com", "secret123"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
	assert.Empty(t, resp.Header.Values(fiber.HeaderSetCookie))

	_, m := env.Views.Last()
	data, ok := m["Data"].(Data)
	require.True(t, ok)

	assert.Equal(t, "Alice", data.Name)
	assert.Equal(t, "alice@example.com", data.User.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), data.ExpiresAt, time.Minute)
	assert.Positive(t, data.ExpiresIn)
}

func TestAttributes(t *testing.T) {
	id := uuid.New()
	signedIn := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	attrs := attributes(&supabase.User{
		ID:           id,
		Email:        "alice@example.com",
		Role:         "authenticated",
		LastSignInAt: &signedIn,
		UserMetadata: map[string]any{"name": "Alice", "avatar": "a.png", "age": 3},
	})

	assert.Equal(t, []Attribute{
		{Key: "id", Value: id.String()},
		{Key: "email", Value: "alice@example.com"},
		{Key: "role", Value: "authenticated"},
		{Key: "last sign in", Value: signedIn.Format(time.RFC1123)},
		{Key: "avatar", Value: "a.png"},
		{Key: "name", Value: "Alice"},
	}, attrs)
}
