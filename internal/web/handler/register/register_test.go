package register

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/handler/handlertest"
)

func newEnv(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	require.NoError(t, s.Init(env.App, env.Config, env.Relay))

	return env
}

func TestGet_PublicWithoutSession(t *testing.T) {
	env := newEnv(t)

	resp, body := env.Get(t, Path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
}

func TestPost_ConfirmationRequired(t *testing.T) {
	env := newEnv(t)

	resp, body := env.PostForm(t, Path, url.Values{
		"name":     {"Dana"},
		"email":    {"dana@example.com"},
		"password": {"long-enough"},
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
	assert.Nil(t, env.SessionCookie(resp))
	assert.Equal(t, 1, env.Server.Calls("signup"))

	_, data := env.Views.Last()
	assert.Equal(t, MsgConfirmEmail, data["info"])
}

func TestPost_AutoConfirmSignsIn(t *testing.T) {
	env := newEnv(t)
	env.Server.SetAutoConfirm(true)

	resp, _ := env.PostForm(t, Path, url.Values{
		"name":     {"Erin"},
		"email":    {"erin@example.com"},
		"password": {"long-enough"},
	})

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.DashboardPath, resp.Header.Get(fiber.HeaderLocation))
	assert.NotNil(t, env.SessionCookie(resp))
}

func TestPost_ProviderErrorVerbatim(t *testing.T) {
	env := newEnv(t)
	env.Server.AddUser("frank@example.com", "long-enough", nil)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{name: "existing user", email: "frank@example.com", password: "long-enough", want: "User already registered"},
		{name: "weak password", email: "gina@example.com", password: "123", want: "Password should be at least 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.PostForm(t, Path, url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			})

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, body)

			_, data := env.Views.Last()
			assert.Equal(t, tt.email, data["Email"])
		})
	}
}
