package supabase

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const (
	pathPasswordGrant = "/token?grant_type=password"
	pathRefreshGrant  = "/token?grant_type=refresh_token"
	pathSignup        = "/signup"
	pathUser          = "/user"
	pathLogout        = "/logout?scope=global"

	headerAPIKey = "apikey"
)

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrant struct {
	RefreshToken string `json:"refresh_token"`
}

type signupRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// gotrue issues requests against the GoTrue REST API of a project.
type gotrue struct {
	baseURL string
	anonKey string
	timeout time.Duration
}

// call sends the request and decodes a JSON response into out when out is not nil.
func (g *gotrue) call(method, path, token string, payload, out any) error {
	body, err := g.do(method, path, token, payload)
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err = json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode response of %s %s", method, path)
	}

	return nil
}

// do sends one request and returns the raw response body of a 2xx answer.
// The access token defaults to the anon key for unauthenticated calls.
func (g *gotrue) do(method, path, token string, payload any) ([]byte, error) {
	if token == "" {
		token = g.anonKey
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(g.baseURL + path)

	agent.Set(headerAPIKey, g.anonKey)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if payload != nil {
		agent.JSON(payload)
	}

	if g.timeout > 0 {
		agent.Timeout(g.timeout)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, errors.Wrapf(err, "prepare %s %s", method, path)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, newTransportError(errs)
	}

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return nil, newAPIError(status, body)
	}

	return body, nil
}
