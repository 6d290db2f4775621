// Package auth provides the request session middleware of the web application.
//
// For every request the middleware:
//   - binds a provider connection handle to the request cookies
//   - asks the provider for the current user, refreshing the session if needed, before
//     anything else touches the response
//   - mirrors the cookies written during the refresh onto the request and the response
//   - redirects requests without a user to the login page, except for paths under the
//     public prefixes (/login and /auth by default)
//   - adds the current user to fiber.Locals for handlers and templates
//
// Usage:
//
//	app.Use(authmiddleware.New(authmiddleware.Config{Relay: relay}))
//
// Routes registered before the middleware (static files, health and metrics) are served
// without a session lookup.
package auth
