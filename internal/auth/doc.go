// Package auth relays authentication operations to the auth provider.
//
// Each operation of Service opens its own connection handle, bound to the cookie store
// of the calling context, issues exactly one provider call and hands the outcome back
// unchanged:
//   - Login signs in with email and password
//   - Register creates an account, storing the display name as user metadata
//   - Logout signs out globally and clears the session cookies
//   - CurrentUser returns the provider user of the current session, or nil
//   - CurrentSession returns the current session, or nil
//
// Failures are never retried or recovered locally. Result renders an outcome in the
// {"error": null | "<provider message>"} shape used by the JSON endpoints.
//
// Example usage:
//
//	relay := auth.NewService(func(store supabase.CookieStore) auth.Provider {
//	    return connector.Connect(store)
//	})
//
//	if err := relay.Login(session.ActionStore(c), auth.Credentials{Email: email, Password: pw}); err != nil {
//	    return c.Render("login", fiber.Map{"error": err.Error()})
//	}
package auth
