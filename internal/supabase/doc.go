// Package supabase implements the server-side connection handle to Supabase Auth (GoTrue).
//
// A Client is bound to exactly one CookieStore: the accessor returns the cookies of the
// current request and the mutator stages replacement cookies for the response. The client
// keeps the provider session in the same cookie format the Supabase SSR helpers use, so a
// browser session started by a JavaScript front end is understood here and vice versa:
//
//   - the storage key is "sb-<project ref>-auth-token"
//   - the value is "base64-" followed by the base64url encoded JSON session
//   - values larger than 3180 bytes are split into "<key>.0", "<key>.1", ...
//
// Every provider operation is a single REST call against the GoTrue endpoints. Password
// hashing, token issuance and token verification stay with the provider. The only local
// logic is loading the session from cookies, refreshing it shortly before it expires and
// writing the result back through the CookieStore.
//
// Usage:
//
//	connector, err := supabase.NewConnector(supabase.Options{URL: url, AnonKey: key})
//	client := connector.Connect(store)
//	user, err := client.GetUser()
package supabase
