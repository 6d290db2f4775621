// Package main provides the entry point of authrelay, a small web application
// in front of a Supabase project. It serves the sign in, sign up and sign out
// pages, a JSON API with the same operations, and keeps the auth session in
// chunked browser cookies that are refreshed by a middleware on every request.
package main
