package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrInvalidSupabase error if the supabase section or its env vars are incomplete.
	ErrInvalidSupabase = errors.New("supabase url (SUPABASE_URL) and anon key (SUPABASE_ANON_KEY) are required")
)
