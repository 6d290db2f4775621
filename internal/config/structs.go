package config

import (
	"github.com/authrelay/authrelay/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Log       logger.Log
	Title     string
	Webserver Webserver
	Supabase  Supabase
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool   // enable static file browsing (for development purposes only)
	DisableRecover bool   // disable recover middleware
	Domain         string // cookie domain, empty for host-only cookies
	Port           int    // listening port for the webserver
	ReadBufferSize int    // request header buffer in bytes, 0 = 16 KiB
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

// Supabase holds the auth provider project settings.
// URL and AnonKey are taken from SUPABASE_URL and SUPABASE_ANON_KEY when set.
type Supabase struct {
	URL        string   `env:"SUPABASE_URL"      validate:"required,url"`
	AnonKey    string   `env:"SUPABASE_ANON_KEY" validate:"required"`
	CookieName string   // overrides the derived sb-<ref>-auth-token cookie name
	Timeout    Duration // per provider request, 0 = 10s
}
