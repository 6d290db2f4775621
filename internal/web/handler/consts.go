package handler

import "errors"

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// DashboardPath is the landing page after a successful sign in.
	DashboardPath = "/dashboard"

	// LoginPath is the sign in page.
	LoginPath = "/login"
)

// ErrNilACR is returned by Init if app, cfg or relay is nil.
var ErrNilACR = errors.New("app, cfg or relay is nil")
