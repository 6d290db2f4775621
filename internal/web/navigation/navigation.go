// Package navigation provides the page header state shared by all templates.
package navigation

import (
	"github.com/authrelay/authrelay/internal/supabase"
)

// Page keys.
const (
	PageDashboard = "dashboard"
	PageLogin     = "login"
	PageRegister  = "register"
	PageLogout    = "logout"
)

// Link is a menu entry or breadcrumb.
type Link struct {
	Page   string
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	PageTitle   string
	ActivePage  string
	UserName    string // empty for anonymous visitors
	Menu        []Link
	Breadcrumbs []Link
}

// NewContext creates the navigation context of a page. The menu depends on
// whether a user is signed in.
func NewContext(pageTitle, activePage string, user *supabase.User) *Context {
	c := &Context{
		PageTitle:   pageTitle,
		ActivePage:  activePage,
		Breadcrumbs: make([]Link, 0),
	}

	if user != nil {
		c.UserName = user.DisplayName()
		c.Menu = []Link{
			{Page: PageDashboard, Title: "Dashboard", URL: "/dashboard"},
			{Page: PageLogout, Title: "Sign out", URL: "/logout"},
		}
	} else {
		c.Menu = []Link{
			{Page: PageLogin, Title: "Sign in", URL: "/login"},
			{Page: PageRegister, Title: "Create account", URL: "/auth/register"},
		}
	}

	for i := range c.Menu {
		c.Menu[i].Active = c.Menu[i].Page == activePage
	}

	return c
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, Link{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if page is the current page.
func (c *Context) IsActive(page string) bool {
	return c.ActivePage == page
}

// SignedIn reports whether the page is rendered for a signed in user.
func (c *Context) SignedIn() bool {
	return c.UserName != ""
}
