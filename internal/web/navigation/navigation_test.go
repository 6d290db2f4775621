package navigation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/authrelay/authrelay/internal/supabase"
)

func menuPages(c *Context) []string {
	pages := make([]string, 0, len(c.Menu))
	for _, l := range c.Menu {
		pages = append(pages, l.Page)
	}

	return pages
}

func TestNewContext_Anonymous(t *testing.T) {
	ctx := NewContext("Sign in", PageLogin, nil)

	assert.Equal(t, "Sign in", ctx.PageTitle)
	assert.False(t, ctx.SignedIn())
	assert.Equal(t, []string{PageLogin, PageRegister}, menuPages(ctx))
	assert.True(t, ctx.Menu[0].Active)
	assert.False(t, ctx.Menu[1].Active)
	assert.NotNil(t, ctx.Breadcrumbs)
	assert.Empty(t, ctx.Breadcrumbs)
}

func TestNewContext_SignedIn(t *testing.T) {
	user := &supabase.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		UserMetadata: map[string]any{"name": "Alice"},
	}

	ctx := NewContext("Dashboard", PageDashboard, user)

	assert.True(t, ctx.SignedIn())
	assert.Equal(t, "Alice", ctx.UserName)
	assert.Equal(t, []string{PageDashboard, PageLogout}, menuPages(ctx))
	assert.True(t, ctx.IsActive(PageDashboard))
	assert.False(t, ctx.IsActive(PageLogout))
}

func TestNewContext_SignedInWithoutName(t *testing.T) {
	ctx := NewContext("Dashboard", PageDashboard, &supabase.User{Email: "bob@example.com"})

	assert.Equal(t, "bob@example.com", ctx.UserName)
}

func TestContext_AddBreadcrumb_Chaining(t *testing.T) {
	ctx := NewContext("Dashboard", PageDashboard, nil).
		AddBreadcrumb("Home", "/", false).
		AddBreadcrumb("Dashboard", "/dashboard", true)

	assert.Len(t, ctx.Breadcrumbs, 2)
	assert.Equal(t, "Home", ctx.Breadcrumbs[0].Title)
	assert.Equal(t, "/", ctx.Breadcrumbs[0].URL)
	assert.False(t, ctx.Breadcrumbs[0].Active)
	assert.True(t, ctx.Breadcrumbs[1].Active)
}
