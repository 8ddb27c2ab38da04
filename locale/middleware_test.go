package locale

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(New())
	app.Get("/api/stats", func(c *fiber.Ctx) error { return c.SendString("stats") })
	app.Get("/logo.svg", func(c *fiber.Ctx) error { return c.SendString("svg") })
	app.Get("/:lang/*", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalsKey).(string))
	})
	app.Get("/:lang", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalsKey).(string))
	})
	return app
}

func TestMiddlewareRedirectsRoot(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/en", resp.Header.Get("Location"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestMiddlewareKeepsPathAndQuery(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/candidates?page=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/ar/candidates?page=2", resp.Header.Get("Location"))
}

func TestMiddlewarePassesLocalizedPaths(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/ku/teahouse", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestMiddlewareSkipsAPIAndAssets(t *testing.T) {
	app := newApp()

	for _, path := range []string{"/api/stats", "/logo.svg"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Empty(t, resp.Header.Get("X-Frame-Options"), path)
	}
}

func TestMiddlewareSkipsExtraPaths(t *testing.T) {
	app := fiber.New()
	app.Use(New("/internal/prom"))
	app.Get("/internal/prom", func(c *fiber.Ctx) error { return c.SendString("metrics") })

	resp, err := app.Test(httptest.NewRequest("GET", "/internal/prom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/internal/other", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
}
