package locale

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalsKey is the fiber Locals key holding the request locale.
const LocalsKey = "locale"

var staticFile = regexp.MustCompile(`\.(svg|png|jpg|jpeg|gif|webp|ico|json)$`)

// SkipPrefixes are left untouched by the middleware.
var SkipPrefixes = []string{"/api/", "/_next/", "/_vercel/", "/ws/"}

// SkipPaths are exact paths left untouched by the middleware.
var SkipPaths = []string{"/metrics", "/health"}

func skip(path string, extra []string) bool {
	for _, p := range extra {
		if path == p {
			return true
		}
	}
	for _, p := range SkipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range SkipPaths {
		if path == p {
			return true
		}
	}
	return staticFile.MatchString(path)
}

func securityHeaders(c *fiber.Ctx) {
	c.Set("X-Frame-Options", "DENY")
	c.Set("X-Content-Type-Options", "nosniff")
}

// New returns a middleware that redirects unprefixed page paths to the
// negotiated locale and passes prefixed ones through. skipPaths are exact
// paths left alone in addition to SkipPaths.
func New(skipPaths ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if skip(path, skipPaths) {
			return c.Next()
		}

		if loc, ok := FromPath(path); ok {
			securityHeaders(c)
			c.Locals(LocalsKey, loc)
			return c.Next()
		}

		target := Prefix(Negotiate(c.Get(fiber.HeaderAcceptLanguage)), path)
		if qs := c.Request().URI().QueryString(); len(qs) > 0 {
			target += "?" + string(qs)
		}
		securityHeaders(c)
		return c.Redirect(target, fiber.StatusTemporaryRedirect)
	}
}
