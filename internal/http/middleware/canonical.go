package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Canonical redirects "www." hosts to the bare domain and strips a trailing
// slash from the path, both with 308 so the method and body survive.
func Canonical() fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := c.Hostname()
		path := c.Path()

		bareHost := strings.TrimPrefix(host, "www.")
		barePath := path
		if len(path) > 1 && strings.HasSuffix(path, "/") {
			barePath = strings.TrimRight(path, "/")
			if barePath == "" {
				barePath = "/"
			}
		}

		if bareHost == host && barePath == path {
			return c.Next()
		}

		target := c.Protocol() + "://" + bareHost + barePath
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}

		return c.Redirect(target, fiber.StatusPermanentRedirect)
	}
}
