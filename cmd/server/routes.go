package main

import (
	"time"

	"family-site/internal/http/handler"
	"family-site/internal/http/middleware"
	"family-site/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

type routes struct {
	logger  zerolog.Logger
	tokens  middleware.TokenValidator
	auth    *handler.AuthHandler
	audio   *handler.AudioHandler
	blogs   *handler.BlogHandler
	journey *handler.JourneyHandler
	chat    *handler.ChatHandler
	hub     *realtime.Hub

	corsOrigins  string
	writeTimeout time.Duration
}

func newApp(r routes) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ErrorHandler:  handler.ErrorHandler(r.logger),
		// narration of a long post can take the whole budget
		WriteTimeout: r.writeTimeout,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(r.logger))
	app.Use(middleware.Canonical())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     r.corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE",
		AllowCredentials: r.corsOrigins != "*",
	}))

	app.Get("/health", handler.Health)

	app.Post("/api/auth/login", r.auth.Login)
	app.Post("/api/auth/logout", r.auth.Logout)

	// Base API (semua wajib login)
	api := app.Group("/api", middleware.JWTAuth(r.tokens, handler.SessionCookie))

	// Blogs
	api.Get("/blogs", r.blogs.GetBlogs)
	api.Get("/blogs/:slug", r.blogs.GetBlogBySlug)
	api.Get("/blog/:slug/audio", r.audio.GetBlogAudio)
	api.Delete("/blog/:slug/audio", middleware.RoleAuth("admin"), r.audio.DeleteBlogAudio)

	// Journey
	api.Get("/journey/:type", r.journey.GetJourney)

	// Assistant
	api.Post("/chat", r.chat.Chat)
	api.Post("/chat/stream", r.chat.ChatStream)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/narration", websocket.New(handler.NarrationWS(r.hub)))

	return app
}
