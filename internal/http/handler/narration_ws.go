package handler

import (
	"family-site/internal/realtime"

	"github.com/gofiber/websocket/v2"
)

// NarrationWS - Client menerima event audio_ready sampai koneksi ditutup
func NarrationWS(hub *realtime.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		hub.Register(c)
		defer hub.Unregister(c)

		// listen client
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}
}
