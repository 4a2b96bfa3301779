package handler

import (
	"context"
	"errors"

	"family-site/internal/narration"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Narrator interface {
	Generate(ctx context.Context, slug string) (*narration.Result, error)
}

type AudioEvicter interface {
	Delete(ctx context.Context, slug string) error
}

type AudioHandler struct {
	narrator Narrator
	evicter  AudioEvicter
	log      zerolog.Logger
}

func NewAudioHandler(narrator Narrator, evicter AudioEvicter, log zerolog.Logger) *AudioHandler {
	return &AudioHandler{narrator: narrator, evicter: evicter, log: log}
}

// GetBlogAudio - MP3 narasi blog, dari cache atau dibuat baru
func (h *AudioHandler) GetBlogAudio(c *fiber.Ctx) error {
	result, err := h.narrator.Generate(c.UserContext(), c.Params("slug"))
	if errors.Is(err, narration.ErrStillGenerating) {
		c.Set(fiber.HeaderRetryAfter, "5")
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"pending": true,
			"reason":  "still_generating",
		})
	}
	if err != nil {
		return err
	}

	cacheStatus := "MISS"
	if result.Cached {
		cacheStatus = "HIT"
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Set("X-Audio-Cache", cacheStatus)
	if result.Truncated {
		c.Set("X-Narration-Truncated", "true")
	}

	return c.Status(fiber.StatusOK).Send(result.Audio)
}

// DeleteBlogAudio - Hapus cache audio supaya narasi dibuat ulang (admin only)
func (h *AudioHandler) DeleteBlogAudio(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return narration.ErrMissingSlug
	}

	if err := h.evicter.Delete(c.UserContext(), slug); err != nil {
		return err
	}

	h.log.Info().Str("slug", slug).Str("by", email(c)).Msg("narration cache cleared")

	return c.JSON(fiber.Map{
		"message": "Audio cache cleared",
	})
}

func email(c *fiber.Ctx) string {
	e, _ := c.Locals("email").(string)
	return e
}
