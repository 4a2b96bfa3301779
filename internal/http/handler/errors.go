package handler

import (
	"errors"

	"family-site/internal/assistant"
	"family-site/internal/narration"
	"family-site/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorHandler - Satu format error JSON untuk semua route: {"error": "..."}
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)

		if code >= fiber.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Path()).
				Int("status", code).
				Msg("request failed")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, narration.ErrMissingSlug),
		errors.Is(err, narration.ErrTextTooShort),
		errors.Is(err, assistant.ErrEmptyQuestion):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, narration.ErrContentNotFound):
		return fiber.StatusNotFound, "Blog not found"
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, narration.ErrSynthesisFailed):
		return fiber.StatusBadGateway, "Audio generation failed, please try again"
	case errors.Is(err, assistant.ErrNoAnswer):
		return fiber.StatusBadGateway, err.Error()
	case errors.Is(err, assistant.ErrStreamingUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
