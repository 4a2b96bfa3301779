package handler

import (
	"context"

	"family-site/internal/models"

	"github.com/gofiber/fiber/v2"
)

type JourneyReader interface {
	ListByType(ctx context.Context, journeyType models.JourneyType) ([]models.JourneyCard, error)
}

type JourneyHandler struct {
	journeys JourneyReader
}

func NewJourneyHandler(journeys JourneyReader) *JourneyHandler {
	return &JourneyHandler{journeys: journeys}
}

// GetJourney - Kartu perjalanan per tahun (first_year, one_year, two_year)
func (h *JourneyHandler) GetJourney(c *fiber.Ctx) error {
	journeyType := models.JourneyType(c.Params("type"))
	if !journeyType.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown journey type",
		})
	}

	cards, err := h.journeys.ListByType(c.UserContext(), journeyType)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    cards,
	})
}
