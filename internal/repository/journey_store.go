package repository

import (
	"context"
	"database/sql"
	"fmt"

	"family-site/internal/models"
)

type JourneyStore struct {
	db *sql.DB
}

func NewJourneyStore(db *sql.DB) *JourneyStore {
	return &JourneyStore{db: db}
}

// ListByType returns the cards of one journey, oldest first.
func (s *JourneyStore) ListByType(ctx context.Context, journeyType models.JourneyType) ([]models.JourneyCard, error) {
	query := `
		SELECT title, message, slug, date, created_at
		FROM journey_cards
		WHERE journey_type = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(journeyType))
	if err != nil {
		return nil, fmt.Errorf("list journey %s: %w", journeyType, err)
	}
	defer rows.Close()

	cards := []models.JourneyCard{}
	for rows.Next() {
		var card models.JourneyCard
		var slug, date sql.NullString
		if err := rows.Scan(&card.Title, &card.Message, &slug, &date, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journey card: %w", err)
		}
		card.Slug = slug.String
		card.Date = date.String
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list journey %s: %w", journeyType, err)
	}

	return cards, nil
}
