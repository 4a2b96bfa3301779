package models

import "time"

type JourneyType string

const (
	JourneyFirstYear JourneyType = "first_year"
	JourneyOneYear   JourneyType = "one_year"
	JourneyTwoYear   JourneyType = "two_year"
)

func (t JourneyType) Valid() bool {
	switch t {
	case JourneyFirstYear, JourneyOneYear, JourneyTwoYear:
		return true
	}
	return false
}

type JourneyCard struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Slug      string    `json:"slug"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
