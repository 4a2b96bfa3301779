package models

import "time"

type Blog struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Date          time.Time `json:"date"`
	FeaturedImage string    `json:"featured_image"`
	DetailImage   string    `json:"detail_image"`
}

// BlogListItem is what the list page needs; content stays out of it.
type BlogListItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Date          time.Time `json:"date"`
	FeaturedImage string    `json:"featured_image"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalData  int `json:"total_data"`
	TotalPages int `json:"total_pages"`
}
