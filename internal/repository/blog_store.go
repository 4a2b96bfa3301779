package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"family-site/internal/helper"
	"family-site/internal/models"
	"family-site/internal/narration"
)

type BlogStore struct {
	db *sql.DB
}

func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db}
}

// GetBySlug - Ambil satu blog lengkap dengan konten
func (s *BlogStore) GetBySlug(ctx context.Context, slug string) (models.Blog, error) {
	query := `
		SELECT id, title, slug, content, date, featured_image, detail_image
		FROM blogs
		WHERE slug = ?
	`

	var blog models.Blog
	var featured, detail sql.NullString
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&blog.ID,
		&blog.Title,
		&blog.Slug,
		&blog.Content,
		&blog.Date,
		&featured,
		&detail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Blog{}, fmt.Errorf("blog %q: %w", slug, narration.ErrContentNotFound)
	}
	if err != nil {
		return models.Blog{}, fmt.Errorf("query blog %q: %w", slug, err)
	}

	blog.FeaturedImage = featured.String
	blog.DetailImage = detail.String

	return blog, nil
}

// List - Daftar blog dengan pagination dan pencarian judul
func (s *BlogStore) List(ctx context.Context, page, limit int, search string) ([]models.BlogListItem, models.Pagination, error) {
	page, limit, offset := helper.Paginate(page, limit)

	where := ""
	args := []interface{}{}
	if search = strings.TrimSpace(search); search != "" {
		where = " WHERE title LIKE ?"
		args = append(args, "%"+search+"%")
	}

	var totalData int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blogs"+where, args...).Scan(&totalData); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count blogs: %w", err)
	}

	query := "SELECT id, title, slug, date, featured_image FROM blogs" + where + " ORDER BY date DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	blogs := []models.BlogListItem{}
	for rows.Next() {
		var item models.BlogListItem
		var featured sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &item.Slug, &item.Date, &featured); err != nil {
			return nil, models.Pagination{}, fmt.Errorf("scan blog: %w", err)
		}
		item.FeaturedImage = featured.String
		blogs = append(blogs, item)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list blogs: %w", err)
	}

	return blogs, models.Pagination{
		Page:       page,
		Limit:      limit,
		TotalData:  totalData,
		TotalPages: helper.TotalPages(totalData, limit),
	}, nil
}
