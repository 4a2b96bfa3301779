package handler

import (
	"context"

	"family-site/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BlogReader interface {
	List(ctx context.Context, page, limit int, search string) ([]models.BlogListItem, models.Pagination, error)
	GetBySlug(ctx context.Context, slug string) (models.Blog, error)
}

type BlogHandler struct {
	blogs BlogReader
}

func NewBlogHandler(blogs BlogReader) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

// GetBlogs - Daftar blog dengan pagination dan search
func (h *BlogHandler) GetBlogs(c *fiber.Ctx) error {
	blogs, pagination, err := h.blogs.List(
		c.UserContext(),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 10),
		c.Query("search"),
	)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       blogs,
		"pagination": pagination,
	})
}

// GetBlogBySlug - Detail satu blog
func (h *BlogHandler) GetBlogBySlug(c *fiber.Ctx) error {
	blog, err := h.blogs.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    blog,
	})
}
