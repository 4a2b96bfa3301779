package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"family-site/internal/narration"
	"family-site/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return db, mock
}

func TestBlogStore_GetBySlug(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM blogs")).
		WithArgs("hello-world").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "date", "featured_image", "detail_image"}).
			AddRow(7, "Hello", "hello-world", "<p>Hi there. This is a test.</p>", date, "/img/a.jpg", nil))

	blog, err := repository.NewBlogStore(db).GetBySlug(context.Background(), "hello-world")
	require.NoError(t, err)

	assert.Equal(t, int64(7), blog.ID)
	assert.Equal(t, "Hello", blog.Title)
	assert.Equal(t, "<p>Hi there. This is a test.</p>", blog.Content)
	assert.Equal(t, date, blog.Date)
	assert.Equal(t, "/img/a.jpg", blog.FeaturedImage)
	assert.Empty(t, blog.DetailImage)
}

func TestBlogStore_GetBySlug_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM blogs")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repository.NewBlogStore(db).GetBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, narration.ErrContentNotFound)
}

func TestBlogStore_GetBySlug_DatabaseError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM blogs")).
		WithArgs("hello-world").
		WillReturnError(errors.New("connection reset"))

	_, err := repository.NewBlogStore(db).GetBySlug(context.Background(), "hello-world")
	require.Error(t, err)
	assert.NotErrorIs(t, err, narration.ErrContentNotFound)
}

func TestBlogStore_List(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM blogs WHERE title LIKE ?")).
		WithArgs("%lake%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM blogs WHERE title LIKE ? ORDER BY date DESC LIMIT ? OFFSET ?")).
		WithArgs("%lake%", 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "date", "featured_image"}).
			AddRow(3, "Lake Days", "lake-days", date, nil).
			AddRow(2, "Lake Nights", "lake-nights", date, "/img/n.jpg"))

	blogs, page, err := repository.NewBlogStore(db).List(context.Background(), 2, 5, "  lake ")
	require.NoError(t, err)

	require.Len(t, blogs, 2)
	assert.Equal(t, "lake-days", blogs[0].Slug)
	assert.Equal(t, "/img/n.jpg", blogs[1].FeaturedImage)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 12, page.TotalData)
	assert.Equal(t, 3, page.TotalPages)
}

func TestBlogStore_List_NoSearchDefaultsLimit(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM blogs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY date DESC LIMIT ? OFFSET ?")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "date", "featured_image"}))

	blogs, page, err := repository.NewBlogStore(db).List(context.Background(), 0, 0, "")
	require.NoError(t, err)

	assert.Empty(t, blogs)
	assert.NotNil(t, blogs)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 0, page.TotalPages)
}
