package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"family-site/internal/assistant"
	"family-site/internal/http/handler"
	"family-site/internal/models"
	"family-site/internal/narration"
	"family-site/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(zerolog.Nop())})
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type fakeNarrator struct {
	result *narration.Result
	err    error
	slugs  []string
}

func (f *fakeNarrator) Generate(_ context.Context, slug string) (*narration.Result, error) {
	f.slugs = append(f.slugs, slug)
	return f.result, f.err
}

type fakeEvicter struct {
	deleted []string
	err     error
}

func (f *fakeEvicter) Delete(_ context.Context, slug string) error {
	f.deleted = append(f.deleted, slug)
	return f.err
}

func audioApp(n *fakeNarrator, e *fakeEvicter) *fiber.App {
	app := newApp()
	h := handler.NewAudioHandler(n, e, zerolog.Nop())
	app.Get("/api/blog/:slug/audio", h.GetBlogAudio)
	app.Delete("/api/blog/:slug/audio", h.DeleteBlogAudio)
	return app
}

func TestGetBlogAudio_Fresh(t *testing.T) {
	t.Parallel()

	n := &fakeNarrator{result: &narration.Result{Audio: []byte("AAA"), Segments: 1}}
	resp, err := audioApp(n, nil).Test(httptest.NewRequest(http.MethodGet, "/api/blog/hello-world/audio", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, int64(3), resp.ContentLength)
	assert.Equal(t, "public, max-age=86400", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Audio-Cache"))
	assert.Empty(t, resp.Header.Get("X-Narration-Truncated"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "AAA", string(body))
	assert.Equal(t, []string{"hello-world"}, n.slugs)
}

func TestGetBlogAudio_CachedAndTruncated(t *testing.T) {
	t.Parallel()

	n := &fakeNarrator{result: &narration.Result{Audio: []byte("BB"), Cached: true}}
	resp, err := audioApp(n, nil).Test(httptest.NewRequest(http.MethodGet, "/api/blog/a/audio", nil))
	require.NoError(t, err)
	assert.Equal(t, "HIT", resp.Header.Get("X-Audio-Cache"))

	n = &fakeNarrator{result: &narration.Result{Audio: []byte("BB"), Truncated: true}}
	resp, err = audioApp(n, nil).Test(httptest.NewRequest(http.MethodGet, "/api/blog/a/audio", nil))
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Header.Get("X-Narration-Truncated"))
}

func TestGetBlogAudio_Pending(t *testing.T) {
	t.Parallel()

	n := &fakeNarrator{err: fmt.Errorf("%w: 3 of 8 segments done", narration.ErrStillGenerating)}
	resp, err := audioApp(n, nil).Test(httptest.NewRequest(http.MethodGet, "/api/blog/long-post/audio", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))
	assert.Equal(t, map[string]interface{}{"pending": true, "reason": "still_generating"}, decode(t, resp))
}

func TestGetBlogAudio_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("blog %q: %w", "x", narration.ErrContentNotFound), want: http.StatusNotFound},
		{name: "too short", err: fmt.Errorf("blog: %w", narration.ErrTextTooShort), want: http.StatusBadRequest},
		{name: "missing slug", err: narration.ErrMissingSlug, want: http.StatusBadRequest},
		{name: "synthesis failed", err: fmt.Errorf("segment 1 of 2: %w: %w", narration.ErrSynthesisFailed, errors.New("503")), want: http.StatusBadGateway},
		{name: "unexpected", err: errors.New("database is on fire"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resp, err := audioApp(&fakeNarrator{err: tc.err}, nil).Test(httptest.NewRequest(http.MethodGet, "/api/blog/x/audio", nil))
			require.NoError(t, err)

			assert.Equal(t, tc.want, resp.StatusCode)
			assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))
			body := decode(t, resp)
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "fire")
		})
	}
}

func TestDeleteBlogAudio(t *testing.T) {
	t.Parallel()

	e := &fakeEvicter{}
	resp, err := audioApp(nil, e).Test(httptest.NewRequest(http.MethodDelete, "/api/blog/hello-world/audio", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"hello-world"}, e.deleted)
}

type fakeBlogs struct {
	page, limit int
	search      string
}

func (f *fakeBlogs) List(_ context.Context, page, limit int, search string) ([]models.BlogListItem, models.Pagination, error) {
	f.page, f.limit, f.search = page, limit, search
	return []models.BlogListItem{{ID: 1, Title: "Hello", Slug: "hello-world"}},
		models.Pagination{Page: page, Limit: limit, TotalData: 1, TotalPages: 1}, nil
}

func (f *fakeBlogs) GetBySlug(_ context.Context, slug string) (models.Blog, error) {
	if slug != "hello-world" {
		return models.Blog{}, fmt.Errorf("blog %q: %w", slug, narration.ErrContentNotFound)
	}
	return models.Blog{ID: 1, Title: "Hello", Slug: slug, Content: "<p>Hi</p>"}, nil
}

func TestBlogHandler(t *testing.T) {
	t.Parallel()

	blogs := &fakeBlogs{}
	h := handler.NewBlogHandler(blogs)
	app := newApp()
	app.Get("/api/blogs", h.GetBlogs)
	app.Get("/api/blogs/:slug", h.GetBlogBySlug)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs?page=2&limit=5&search=lake", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, blogs.page)
	assert.Equal(t, 5, blogs.limit)
	assert.Equal(t, "lake", blogs.search)

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(2), body["pagination"].(map[string]interface{})["page"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/hello-world", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Blog not found", decode(t, resp)["error"])
}

type fakeJourneys struct{}

func (fakeJourneys) ListByType(_ context.Context, jt models.JourneyType) ([]models.JourneyCard, error) {
	return []models.JourneyCard{{Title: string(jt)}}, nil
}

func TestJourneyHandler(t *testing.T) {
	t.Parallel()

	app := newApp()
	app.Get("/api/journey/:type", handler.NewJourneyHandler(fakeJourneys{}).GetJourney)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/journey/one_year", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/journey/ten_year", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type fakeAsker struct {
	question, conversationID string
	err                      error
	deltas                   []string
	ctx                      context.Context
}

func (f *fakeAsker) Ask(_ context.Context, question, conversationID string) (models.ChatResponse, error) {
	f.question, f.conversationID = question, conversationID
	if f.err != nil {
		return models.ChatResponse{}, f.err
	}
	return models.ChatResponse{Answer: "42", ConversationID: "c-1"}, nil
}

func (f *fakeAsker) AskStream(ctx context.Context, question, conversationID string, onDelta func(string) error) (models.ChatResponse, error) {
	f.question, f.conversationID, f.ctx = question, conversationID, ctx
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return models.ChatResponse{}, err
		}
	}
	if f.err != nil {
		return models.ChatResponse{}, f.err
	}
	return models.ChatResponse{Answer: strings.Join(f.deltas, ""), ConversationID: "c-1"}, nil
}

func TestChatHandler(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{}
	app := newApp()
	app.Post("/api/chat", handler.NewChatHandler(asker).Chat)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"why?","conversationId":"c-0"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"answer": "42", "conversationId": "c-1"}, decode(t, resp))
	assert.Equal(t, "why?", asker.question)
	assert.Equal(t, "c-0", asker.conversationID)
}

func TestChatHandler_EmptyQuestion(t *testing.T) {
	t.Parallel()

	app := newApp()
	app.Post("/api/chat", handler.NewChatHandler(&fakeAsker{err: assistant.ErrEmptyQuestion}).Chat)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing question", decode(t, resp)["error"])
}

func chatStream(t *testing.T, asker *fakeAsker, body string) (*http.Response, string) {
	t.Helper()

	app := newApp()
	app.Post("/api/chat/stream", handler.NewChatHandler(asker).ChatStream)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestChatStream_Events(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{deltas: []string{"Hello", " there\nfriend"}}
	resp, body := chatStream(t, asker, `{"question":"hi","conversationId":"c-0"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	want := "event: ping\ndata: 1\n\n" +
		"data: Hello\n\n" +
		"data:  there\ndata: friend\n\n" +
		"event: done\ndata: {\"conversationId\":\"c-1\"}\n\n"
	assert.Equal(t, want, body)
	assert.Equal(t, "hi", asker.question)
	assert.Equal(t, "c-0", asker.conversationID)
	assert.Error(t, asker.ctx.Err(), "upstream context outlived the stream")
}

func TestChatStream_UpstreamFailureIsAnErrorEvent(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{deltas: []string{"partial"}, err: assistant.ErrNoAnswer}
	resp, body := chatStream(t, asker, `{"question":"hi"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(body, "event: error\ndata: {\"message\":\"assistant returned no answer\"}\n\n"), body)
	assert.NotContains(t, body, "event: done")
}

func TestChatStream_BlankQuestion(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{}
	resp, body := chatStream(t, asker, `{"question":"   "}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"missing question"}`, body)
	assert.Nil(t, asker.ctx)
}

type fakeUsers struct {
	users map[string]models.User
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID int64, _, _, _ string) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func (fakeTokens) TTL() time.Duration { return time.Hour }

func TestAuthHandler(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	users := fakeUsers{users: map[string]models.User{
		"mom@example.com":    {ID: 1, Name: "Mom", Email: "mom@example.com", Password: string(hash), Role: "family", IsBanned: "n"},
		"banned@example.com": {ID: 2, Name: "Bob", Email: "banned@example.com", Password: string(hash), IsBanned: "y"},
	}}
	h := handler.NewAuthHandler(users, fakeTokens{}, true)
	app := newApp()
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/logout", h.Logout)

	login := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := login(`{"email":"mom@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "token-1", body["token"])
	assert.Equal(t, "Mom", body["user"].(map[string]interface{})["name"])

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, "token-1", session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)

	assert.Equal(t, http.StatusUnauthorized, login(`{"email":"mom@example.com","password":"wrong"}`).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, login(`{"email":"who@example.com","password":"hunter2"}`).StatusCode)
	assert.Equal(t, http.StatusForbidden, login(`{"email":"banned@example.com","password":"hunter2"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, login(`{"email":"","password":""}`).StatusCode)
}

func TestLogout_ExpiresSessionCookie(t *testing.T) {
	t.Parallel()

	app := newApp()
	app.Post("/api/auth/logout", handler.NewAuthHandler(fakeUsers{}, fakeTokens{}, true).Logout)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == handler.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Expires.Before(time.Now()))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app := newApp()
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"status": "ok"}, decode(t, resp))
}

func TestErrorHandler_FiberError(t *testing.T) {
	t.Parallel()

	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "Cannot GET")
}
