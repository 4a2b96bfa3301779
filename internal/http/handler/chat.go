package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"family-site/internal/assistant"
	"family-site/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Asker interface {
	Ask(ctx context.Context, question, conversationID string) (models.ChatResponse, error)
	AskStream(ctx context.Context, question, conversationID string, onDelta func(string) error) (models.ChatResponse, error)
}

type ChatHandler struct {
	assistant Asker
}

func NewChatHandler(assistant Asker) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// Chat - Tanya asisten keluarga, conversationId opsional untuk lanjut percakapan
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.assistant.Ask(c.UserContext(), req.Question, req.ConversationID)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// ChatStream - Sama seperti Chat, jawaban dikirim bertahap lewat server-sent events.
// Urutan event: ping, data per potongan jawaban, lalu done atau error.
func (h *ChatHandler) ChatStream(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Question) == "" {
		return assistant.ErrEmptyQuestion
	}

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	asker := h.assistant
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// the request context is gone once the handler returns
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		send := func(event, data string) error {
			if err := writeEvent(w, event, data); err != nil {
				cancel()
				return err
			}
			return nil
		}

		if send("ping", "1") != nil {
			return
		}

		resp, err := asker.AskStream(ctx, req.Question, req.ConversationID, func(delta string) error {
			return send("", delta)
		})
		if err != nil {
			if ctx.Err() == nil {
				_, message := classify(err)
				payload, _ := json.Marshal(fiber.Map{"message": message})
				_ = send("error", string(payload))
			}
			return
		}

		payload, _ := json.Marshal(fiber.Map{"conversationId": resp.ConversationID})
		_ = send("done", string(payload))
	})

	return nil
}

// writeEvent writes one SSE event and flushes it. Multi-line data becomes
// several data fields.
func writeEvent(w *bufio.Writer, event, data string) error {
	if event != "" {
		w.WriteString("event: " + event + "\n")
	}
	for _, line := range strings.Split(data, "\n") {
		w.WriteString("data: " + line + "\n")
	}
	w.WriteString("\n")

	return w.Flush()
}
