// Package assistant answers family-site chat questions through OpenRouter.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"family-site/internal/models"

	"github.com/google/uuid"
	"github.com/revrost/go-openrouter"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyQuestion        = errors.New("missing question")
	ErrNoAnswer             = errors.New("assistant returned no answer")
	ErrStreamingUnavailable = errors.New("streaming answers are not configured")
)

// Completer is the part of the OpenRouter client the assistant uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, request openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

type Options struct {
	Model        string
	SystemPrompt string
	// Location is the zone the assistant tells the time in.
	Location *time.Location
}

type Assistant struct {
	client   Completer
	streams  StreamOpener
	memory   *Memory
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
	location *time.Location
}

// New builds an assistant. memory may be nil, in which case every question
// starts a fresh conversation.
func New(client Completer, memory *Memory, opts Options, log zerolog.Logger) *Assistant {
	loc := opts.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("America/Chicago")
		if err != nil {
			loc = time.UTC
		}
	}

	return &Assistant{
		client:   client,
		memory:   memory,
		opts:     opts,
		log:      log.With().Str("component", "assistant").Logger(),
		now:      time.Now,
		location: loc,
	}
}

// WithClock replaces the time source.
func (a *Assistant) WithClock(now func() time.Time) *Assistant {
	a.now = now
	return a
}

// Ask answers question in the context of conversationID. A blank or malformed
// id starts a new conversation; the id in the response is the one to send next time.
func (a *Assistant) Ask(ctx context.Context, question, conversationID string) (models.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatResponse{}, ErrEmptyQuestion
	}

	conversationID, history := a.conversation(ctx, conversationID)

	resp, err := a.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    a.opts.Model,
		Messages: a.messages(history, question),
	})
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to send open router request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.ChatResponse{}, ErrNoAnswer
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content.Text)
	if answer == "" {
		return models.ChatResponse{}, ErrNoAnswer
	}

	a.remember(ctx, conversationID, question, answer)

	return models.ChatResponse{Answer: answer, ConversationID: conversationID}, nil
}

// conversation resolves the id to continue and its stored history.
func (a *Assistant) conversation(ctx context.Context, id string) (string, []models.ChatTurn) {
	if _, err := uuid.Parse(id); err != nil {
		return uuid.NewString(), nil
	}
	if a.memory == nil {
		return id, nil
	}

	history, err := a.memory.Load(ctx, id)
	if err != nil {
		a.log.Warn().Err(err).Str("conversation", id).Msg("could not load chat history")
	}
	return id, history
}

func (a *Assistant) remember(ctx context.Context, id, question, answer string) {
	if a.memory == nil {
		return
	}

	err := a.memory.Append(ctx, id,
		models.ChatTurn{Role: openrouter.ChatMessageRoleUser, Content: question},
		models.ChatTurn{Role: openrouter.ChatMessageRoleAssistant, Content: answer},
	)
	if err != nil {
		a.log.Warn().Err(err).Str("conversation", id).Msg("could not save chat history")
	}
}

func (a *Assistant) messages(history []models.ChatTurn, question string) []openrouter.ChatCompletionMessage {
	msgs := make([]openrouter.ChatCompletionMessage, 0, len(history)+3)

	if a.opts.SystemPrompt != "" {
		msgs = append(msgs, openrouter.ChatCompletionMessage{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: a.opts.SystemPrompt},
		})
	}

	msgs = append(msgs, openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleSystem,
		Content: openrouter.Content{Text: "The current date and time is " + a.now().In(a.location).Format("Monday, January 2, 2006 3:04 PM MST") + "."},
	})

	for _, turn := range history {
		msgs = append(msgs, openrouter.ChatCompletionMessage{
			Role:    turn.Role,
			Content: openrouter.Content{Text: turn.Content},
		})
	}

	return append(msgs, openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleUser,
		Content: openrouter.Content{Text: question},
	})
}

const DefaultSystemPrompt = `You are the friendly assistant on our family website.
Answer questions about our family, the blog and the photos warmly and briefly.
If you do not know something about the family, say so instead of guessing.`
