package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"family-site/internal/models"

	"github.com/revrost/go-openrouter"
)

// ChatStream yields completion chunks until io.EOF.
type ChatStream interface {
	Recv() (openrouter.ChatCompletionStreamResponse, error)
	Close()
}

// StreamOpener starts a streamed completion.
type StreamOpener interface {
	OpenStream(ctx context.Context, request openrouter.ChatCompletionRequest) (ChatStream, error)
}

// OpenRouterStreams opens streams with the OpenRouter client.
type OpenRouterStreams struct {
	Client *openrouter.Client
}

func (s OpenRouterStreams) OpenStream(ctx context.Context, request openrouter.ChatCompletionRequest) (ChatStream, error) {
	stream, err := s.Client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// WithStreams enables AskStream.
func (a *Assistant) WithStreams(streams StreamOpener) *Assistant {
	a.streams = streams
	return a
}

// AskStream is Ask with the answer handed to onDelta piece by piece as the
// model produces it. Canceling ctx, or an error from onDelta, stops the
// upstream request and nothing is saved to the conversation.
func (a *Assistant) AskStream(ctx context.Context, question, conversationID string, onDelta func(string) error) (models.ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatResponse{}, ErrEmptyQuestion
	}
	if a.streams == nil {
		return models.ChatResponse{}, ErrStreamingUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conversationID, history := a.conversation(ctx, conversationID)

	stream, err := a.streams.OpenStream(ctx, openrouter.ChatCompletionRequest{
		Model:    a.opts.Model,
		Messages: a.messages(history, question),
		Stream:   true,
	})
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("failed to open open router stream: %w", err)
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.ChatResponse{}, fmt.Errorf("failed to read open router stream: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		answer.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return models.ChatResponse{}, err
		}
	}

	// the client library ends the stream quietly on cancellation
	if err := ctx.Err(); err != nil {
		return models.ChatResponse{}, err
	}

	text := strings.TrimSpace(answer.String())
	if text == "" {
		return models.ChatResponse{}, ErrNoAnswer
	}

	a.remember(ctx, conversationID, question, text)

	return models.ChatResponse{Answer: text, ConversationID: conversationID}, nil
}
