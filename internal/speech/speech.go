// Package speech talks to text-to-speech APIs.
package speech

import (
	"context"
	"errors"
	"fmt"
)

const FormatMP3 = "mp3"

var (
	ErrEmptyInput = errors.New("speech input cannot be empty")
	ErrEmptyAudio = errors.New("speech api returned no audio")
)

// Request is one synthesis call.
type Request struct {
	Model        string
	Voice        string
	Input        string
	Instructions string
	Format       string
	Speed        float64
}

// Synthesizer converts text to encoded audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// APIError is a non-2xx answer from the speech API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speech api returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the call can help.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}
