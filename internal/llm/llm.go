package llm

import (
	"context"
	"errors"
	"fmt"

	"mathly/internal/shared"
)

// ErrEmptyResponse is returned when the model answers without any content.
var ErrEmptyResponse = errors.New("no content generated")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Recognizer extracts text from an image.
type Recognizer interface {
	RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// StatusError reports a non-200 answer from the completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api error: status=%d body=%s", e.StatusCode, e.Body)
}
