package llm

import (
	"context"
	"fmt"
	"strings"

	"mathly/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const recognizePrompt = `Transcribe the mathematical equation or word problem shown in this image.
Return only the transcribed text using plain ASCII math notation (use ^ for powers, / for fractions, * for multiplication).
Do not solve it and do not add commentary.`

// GeminiRecognizer reads equations from photos with a Gemini vision model.
type GeminiRecognizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiRecognizer creates a new Gemini API client for text recognition.
func NewGeminiRecognizer(ctx context.Context, cfg *config.Config) (*GeminiRecognizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Gemini.Model)
	model.SetTemperature(0)
	return &GeminiRecognizer{client: client, model: model}, nil
}

// RecognizeText returns the text found in the image.
func (r *GeminiRecognizer) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}

	format := strings.TrimPrefix(strings.ToLower(mimeType), "image/")
	if format == "" {
		format = "jpeg"
	}

	resp, err := r.model.GenerateContent(ctx, genai.ImageData(format, image), genai.Text(recognizePrompt))
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	recognized := strings.TrimSpace(sb.String())
	if recognized == "" {
		return "", ErrEmptyResponse
	}
	return recognized, nil
}

// Close closes the underlying Gemini client.
func (r *GeminiRecognizer) Close() error {
	return r.client.Close()
}
