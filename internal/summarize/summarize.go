// Package summarize produces the short descriptions shown for pasted
// content, backed by the Gemini API.
package summarize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"workbench/internal/gemini"
)

const textPrompt = "Summarize the following content in one short phrase of at most 12 words. " +
	"Respond with the phrase only, no punctuation at the end.\n\n"

const imagePrompt = "Describe this image in one short phrase of at most 12 words. " +
	"Respond with the phrase only, no punctuation at the end."

// maxContentBytes truncates oversized pastes before they reach the API; a
// description does not need the whole document.
const maxContentBytes = 32 << 10

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("summarizer returned no text")

// Service summarizes text and images via a Gemini model.
type Service struct {
	client gemini.Client
	model  string
	log    *zap.Logger
}

// New creates a Service bound to one model name.
func New(client gemini.Client, model string, log *zap.Logger) *Service {
	return &Service{client: client, model: model, log: log}
}

// Summarize returns a one-line description of the content.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	if len(content) > maxContentBytes {
		content = content[:maxContentBytes]
	}
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(textPrompt + content),
			},
		},
	}
	resp, err := s.client.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", fmt.Errorf("summarize text: %w", err)
	}
	return responseText(resp)
}

// SummarizeImage returns a one-line description of the image.
func (s *Service) SummarizeImage(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image for summary: %w", err)
	}
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(imagePrompt),
				genai.NewPartFromBytes(buf.Bytes(), "image/png"),
			},
		},
	}
	resp, err := s.client.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", fmt.Errorf("summarize image: %w", err)
	}
	return responseText(resp)
}

// responseText extracts the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
