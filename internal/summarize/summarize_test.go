package summarize

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"workbench/internal/gemini"
)

type fakeGenClient struct {
	model    string
	contents []*genai.Content
	resp     *genai.GenerateContentResponse
	err      error
}

func (c *fakeGenClient) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	c.model = model
	c.contents = contents
	return c.resp, c.err
}

func (c *fakeGenClient) ListModels(_ context.Context) ([]gemini.ModelInfo, error) {
	panic("not used")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestSummarize_SendsPromptAndModel(t *testing.T) {
	client := &fakeGenClient{resp: textResponse("  a short summary \n")}
	svc := New(client, "gemini-2.5-flash", zap.NewNop())

	got, err := svc.Summarize(context.Background(), "some pasted content")

	require.NoError(t, err)
	assert.Equal(t, "a short summary", got)
	assert.Equal(t, "gemini-2.5-flash", client.model)
	require.Len(t, client.contents, 1)
	require.Len(t, client.contents[0].Parts, 1)
	assert.Contains(t, client.contents[0].Parts[0].Text, "some pasted content")
}

func TestSummarize_TruncatesOversizedContent(t *testing.T) {
	client := &fakeGenClient{resp: textResponse("summary")}
	svc := New(client, "m", zap.NewNop())
	content := strings.Repeat("x", maxContentBytes+100)

	_, err := svc.Summarize(context.Background(), content)

	require.NoError(t, err)
	sent := client.contents[0].Parts[0].Text
	assert.Len(t, sent, len(textPrompt)+maxContentBytes)
}

func TestSummarize_WrapsClientError(t *testing.T) {
	client := &fakeGenClient{err: errors.New("quota exceeded")}
	svc := New(client, "m", zap.NewNop())

	_, err := svc.Summarize(context.Background(), "content")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSummarize_EmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"blank text", textResponse("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&fakeGenClient{resp: tt.resp}, "m", zap.NewNop())

			_, err := svc.Summarize(context.Background(), "content")

			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestSummarize_ConcatenatesMultipleParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "two "}, {Text: "halves"}}}},
		},
	}
	svc := New(&fakeGenClient{resp: resp}, "m", zap.NewNop())

	got, err := svc.Summarize(context.Background(), "content")

	require.NoError(t, err)
	assert.Equal(t, "two halves", got)
}

func TestSummarizeImage_SendsPNGPart(t *testing.T) {
	client := &fakeGenClient{resp: textResponse("a tiny square")}
	svc := New(client, "m", zap.NewNop())

	got, err := svc.SummarizeImage(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))

	require.NoError(t, err)
	assert.Equal(t, "a tiny square", got)
	require.Len(t, client.contents, 1)
	parts := client.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, imagePrompt, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.NotEmpty(t, parts[1].InlineData.Data)
}
