// Package ai talks to the Gemini text model behind the chat endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptyReply = errors.New("ai: model returned no text")

type GeminiAssistant struct {
	client *genai.Client
	model  string
}

func NewGeminiAssistant(ctx context.Context, apiKey, model string) (*GeminiAssistant, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAssistant{client: client, model: model}, nil
}

func (a *GeminiAssistant) Model() string { return a.model }

func (a *GeminiAssistant) Reply(ctx context.Context, message string) (string, error) {
	resp, err := a.client.GenerativeModel(a.model).GenerateContent(ctx, genai.Text(BuildPrompt(message)))
	if err != nil {
		return "", err
	}
	text := ResponseText(resp)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func (a *GeminiAssistant) Close() error {
	return a.client.Close()
}

// ResponseText joins the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// IsKeyRejected reports whether err means the API key was refused or revoked.
func IsKeyRejected(err error) bool {
	if err == nil {
		return false
	}
	if code := status.Code(err); code == codes.PermissionDenied || code == codes.Unauthenticated {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "403") || strings.Contains(msg, "leaked")
}
