package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  Is a ruby harder than topaz?  ")
	assert.Contains(t, p, `"Is a ruby harder than topaz?"`)
	assert.Contains(t, p, "musical instruments")
}

func TestIsKeyRejected(t *testing.T) {
	assert.True(t, IsKeyRejected(status.Error(codes.PermissionDenied, "denied")))
	assert.True(t, IsKeyRejected(fmt.Errorf("googleapi: Error 403: Your API key was reported as leaked")))
	assert.True(t, IsKeyRejected(errors.New("key LEAKED")))
	assert.False(t, IsKeyRejected(status.Error(codes.Unavailable, "overloaded")))
	assert.False(t, IsKeyRejected(nil))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Rubies "), genai.Text("are corundum.")}},
		}},
	}
	assert.Equal(t, "Rubies are corundum.", ResponseText(resp))
	assert.Empty(t, ResponseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, ResponseText(nil))
}
