package service

import (
	"context"
	"strings"
	"time"

	"github.com/example/gemora/pkg/ai"
	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/repository"
	"go.uber.org/zap"
)

// Assistant answers one customer message.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

const maxChatMessage = 2000

type ChatService struct {
	assistant   Assistant
	transcripts repository.TranscriptStore
	model       string
	logger      *zap.Logger
}

// NewChatService builds the chat service. assistant may be nil when no API
// key is configured; transcripts may be nil when MySQL is disabled.
func NewChatService(assistant Assistant, transcripts repository.TranscriptStore, model string, logger *zap.Logger) *ChatService {
	return &ChatService{
		assistant:   assistant,
		transcripts: transcripts,
		model:       model,
		logger:      logger.Named("chat"),
	}
}

func (s *ChatService) Ask(ctx context.Context, p *auth.Principal, clientIP, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		metrics.ChatRequests.WithLabelValues("invalid").Inc()
		return "", apperr.InvalidInput("Chat failed").WithDetail("Message cannot be empty")
	}
	if len(message) > maxChatMessage {
		metrics.ChatRequests.WithLabelValues("invalid").Inc()
		return "", apperr.InvalidInput("Chat failed").WithDetail("Message is too long")
	}
	if s.assistant == nil {
		metrics.ChatRequests.WithLabelValues("unconfigured").Inc()
		return "", apperr.Dependency("Chat failed", nil).WithDetail("API key not configured")
	}

	reply, err := s.assistant.Reply(ctx, message)
	if err != nil {
		if ai.IsKeyRejected(err) {
			metrics.ChatRequests.WithLabelValues("key_rejected").Inc()
			s.logger.Error("Assistant rejected the API key", zap.Error(err))
			return "", apperr.Unavailable("Chat unavailable", err).
				WithDetail("Gemini API key is invalid or revoked. Please rotate the key.")
		}
		metrics.ChatRequests.WithLabelValues("error").Inc()
		s.logger.Error("Assistant request failed", zap.Error(err))
		return "", apperr.Dependency("Chat failed", err)
	}
	metrics.ChatRequests.WithLabelValues("ok").Inc()

	s.save(ctx, p, clientIP, message, reply)
	return reply, nil
}

func (s *ChatService) save(ctx context.Context, p *auth.Principal, clientIP, message, reply string) {
	if s.transcripts == nil {
		return
	}
	t := &models.ChatTranscript{
		ClientIP:  clientIP,
		Message:   message,
		Reply:     reply,
		Model:     s.model,
		CreatedAt: time.Now(),
	}
	if p != nil {
		t.UserID = p.UserID.Hex()
	}
	if err := s.transcripts.SaveTranscript(ctx, t); err != nil {
		s.logger.Warn("Failed to store chat transcript", zap.Error(err))
	}
}

// History returns p's most recent exchanges, newest first.
func (s *ChatService) History(ctx context.Context, p auth.Principal, limit int) ([]models.ChatTranscript, error) {
	if s.transcripts == nil {
		return []models.ChatTranscript{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.transcripts.RecentTranscripts(ctx, p.UserID.Hex(), limit)
	if err != nil {
		return nil, apperr.Dependency("Failed to load chat history", err)
	}
	return out, nil
}
