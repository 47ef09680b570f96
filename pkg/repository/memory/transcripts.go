package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/gemora/pkg/models"
)

type TranscriptStore struct {
	mu          sync.RWMutex
	nextID      uint
	transcripts []models.ChatTranscript
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

func (s *TranscriptStore) SaveTranscript(_ context.Context, t *models.ChatTranscript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.transcripts = append(s.transcripts, *t)
	return nil
}

func (s *TranscriptStore) RecentTranscripts(_ context.Context, userID string, limit int) ([]models.ChatTranscript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ChatTranscript{}
	for i := len(s.transcripts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.transcripts[i].UserID == userID {
			out = append(out, s.transcripts[i])
		}
	}
	return out, nil
}
