package service

import (
	"context"
	"sync"

	"github.com/example/gemora/pkg/audit"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/models"
	"github.com/example/gemora/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAuditor) Record(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, folder string, file storage.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	return "https://cdn.test/" + folder + "/" + file.Name, nil
}

func userPrincipal() auth.Principal {
	return auth.Principal{UserID: primitive.NewObjectID(), Role: models.RoleUser}
}

func adminPrincipal() auth.Principal {
	return auth.Principal{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}
