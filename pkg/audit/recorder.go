// Package audit records domain events off the request path. Entries are sent
// to a single actor that writes them to the audit collection in order.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/gemora/pkg/metrics"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	ActionOrderCreated   = "order.created"
	ActionOrderStatus    = "order.status_changed"
	ActionOrderPaid      = "order.paid"
	ActionOrderDeleted   = "order.deleted"
	ActionCatalogStatus  = "catalog.status_changed"
	ActionCatalogBulk    = "catalog.bulk_approved"
	ActionCatalogDeleted = "catalog.deleted"
	ActionUserRole       = "user.role_changed"
)

// Entry is one audit event.
type Entry struct {
	Action   string
	EntityID string
	ActorID  string
	Data     bson.M
}

// Recorder accepts entries without blocking the caller.
type Recorder interface {
	Record(e Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(Entry) {}

type flush struct{}
type flushed struct{}

type writerActor struct {
	store   repository.AuditStore
	service string
	timeout time.Duration
	logger  *zap.Logger
}

func (a *writerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Entry:
		wctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.store.CreateAuditLog(wctx, &repository.AuditLog{
			Service:   a.service,
			Action:    msg.Action,
			EntityID:  msg.EntityID,
			ActorID:   msg.ActorID,
			Data:      msg.Data,
			CreatedAt: time.Now(),
		})
		cancel()
		if err != nil {
			metrics.AuditDropped.Inc()
			a.logger.Error("Failed to write audit entry",
				zap.String("action", msg.Action),
				zap.String("entity_id", msg.EntityID),
				zap.Error(err))
		}

	case *flush:
		ctx.Respond(&flushed{})

	case *actor.Started:
		a.logger.Info("Audit writer started")

	case *actor.Stopped:
		a.logger.Info("Audit writer stopped")
	}
}

// ActorRecorder forwards entries to the writer actor.
type ActorRecorder struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewActorRecorder(store repository.AuditStore, service string, logger *zap.Logger) (*ActorRecorder, error) {
	system := actor.NewActorSystem()
	logger = logger.Named("audit")

	props := actor.PropsFromProducer(func() actor.Actor {
		return &writerActor{
			store:   store,
			service: service,
			timeout: 5 * time.Second,
			logger:  logger,
		}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-writer")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit writer: %w", err)
	}

	return &ActorRecorder{system: system, pid: pid, logger: logger}, nil
}

func (r *ActorRecorder) Record(e Entry) {
	r.system.Root.Send(r.pid, &e)
}

// Flush waits until every entry recorded before the call has been written.
func (r *ActorRecorder) Flush(timeout time.Duration) error {
	_, err := r.system.Root.RequestFuture(r.pid, &flush{}, timeout).Result()
	return err
}

// Close drains pending entries and stops the writer.
func (r *ActorRecorder) Close(timeout time.Duration) {
	if err := r.Flush(timeout); err != nil {
		r.logger.Warn("Audit flush timed out", zap.Error(err))
	}
	if err := r.system.Root.StopFuture(r.pid).Wait(); err != nil {
		r.logger.Warn("Audit writer did not stop cleanly", zap.Error(err))
	}
}
