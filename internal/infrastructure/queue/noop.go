package queue

import (
	"context"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

// NoopEnqueuer drops audit events when Redis/Asynq is not configured. The
// structured audit log still records every event.
type NoopEnqueuer struct{}

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

// EnqueueAuditWebhook implements ports.TaskEnqueuer.
func (q *NoopEnqueuer) EnqueueAuditWebhook(ctx context.Context, event ports.AuditEvent) error {
	return nil
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)
