package ports

import "context"

// AuditEvent is a single auth event for logging or webhooks.
type AuditEvent struct {
	Event     string `json:"event"` // account.register, account.login, etc.
	SessionID string `json:"session_id"`
	AccountID string `json:"account_id"`
	IP        string `json:"ip"`
	Success   bool   `json:"success"`
	Err       string `json:"error,omitempty"`
}

// TaskEnqueuer enqueues async tasks (audit webhooks).
type TaskEnqueuer interface {
	EnqueueAuditWebhook(ctx context.Context, event AuditEvent) error
}

// WebhookEmitter delivers audit events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
