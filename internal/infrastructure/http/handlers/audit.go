package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

// AuditLog logs account events (session_id, account_id, IP).
func AuditLog(log zerolog.Logger, r *http.Request, event, sessionID, accountID string, success bool, errMsg string) {
	ev := log.Info()
	if !success {
		ev = log.Warn()
	}
	ev.
		Str("event", event).
		Str("session_id", sessionID).
		Str("account_id", accountID).
		Str("ip", getClientIP(r)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success)
	if errMsg != "" {
		ev.Str("error", errMsg)
	}
	ev.Msg("account_audit")
}

// AuditEmit logs the event and, if enqueuer is non-nil, hands it to the async
// webhook pipeline. Enqueue failures are the enqueuer's to log; delivery must
// never block or fail the request.
func AuditEmit(log zerolog.Logger, r *http.Request, enqueuer ports.TaskEnqueuer, event, sessionID, accountID string, success bool, errMsg string) {
	AuditLog(log, r, event, sessionID, accountID, success, errMsg)
	if enqueuer != nil {
		_ = enqueuer.EnqueueAuditWebhook(r.Context(), ports.AuditEvent{
			Event:     event,
			SessionID: sessionID,
			AccountID: accountID,
			IP:        getClientIP(r),
			Success:   success,
			Err:       errMsg,
		})
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
