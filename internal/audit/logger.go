// internal/audit/logger.go

// Package audit records authorization denials and destructive operations in
// a dedicated table, outside the ORM, so the trail survives application-level
// bugs in the main write path.
package audit

import (
	"context"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osfield/osfield/internal/domain"
)

// Logger is implemented by audit sinks.
type Logger interface {
	// LogDenied records an authorization denial.
	LogDenied(ctx context.Context, userID uuid.UUID, resource, resourceID, operation string, reason domain.Reason, req *http.Request) error

	// LogDeleted records a hard delete.
	LogDeleted(ctx context.Context, userID uuid.UUID, resource, resourceID string, req *http.Request) error
}

// NoOpLogger discards every record.
type NoOpLogger struct{}

func (NoOpLogger) LogDenied(ctx context.Context, userID uuid.UUID, resource, resourceID, operation string, reason domain.Reason, req *http.Request) error {
	return nil
}

func (NoOpLogger) LogDeleted(ctx context.Context, userID uuid.UUID, resource, resourceID string, req *http.Request) error {
	return nil
}

// PgLogger writes audit rows through a pgx pool.
type PgLogger struct {
	pool *pgxpool.Pool
}

func NewPgLogger(pool *pgxpool.Pool) *PgLogger {
	return &PgLogger{pool: pool}
}

func (l *PgLogger) LogDenied(ctx context.Context, userID uuid.UUID, resource, resourceID, operation string, reason domain.Reason, req *http.Request) error {
	requestID, clientIP, userAgent := requestInfo(req)

	_, err := l.pool.Exec(ctx, `
		INSERT INTO authz_audit_logs (
			action_type, user_id, resource, resource_id, operation, reason,
			request_id, client_ip, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		"denied", userID, resource, resourceID, operation, string(reason),
		requestID, clientIP, userAgent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to write audit record", "error", err)
		return err
	}
	return nil
}

func (l *PgLogger) LogDeleted(ctx context.Context, userID uuid.UUID, resource, resourceID string, req *http.Request) error {
	requestID, clientIP, userAgent := requestInfo(req)

	_, err := l.pool.Exec(ctx, `
		INSERT INTO authz_audit_logs (
			action_type, user_id, resource, resource_id,
			request_id, client_ip, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		"deleted", userID, resource, resourceID,
		requestID, clientIP, userAgent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to write audit record", "error", err)
		return err
	}
	return nil
}

func requestInfo(req *http.Request) (requestID, clientIP, userAgent string) {
	if req == nil {
		return "", "", ""
	}
	return chimw.GetReqID(req.Context()), req.RemoteAddr, req.UserAgent()
}
