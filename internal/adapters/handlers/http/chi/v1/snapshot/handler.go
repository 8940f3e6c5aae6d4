package snapshot

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

// HandlerV1 is the handler for v1 snapshot routes
type HandlerV1 struct {
	migrationService port.MigrationService
	logger           *slog.Logger
}

// NewSnapshotHandlerV1 creates HandlerV1
func NewSnapshotHandlerV1(service port.MigrationService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		migrationService: service,
		logger:           logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{snapshotID}", h.GetSnapshotV1)

	return router
}
