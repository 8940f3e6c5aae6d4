package work

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

// HandlerV1 is the handler for v1 work routes
type HandlerV1 struct {
	migrationService port.MigrationService
	logger           *slog.Logger
}

// NewWorkHandlerV1 creates HandlerV1
func NewWorkHandlerV1(service port.MigrationService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		migrationService: service,
		logger:           logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Put("/{workID}", h.RegisterWorkV1)
	router.Get("/{workID}", h.GetWorkV1)
	router.Post("/{workID}/migrations", h.MigrateWorkV1)
	router.Get("/{workID}/snapshots", h.ListSnapshotsV1)
	router.Get("/{workID}/activities", h.ListActivitiesV1)

	return router
}

func workID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "workID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
