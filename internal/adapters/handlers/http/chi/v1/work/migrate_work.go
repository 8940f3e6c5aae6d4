package work

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// V1MigrateWorkResponse is the response to a scheduled migration
type V1MigrateWorkResponse struct {
	SnapshotID     uuid.UUID `json:"snapshot_id"`
	FileCount      int       `json:"file_count"`
	DirectoryCount int       `json:"directory_count"`
	Enqueued       int       `json:"enqueued"`
	Skipped        bool      `json:"skipped"`
	Complete       bool      `json:"complete"`
}

// MigrateWorkV1 is the function that handles MigrateWork
func (h *HandlerV1) MigrateWorkV1(w http.ResponseWriter, r *http.Request) {

	id, ok := workID(w, r)
	if !ok {
		return
	}

	result, err := h.migrationService.MigrateWork(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrWorkNotFound):
		http.Error(w, "work not found", http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrSourceUnavailable):
		h.logger.Error("migration source unavailable", "work_id", id, "error", err)
		http.Error(w, "migration source unavailable", http.StatusBadGateway)
		return
	case err != nil:
		h.logger.Error("error migrating work", "work_id", id, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case result == nil || result.Snapshot == nil:
		h.logger.Error("migration returned no snapshot", "work_id", id)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		resp := V1MigrateWorkResponse{
			SnapshotID:     result.Snapshot.ID,
			FileCount:      result.FileCount,
			DirectoryCount: result.DirectoryCount,
			Enqueued:       result.Enqueued,
			Skipped:        result.Skipped,
			Complete:       result.Snapshot.Remaining() == 0,
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "/api/v1/snapshots/"+result.Snapshot.ID.String())
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
