package snapshot

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// V1SnapshotResponse is a snapshot with its completion state
type V1SnapshotResponse struct {
	ID                          uuid.UUID           `json:"id"`
	WorkID                      uuid.UUID           `json:"work_id"`
	Kind                        domain.SnapshotKind `json:"kind"`
	Files                       []domain.FileRecord `json:"files"`
	Remaining                   int                 `json:"remaining"`
	MigrationComplete           bool                `json:"migration_complete"`
	MigrationCompleteWithErrors bool                `json:"migration_complete_with_errors"`
	CreatedAt                   time.Time           `json:"created_at"`
	UpdatedAt                   time.Time           `json:"updated_at"`
}

// NewV1SnapshotResponse maps a snapshot to its response
func NewV1SnapshotResponse(s *domain.UploadSnapshot) V1SnapshotResponse {
	files := s.Files
	if files == nil {
		files = []domain.FileRecord{}
	}
	return V1SnapshotResponse{
		ID:                          s.ID,
		WorkID:                      s.WorkID,
		Kind:                        s.Kind,
		Files:                       files,
		Remaining:                   s.Remaining(),
		MigrationComplete:           s.MigrationComplete(),
		MigrationCompleteWithErrors: s.MigrationCompleteWithErrors(),
		CreatedAt:                   s.CreatedAt,
		UpdatedAt:                   s.UpdatedAt,
	}
}

// GetSnapshotV1 is the function that handles GetSnapshot
func (h *HandlerV1) GetSnapshotV1(w http.ResponseWriter, r *http.Request) {

	snapshotID, parseErr := uuid.Parse(chi.URLParam(r, "snapshotID"))
	if parseErr != nil {
		http.Error(w, parseErr.Error(), http.StatusBadRequest)
		return
	}

	s, err := h.migrationService.GetSnapshot(r.Context(), snapshotID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("error getting snapshot", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(NewV1SnapshotResponse(s)); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
