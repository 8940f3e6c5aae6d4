package work

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// V1RegisterWorkRequest is the request to register or update a work
type V1RegisterWorkRequest struct {
	DOI    string  `json:"doi"`
	ARK    string  `json:"ark"`
	UserID *string `json:"user_id"`
}

// V1WorkResponse is a registered work
type V1WorkResponse struct {
	ID        uuid.UUID `json:"id"`
	DOI       string    `json:"doi"`
	ARK       string    `json:"ark"`
	UserID    *string   `json:"user_id,omitempty"`
	Migrated  bool      `json:"migrated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newV1WorkResponse(work *domain.Work) V1WorkResponse {
	return V1WorkResponse{
		ID:        work.ID,
		DOI:       work.DOI,
		ARK:       work.ARK,
		UserID:    work.UserID,
		Migrated:  work.Migrated,
		CreatedAt: work.CreatedAt,
		UpdatedAt: work.UpdatedAt,
	}
}

// RegisterWorkV1 is the function that handles RegisterWork
func (h *HandlerV1) RegisterWorkV1(w http.ResponseWriter, r *http.Request) {

	id, ok := workID(w, r)
	if !ok {
		return
	}

	var req V1RegisterWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("error decoding register work request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	work := domain.Work{
		ID:     id,
		DOI:    req.DOI,
		ARK:    req.ARK,
		UserID: req.UserID,
	}

	err := h.migrationService.RegisterWork(r.Context(), work)
	switch {
	case errors.Is(err, domain.ErrInvalidWork):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("error registering work", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		w.WriteHeader(http.StatusNoContent)
		return
	}
}
