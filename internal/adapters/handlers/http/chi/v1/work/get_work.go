package work

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// GetWorkV1 is the function that handles GetWork
func (h *HandlerV1) GetWorkV1(w http.ResponseWriter, r *http.Request) {

	id, ok := workID(w, r)
	if !ok {
		return
	}

	work, err := h.migrationService.GetWork(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrWorkNotFound):
		http.Error(w, "work not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("error getting work", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(newV1WorkResponse(work)); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
