package work

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

type V1ActivityResponse struct {
	ID         uuid.UUID              `json:"id"`
	SnapshotID uuid.UUID              `json:"snapshot_id"`
	Type       domain.ActivityType    `json:"type"`
	Payload    domain.ActivityPayload `json:"payload"`
	CreatedAt  time.Time              `json:"created_at"`
}

type V1ListActivitiesResponse struct {
	Activities []V1ActivityResponse `json:"activities"`
}

func (h *HandlerV1) ListActivitiesV1(w http.ResponseWriter, r *http.Request) {

	id, ok := workID(w, r)
	if !ok {
		return
	}

	activities, err := h.migrationService.ListActivities(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrWorkNotFound):
		http.Error(w, "work not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("error listing activities", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		resp := V1ListActivitiesResponse{Activities: make([]V1ActivityResponse, 0, len(activities))}
		for _, a := range activities {
			resp.Activities = append(resp.Activities, V1ActivityResponse{
				ID:         a.ID,
				SnapshotID: a.SnapshotID,
				Type:       a.Type,
				Payload:    a.Payload,
				CreatedAt:  a.CreatedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
