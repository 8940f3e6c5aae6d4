package work

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulibrary/pdc-describe-sub000/internal/adapters/handlers/http/chi/v1/snapshot"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

type V1ListSnapshotsResponse struct {
	Snapshots []snapshot.V1SnapshotResponse `json:"snapshots"`
}

func (h *HandlerV1) ListSnapshotsV1(w http.ResponseWriter, r *http.Request) {

	id, ok := workID(w, r)
	if !ok {
		return
	}

	snapshots, err := h.migrationService.ListSnapshots(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrWorkNotFound):
		http.Error(w, "work not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("error listing snapshots", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	default:
		resp := V1ListSnapshotsResponse{Snapshots: make([]snapshot.V1SnapshotResponse, 0, len(snapshots))}
		for _, s := range snapshots {
			resp.Snapshots = append(resp.Snapshots, snapshot.NewV1SnapshotResponse(s))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
