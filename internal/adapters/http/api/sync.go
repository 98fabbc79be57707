package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/types"
)

// SyncHandler handles offline sync batches.
type SyncHandler struct {
	deps Dependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps Dependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandleSync handles POST /offline-sync requests. The batch always returns
// 200; per-record failures are carried inside the response body.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.offline_sync"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req types.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%s: %w: %s", op, ErrBadRequest, err))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.OfflineSync(r.Context(), owner, req))
}
