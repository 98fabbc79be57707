package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	service "github.com/Ayush-Panwar/dsa-tracker-sub001/internal/app"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/types"
)

// TrackHandler handles single-event tracking requests.
type TrackHandler struct {
	deps Dependencies
}

// NewTrackHandler creates a new track handler.
func NewTrackHandler(deps Dependencies) *TrackHandler {
	return &TrackHandler{deps: deps}
}

// HandleTrack handles POST /track requests.
func (h *TrackHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.track"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var ev model.CorrelationEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%s: %w: %s", op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Track(r.Context(), owner, ev)
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, types.TrackResponse{Success: true, Duplicate: res.Duplicate})
}
