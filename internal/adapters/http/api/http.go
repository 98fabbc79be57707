// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/Ayush-Panwar/dsa-tracker-sub001/internal/app"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Track applies one accepted-submission event for owner.
	Track(ctx context.Context, owner string, ev model.CorrelationEvent) (service.TrackResult, error)

	// OfflineSync applies a batched sync request for owner.
	OfflineSync(ctx context.Context, owner string, req types.SyncRequest) types.SyncResponse

	StatsProvider
}

// Server wires HTTP routes for the tracking API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	trackHandler  *TrackHandler
	syncHandler   *SyncHandler

	authenticate func(http.HandlerFunc) http.HandlerFunc
	cors         func(http.HandlerFunc) http.HandlerFunc
}

// NewServer creates a new API server with all handlers. The validator guards
// the tracking endpoints; allowedOrigin is the extension origin granted CORS
// access.
func NewServer(deps Dependencies, validator *JWTValidator, allowedOrigin string) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		trackHandler:  NewTrackHandler(deps),
		syncHandler:   NewSyncHandler(deps),
		authenticate:  AuthMiddleware(validator),
		cors:          CORSMiddleware(allowedOrigin),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/track",
		MetricsMiddleware(s.cors(s.authenticate(s.trackHandler.HandleTrack)), "track"))
	mux.HandleFunc("/offline-sync",
		MetricsMiddleware(s.cors(s.authenticate(s.syncHandler.HandleSync)), "offline-sync"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
