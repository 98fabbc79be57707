// Package types contains the wire types shared by the ingestion API and the
// forwarding client.
package types

import (
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
)

// TrackResponse is returned by the single-event tracking endpoint.
type TrackResponse struct {
	Success   bool `json:"success"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// SyncProblem is a problem record carried in an offline sync batch.
type SyncProblem struct {
	PlatformID string   `json:"platformId"`
	Title      string   `json:"title,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	URL        string   `json:"url,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// SyncSubmission is a submission record carried in an offline sync batch.
// It embeds the correlation event captured at submit time plus the metadata
// the client attached while the record sat in its offline queue.
type SyncSubmission struct {
	model.CorrelationEvent
	OfflineID string `json:"offlineId,omitempty"`
	Status    string `json:"status,omitempty"`
}

// PendingDeletions lists records the client removed while offline.
type PendingDeletions struct {
	Problems    []string `json:"problems,omitempty"`
	Submissions []string `json:"submissions,omitempty"`
}

// SyncRequest is the batched offline sync payload.
type SyncRequest struct {
	Problems         []SyncProblem    `json:"problems,omitempty"`
	Submissions      []SyncSubmission `json:"submissions,omitempty"`
	PendingDeletions PendingDeletions `json:"pendingDeletions,omitempty"`
}

// Processed counts the records a sync call applied.
type Processed struct {
	Problems    int `json:"problems"`
	Submissions int `json:"submissions"`
	Deletions   int `json:"deletions"`
}

// SyncError reports a single failed record within a sync batch.
type SyncError struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SyncResponse is returned by the offline sync endpoint. Success means the
// batch was processed, not that every record applied; per-record failures
// appear in Errors.
type SyncResponse struct {
	Success   bool        `json:"success"`
	Processed Processed   `json:"processed"`
	Errors    []SyncError `json:"errors,omitempty"`
}
