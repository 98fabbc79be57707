// Package forward delivers correlation events to the ingestion API.
//
// The forwarder drains the event bus and posts each event to the tracking
// endpoint. Delivery failures do not lose events: they land in an offline
// queue that is flushed in batches through the sync endpoint once the API is
// reachable again.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/types"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
)

// Default forwarder configuration constants.
const (
	defaultBatchSize = 50
	requestTimeout   = 10 * time.Second
)

// Event is what the forwarder reads off the bus.
type Event = model.CorrelationEvent

// Source defines how the forwarder receives events.
type Source interface {
	Subscribe(ctx context.Context) <-chan Event
}

// Forwarder posts accepted-submission events to the ingestion API.
type Forwarder struct {
	source    Source
	client    *http.Client
	baseURL   string
	token     string
	batchSize int

	mu      sync.Mutex
	offline []types.SyncSubmission

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a forwarder with configuration options. baseURL is the
// ingestion API root; token is sent as a bearer credential on every call.
func New(source Source, baseURL, token string, opts ...Option) *Forwarder {
	f := &Forwarder{
		source:    source,
		client:    &http.Client{Timeout: requestTimeout},
		baseURL:   baseURL,
		token:     token,
		batchSize: defaultBatchSize,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("forwarder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run drains the source until the context is canceled, the forwarder is shut
// down, or the source channel closes.
func (f *Forwarder) Run(ctx context.Context) {
	defer close(f.done)

	events := f.source.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.processEvent(ctx, ev)
		}
	}
}

// Shutdown gracefully stops the forwarder.
func (f *Forwarder) Shutdown(ctx context.Context) error {
	close(f.shutdown)

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		f.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// OfflineLen reports how many events are waiting in the offline queue.
func (f *Forwarder) OfflineLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.offline)
}

// processEvent delivers one event, queueing it offline when the API is
// unreachable. A successful delivery also triggers a flush of anything the
// queue accumulated while the API was down.
func (f *Forwarder) processEvent(ctx context.Context, ev Event) {
	duplicate, err := f.sendTrack(ctx, ev)
	if err != nil {
		metrics.RecordForwardFailure()
		f.logger.Warn(ctx, "delivery failed; queueing offline",
			logger.String("submissionID", ev.SubmissionID),
			logger.Error(err),
		)
		f.enqueue(ev)
		return
	}

	metrics.RecordEventForwarded()
	if duplicate {
		f.logger.Debug(ctx, "event was a duplicate",
			logger.String("submissionID", ev.SubmissionID))
	}

	if f.OfflineLen() > 0 {
		if err := f.Flush(ctx); err != nil {
			f.logger.Warn(ctx, "offline flush failed", logger.Error(err))
		}
	}
}

// sendTrack posts a single event to the tracking endpoint. A non-2xx status
// other than conflict is treated as a rejection and not retried.
func (f *Forwarder) sendTrack(ctx context.Context, ev Event) (bool, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("encoding event: %w", err)
	}

	resp, err := f.post(ctx, "/track", body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var tr types.TrackResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return false, nil
		}
		return tr.Duplicate, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The server refused the record; queueing it would refuse forever.
		f.logger.Warn(ctx, "event rejected",
			logger.String("submissionID", ev.SubmissionID),
			logger.Int("status", resp.StatusCode),
		)
		return false, nil
	default:
		return false, fmt.Errorf("track returned status %d", resp.StatusCode)
	}
}

// Flush delivers the offline queue in batches through the sync endpoint.
// Undelivered batches stay queued for the next attempt.
func (f *Forwarder) Flush(ctx context.Context) error {
	for {
		batch := f.takeBatch()
		if len(batch) == 0 {
			return nil
		}

		if err := f.sendBatch(ctx, batch); err != nil {
			f.requeue(batch)
			return err
		}
		metrics.RecordOfflineFlushed(len(batch))
	}
}

func (f *Forwarder) sendBatch(ctx context.Context, batch []types.SyncSubmission) error {
	body, err := json.Marshal(types.SyncRequest{Submissions: batch})
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	resp, err := f.post(ctx, "/offline-sync", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync returned status %d", resp.StatusCode)
	}

	var sr types.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil
	}
	for _, se := range sr.Errors {
		// Per-record failures are final; the record is dropped.
		f.logger.Warn(ctx, "sync record rejected",
			logger.String("type", se.Type),
			logger.String("id", se.ID),
			logger.String("reason", se.Message),
		)
	}
	return nil
}

func (f *Forwarder) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *Forwarder) enqueue(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, types.SyncSubmission{CorrelationEvent: ev})
	metrics.UpdateOfflineQueueSize(len(f.offline))
}

// takeBatch removes up to batchSize events from the head of the queue.
func (f *Forwarder) takeBatch() []types.SyncSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(f.batchSize, len(f.offline))
	if n == 0 {
		return nil
	}
	batch := make([]types.SyncSubmission, n)
	copy(batch, f.offline[:n])
	f.offline = f.offline[n:]
	metrics.UpdateOfflineQueueSize(len(f.offline))
	return batch
}

// requeue puts a failed batch back at the head, preserving capture order.
func (f *Forwarder) requeue(batch []types.SyncSubmission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(batch, f.offline...)
	metrics.UpdateOfflineQueueSize(len(f.offline))
}
