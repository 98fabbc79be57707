// Package intercept wraps the page's sole outbound network primitive.
//
// The Transport decorates an http.RoundTripper with an ordered chain of
// classifier-driven handlers: one for submission calls, one for status polls,
// and an implicit passthrough for everything else. New payload shapes become
// new handler entries rather than edits to a monolithic function.
//
// The whole layer is fail-open: a panic anywhere in capture processing is
// recovered and the original call proceeds untouched. A user submitting code
// must never notice the tracker, least of all when it is broken.
package intercept

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/classify"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/correlate"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/extract"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/registry"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
)

// EventSink receives correlation events; the bus implements it.
type EventSink interface {
	Publish(ctx context.Context, e model.CorrelationEvent) bool
}

// handler is one entry in the interception chain.
type handler struct {
	name   string
	match  func(kind classify.Kind) bool
	handle func(t *Transport, req *http.Request, body []byte, call *baseCall) (*http.Response, error)
}

// baseCall records whether the underlying transport has already answered a
// request, so the panic-recovery path never sends the same call twice.
type baseCall struct {
	resp *http.Response
	err  error
	done bool
}

// Transport is the interception layer. Install it once as the page client's
// transport; it owns no goroutines of its own.
type Transport struct {
	base     http.RoundTripper
	registry *Registry
	sink     EventSink
	editor   extract.EditorBuffer
	now      func() time.Time
	log      logger.Logger
	handlers []handler
}

// Registry is the pending-submission registry consulted by the chain.
type Registry = registry.Registry

// New builds a Transport over base. The registry and sink are passed in
// explicitly; the transport never reaches for ambient globals.
func New(base http.RoundTripper, reg *Registry, sink EventSink, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &Transport{
		base:     base,
		registry: reg,
		sink:     sink,
		now:      time.Now,
		log:      logger.Get().Named("intercept"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.handlers = []handler{
		{
			name:   "submission",
			match:  func(k classify.Kind) bool { return k == classify.Submission },
			handle: (*Transport).handleSubmission,
		},
		{
			name:   "statusPoll",
			match:  func(k classify.Kind) bool { return k == classify.StatusPoll },
			handle: (*Transport).handlePoll,
		},
	}
	return t
}

// RoundTrip classifies the call and dispatches it down the handler chain.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := peekRequestBody(req)
	if err != nil {
		// Could not snapshot the body; forward untouched.
		return t.base.RoundTrip(req)
	}

	kind := classify.Classify(req.Method, req.URL.String(), body)
	metrics.RecordCallClassified(string(kind))

	for _, h := range t.handlers {
		if h.match(kind) {
			return t.failOpen(h.name, req, body, h.handle)
		}
	}
	return t.base.RoundTrip(req)
}

// failOpen runs a handler, converting any panic into a plain passthrough of
// the original call. A request is sent to the site at most once: if the
// handler panicked after the base transport answered, the page gets that
// answer; only a panic before the base call triggers a fresh dispatch.
func (t *Transport) failOpen(name string, req *http.Request, body []byte, fn func(*Transport, *http.Request, []byte, *baseCall) (*http.Response, error)) (resp *http.Response, err error) {
	call := &baseCall{}
	panicked := true
	defer func() {
		if r := recover(); r != nil || panicked {
			t.log.Warn(req.Context(), "capture handler failed; passing call through",
				logger.String("handler", name),
				logger.Any("panic", r),
			)
			if call.done {
				resp, err = call.resp, call.err
				return
			}
			if body != nil {
				req.Body = io.NopCloser(bytes.NewReader(body))
			}
			resp, err = t.base.RoundTrip(req)
		}
	}()
	resp, err = fn(t, req, body, call)
	panicked = false
	return resp, err
}

// send performs the one allowed base round trip for an intercepted call and
// records the outcome for the recovery path.
func (t *Transport) send(req *http.Request, call *baseCall) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	call.resp, call.err, call.done = resp, err, true
	return resp, err
}

// handleSubmission extracts the payload, lets the call complete, and
// registers a pending submission if the response carries an identifier.
func (t *Transport) handleSubmission(req *http.Request, body []byte, call *baseCall) (*http.Response, error) {
	payload := extract.Submission(req.Header.Get("Content-Type"), body, t.editor)

	resp, err := t.send(req, call)
	if err != nil || resp == nil {
		return resp, err
	}

	respBody, ok := peekResponseBody(resp)
	if !ok {
		return resp, nil
	}

	id, found := extract.SubmissionID(respBody)
	if !found {
		// No identifier means nothing to track; silent no-op.
		return resp, nil
	}

	now := t.now()
	t.registry.Put(model.PendingSubmission{
		SubmissionID:  id,
		CorrelationID: registry.NewCorrelationID(now),
		Code:          payload.Code,
		Language:      payload.Language,
		ProblemID:     payload.ProblemID,
		CreatedAt:     now,
		Status:        model.PendingStatusPending,
	})
	metrics.RecordSubmissionCaptured()
	t.log.Debug(req.Context(), "submission captured",
		logger.String("submissionID", id),
		logger.String("problemID", payload.ProblemID),
	)
	return resp, nil
}

// handlePoll correlates a status poll with a pending submission and emits a
// correlation event on acceptance.
func (t *Transport) handlePoll(req *http.Request, body []byte, call *baseCall) (*http.Response, error) {
	id, found := correlate.PollID(req.URL.String(), body)
	if !found {
		return t.send(req, call)
	}
	if _, tracked := t.registry.Get(id); !tracked {
		// Cheap exit for the common case of polls we never captured.
		metrics.RecordCorrelationMiss()
		return t.send(req, call)
	}

	resp, err := t.send(req, call)
	if err != nil || resp == nil {
		return resp, err
	}

	respBody, ok := peekResponseBody(resp)
	if !ok {
		return resp, nil
	}

	verdict := correlate.Evaluate(respBody)
	if !verdict.Accepted {
		// Not decided yet; leave the entry for a future poll.
		return resp, nil
	}

	rec, ok := t.registry.MarkAccepted(id)
	if !ok {
		// Lost the race against the sweep or a concurrent poll.
		return resp, nil
	}

	t.emit(req.Context(), model.CorrelationEvent{
		SubmissionID:  rec.SubmissionID,
		CorrelationID: rec.CorrelationID,
		Code:          rec.Code,
		Language:      rec.Language,
		ProblemID:     rec.ProblemID,
		Runtime:       verdict.Runtime,
		Memory:        verdict.Memory,
		Timestamp:     t.now(),
	})
	return resp, nil
}

// emit publishes the event. Failures are logged, never raised: the caller of
// the original network call must not see them.
func (t *Transport) emit(ctx context.Context, ev model.CorrelationEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn(ctx, "event emission panicked", logger.Any("panic", r))
		}
	}()
	if t.sink == nil || !t.sink.Publish(ctx, ev) {
		t.log.Warn(ctx, "correlation event dropped",
			logger.String("submissionID", ev.SubmissionID),
			logger.String("correlationID", ev.CorrelationID),
		)
	}
}

// peekRequestBody reads the request body and restores it so the underlying
// transport sees an untouched request.
func peekRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// peekResponseBody clones the response body, leaving the response readable by
// the page exactly as the site sent it.
func peekResponseBody(resp *http.Response) ([]byte, bool) {
	if resp.Body == nil {
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	return body, true
}
