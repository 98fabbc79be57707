// Package service provides the core ingestion service that implements
// the dependencies required by the HTTP API.
//
// All writes funnel through a bounded-retry transaction loop: conflicts from
// the store are retried with linear backoff, anything else fails immediately.
// Together with the dedup fast path and the store's unique submission key this
// makes event application idempotent end to end.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/dedupe"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/streak"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/types"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 50 * time.Millisecond
	defaultTxTimeout     = 2 * time.Second
	defaultDedupeSize    = 50_000

	statusAccepted = "Accepted"
)

// TrackResult reports the outcome of applying a single event.
type TrackResult struct {
	Duplicate bool
}

// Service implements the API dependencies for the tracking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper

	// Configuration
	dedupeSize    int
	retryAttempts int
	retryBase     time.Duration
	txTimeout     time.Duration
	now           func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dedupeSize:    defaultDedupeSize,
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
		txTimeout:     defaultTxTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(s.dedupeSize),
		)
	}

	s.started = true
	s.logger.Info(ctx, "tracking service started",
		logger.Int("retryAttempts", s.retryAttempts),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "tracking service stopped")
}

// Track applies a single accepted-submission event for owner. Replays of the
// same submission id report Duplicate without touching counters.
func (s *Service) Track(ctx context.Context, owner string, ev model.CorrelationEvent) (TrackResult, error) {
	if err := validateEvent(ev); err != nil {
		metrics.RecordEventRejected()
		return TrackResult{}, err
	}

	key := dedupe.Key(owner, ev.SubmissionID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEventDuplicate()
		return TrackResult{Duplicate: true}, nil
	}

	start := s.now()
	var duplicate bool
	err := s.applyWithRetry(ctx, owner, func(tx repository.Tx) error {
		var err error
		duplicate, err = s.applySubmission(tx, ev, statusAccepted, ev.SubmissionID)
		return err
	})
	if err != nil {
		// The event never landed; let a redelivery try again.
		s.deduper.Unrecord(ctx, key)
		return TrackResult{}, err
	}

	metrics.RecordIngestLatency(float64(s.now().Sub(start).Milliseconds()))
	if duplicate {
		metrics.RecordEventDuplicate()
	} else {
		metrics.RecordEventIngested()
	}
	return TrackResult{Duplicate: duplicate}, nil
}

// OfflineSync applies a batched sync request record by record. The batch as a
// whole always completes; failed records are reported in the response.
func (s *Service) OfflineSync(ctx context.Context, owner string, req types.SyncRequest) types.SyncResponse {
	resp := types.SyncResponse{Success: true}

	for _, p := range req.Problems {
		if err := s.syncProblem(ctx, owner, p); err != nil {
			resp.Errors = append(resp.Errors, types.SyncError{
				Type: "problem", ID: p.PlatformID, Message: err.Error(),
			})
			continue
		}
		resp.Processed.Problems++
	}

	for _, sub := range req.Submissions {
		if err := s.syncSubmission(ctx, owner, sub); err != nil {
			id := sub.SubmissionID
			if id == "" {
				id = sub.OfflineID
			}
			resp.Errors = append(resp.Errors, types.SyncError{
				Type: "submission", ID: id, Message: err.Error(),
			})
			continue
		}
		resp.Processed.Submissions++
	}

	for _, platformID := range req.PendingDeletions.Problems {
		err := s.applyWithRetry(ctx, owner, func(tx repository.Tx) error {
			return tx.DeleteProblem(platformID)
		})
		if err != nil {
			resp.Errors = append(resp.Errors, types.SyncError{
				Type: "deletion", ID: platformID, Message: err.Error(),
			})
			continue
		}
		resp.Processed.Deletions++
	}
	for _, id := range req.PendingDeletions.Submissions {
		resp.Errors = append(resp.Errors, types.SyncError{
			Type: "deletion", ID: id, Message: "submission deletion is not supported",
		})
	}

	return resp
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"dedupeSize":    s.dedupeSize,
		"retryAttempts": s.retryAttempts,
	}
	if s.deduper != nil {
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}

func validateEvent(ev model.CorrelationEvent) error {
	switch {
	case ev.SubmissionID == "":
		return fmt.Errorf("%w: missing submissionId", ErrValidation)
	case ev.ProblemID == "":
		return fmt.Errorf("%w: missing problemId", ErrValidation)
	case ev.Code == "":
		return fmt.Errorf("%w: missing code", ErrValidation)
	case ev.Language == "":
		return fmt.Errorf("%w: missing language", ErrValidation)
	}
	return nil
}

// applyWithRetry runs fn in a store transaction, retrying conflicts and
// transaction timeouts with linear backoff.
func (s *Service) applyWithRetry(ctx context.Context, owner string, fn func(tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
		err = s.store.InTx(txCtx, owner, fn)
		cancel()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}

		metrics.RecordTxConflict()
		if attempt == s.retryAttempts {
			break
		}
		metrics.RecordTxRetry()
		select {
		case <-time.After(s.retryBase * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, repository.ErrConflict) || errors.Is(err, context.DeadlineExceeded)
}

// applySubmission is the single write path for judged submissions, shared by
// live tracking and offline sync. It creates the problem on first sighting,
// records the submission, advances the problem status, and updates activity
// and statistics. Returns true when the submission already existed.
func (s *Service) applySubmission(tx repository.Tx, ev model.CorrelationEvent, status, externalID string) (bool, error) {
	problem, err := tx.ProblemByPlatformID(ev.ProblemID)
	created := false
	if errors.Is(err, repository.ErrNotFound) {
		problem, err = tx.CreateProblem(model.Problem{
			PlatformID: ev.ProblemID,
			Title:      "Problem " + ev.ProblemID,
			Difficulty: model.DifficultyMedium,
			Status:     model.StatusTodo,
		})
		created = true
	}
	if err != nil {
		return false, err
	}
	if created {
		metrics.RecordProblemCreated()
	}

	if externalID != "" {
		if _, err := tx.SubmissionByExternalID(problem.ID, externalID); err == nil {
			return true, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
	} else {
		if _, err := tx.FindSubmissionLoose(problem.ID, ev.Code, status, ev.Language); err == nil {
			return true, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		externalID = "offline-" + uuid.NewString()
	}

	submittedAt := ev.Timestamp
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	if _, err := tx.CreateSubmission(model.Submission{
		ProblemID:   problem.ID,
		ExternalID:  externalID,
		Code:        ev.Code,
		Language:    ev.Language,
		Status:      status,
		Runtime:     ev.Runtime,
		Memory:      ev.Memory,
		SubmittedAt: submittedAt,
	}); err != nil {
		return false, err
	}
	metrics.RecordSubmissionSaved()

	accepted := status == statusAccepted
	solvedNow := accepted && problem.Status != model.StatusSolved

	target := model.StatusAttempted
	if accepted {
		target = model.StatusSolved
	}
	problem.Status = problem.Status.Advance(target)
	if err := tx.SaveProblem(problem); err != nil {
		return false, err
	}

	if err := s.bumpActivity(tx, submittedAt, solvedNow); err != nil {
		return false, err
	}
	if solvedNow {
		if err := s.bumpStatistics(tx, problem.Difficulty, submittedAt); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (s *Service) bumpActivity(tx repository.Tx, at time.Time, solved bool) error {
	act, err := tx.ActivityOn(dayOf(at))
	if err != nil {
		return err
	}
	act.ProblemsAttempted++
	if solved {
		act.ProblemsSolved++
	}
	return tx.SaveActivity(act)
}

// bumpStatistics applies the counters for a first accepted solve of a
// problem: totals, the per-difficulty bucket, and the streak laws.
func (s *Service) bumpStatistics(tx repository.Tx, difficulty model.Difficulty, at time.Time) error {
	stats, err := tx.Statistics()
	if err != nil {
		return err
	}

	stats.TotalSolved++
	switch difficulty {
	case model.DifficultyEasy:
		stats.EasySolved++
	case model.DifficultyHard:
		stats.HardSolved++
	default:
		stats.MediumSolved++
	}

	stats.Streak = streak.Next(stats.LastSolved, at, stats.Streak)
	stats.LongestStreak = streak.Longest(stats.LongestStreak, stats.Streak)
	solvedAt := at
	stats.LastSolved = &solvedAt

	metrics.RecordStreakUpdate()
	return tx.SaveStatistics(stats)
}

// syncProblem upserts a problem record from an offline batch, including its
// tags and metadata the live capture path never sees.
func (s *Service) syncProblem(ctx context.Context, owner string, p types.SyncProblem) error {
	if p.PlatformID == "" {
		return fmt.Errorf("%w: missing platformId", ErrValidation)
	}
	return s.applyWithRetry(ctx, owner, func(tx repository.Tx) error {
		problem, err := tx.ProblemByPlatformID(p.PlatformID)
		if errors.Is(err, repository.ErrNotFound) {
			problem, err = tx.CreateProblem(model.Problem{
				PlatformID: p.PlatformID,
				Title:      "Problem " + p.PlatformID,
				Difficulty: model.DifficultyMedium,
				Status:     model.StatusTodo,
			})
			if err == nil {
				metrics.RecordProblemCreated()
			}
		}
		if err != nil {
			return err
		}

		if p.Title != "" {
			problem.Title = p.Title
		}
		if p.URL != "" {
			problem.URL = p.URL
		}
		if d := model.Difficulty(p.Difficulty); d == model.DifficultyEasy ||
			d == model.DifficultyMedium || d == model.DifficultyHard {
			problem.Difficulty = d
		}
		if len(p.Tags) > 0 {
			tags, err := tx.EnsureTags(p.Tags)
			if err != nil {
				return err
			}
			problem.Tags = tags
		}
		return tx.SaveProblem(problem)
	})
}

// syncSubmission applies one offline submission. Records without a site
// issued id fall back to content matching for dedup.
func (s *Service) syncSubmission(ctx context.Context, owner string, sub types.SyncSubmission) error {
	ev := sub.CorrelationEvent
	if ev.ProblemID == "" {
		return fmt.Errorf("%w: missing problemId", ErrValidation)
	}
	if ev.Code == "" {
		return fmt.Errorf("%w: missing code", ErrValidation)
	}
	if ev.Language == "" {
		return fmt.Errorf("%w: missing language", ErrValidation)
	}
	status := sub.Status
	if status == "" {
		status = statusAccepted
	}

	var key string
	if ev.SubmissionID != "" {
		key = dedupe.Key(owner, ev.SubmissionID)
		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordEventDuplicate()
			return nil
		}
	}

	var duplicate bool
	err := s.applyWithRetry(ctx, owner, func(tx repository.Tx) error {
		var err error
		duplicate, err = s.applySubmission(tx, ev, status, ev.SubmissionID)
		return err
	})
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return err
	}
	if duplicate {
		metrics.RecordEventDuplicate()
	} else {
		metrics.RecordEventIngested()
	}
	return nil
}

// dayOf buckets a timestamp to the UTC midnight of its own calendar day.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
