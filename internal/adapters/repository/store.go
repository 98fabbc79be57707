// Package repository defines the tracker's persistence interface and errors.
//
// All mutation happens inside InTx: the service hands the store a function
// and the store runs it in a transaction scoped to a single owner. A commit
// that loses a write race fails with ErrConflict so the caller can retry.
package repository

import (
	"context"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
)

// Store provides transactional access to a user's tracking state.
type Store interface {
	// InTx runs fn inside a transaction scoped to owner. When fn returns an
	// error the transaction rolls back and the error is returned unchanged.
	// A commit-time write conflict fails with ErrConflict.
	InTx(ctx context.Context, owner string, fn func(tx Tx) error) error

	// Close releases the underlying connection, if any.
	Close() error
}

// Tx is the set of operations available inside a transaction. All reads and
// writes are implicitly scoped to the owner the transaction was opened for.
type Tx interface {
	// ProblemByPlatformID looks a problem up by its judge-side identifier.
	// Returns ErrNotFound if the owner has no such problem.
	ProblemByPlatformID(platformID string) (model.Problem, error)

	// CreateProblem inserts a new problem and returns it with its ID set.
	CreateProblem(p model.Problem) (model.Problem, error)

	// SaveProblem updates an existing problem.
	SaveProblem(p model.Problem) error

	// DeleteProblem removes a problem and its submissions by platform ID.
	// Returns ErrNotFound if the owner has no such problem.
	DeleteProblem(platformID string) error

	// SubmissionByExternalID looks a submission up by its judge-side
	// identifier within a problem. Returns ErrNotFound when absent.
	SubmissionByExternalID(problemID uint, externalID string) (model.Submission, error)

	// FindSubmissionLoose matches a submission without an external ID by its
	// content. Returns ErrNotFound when nothing matches.
	FindSubmissionLoose(problemID uint, code, status, language string) (model.Submission, error)

	// CreateSubmission inserts a new submission and returns it with its ID set.
	CreateSubmission(s model.Submission) (model.Submission, error)

	// Statistics returns the owner's statistics row, creating a zeroed one on
	// first access.
	Statistics() (model.Statistics, error)

	// SaveStatistics updates the owner's statistics row.
	SaveStatistics(s model.Statistics) error

	// ActivityOn returns the owner's activity row for the given calendar day,
	// creating a zeroed one on first access.
	ActivityOn(date time.Time) (model.Activity, error)

	// SaveActivity updates an activity row.
	SaveActivity(a model.Activity) error

	// EnsureTags resolves tag names to records, creating missing ones.
	EnsureTags(names []string) ([]model.Tag, error)
}
