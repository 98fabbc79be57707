// Package model contains domain models passed between layers.
package model

import "time"

// PendingStatus tracks the lifecycle of a captured submission.
type PendingStatus string

// Pending lifecycle states. Accepted is terminal; the registry entry is
// deleted the moment it is reached.
const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusAccepted PendingStatus = "accepted"
)

// PendingSubmission is a captured submission awaiting a verdict. Owned
// exclusively by the pending submission registry.
type PendingSubmission struct {
	SubmissionID  string // site-issued identifier, registry key
	CorrelationID string // locally generated, collision-resistant
	Code          string
	Language      string
	ProblemID     string
	CreatedAt     time.Time
	Status        PendingStatus
}

// CorrelationEvent ties a captured submission to its accepted verdict.
// Produced once per accepted submission, consumed once by ingestion.
type CorrelationEvent struct {
	SubmissionID  string    `json:"submissionId"`
	CorrelationID string    `json:"correlationId"`
	Code          string    `json:"code"`
	Language      string    `json:"language"`
	ProblemID     string    `json:"problemId"`
	Runtime       string    `json:"runtime,omitempty"`
	Memory        string    `json:"memory,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProblemStatus advances monotonically: Todo -> Attempted -> Solved.
type ProblemStatus string

// Problem lifecycle states.
const (
	StatusTodo      ProblemStatus = "Todo"
	StatusAttempted ProblemStatus = "Attempted"
	StatusSolved    ProblemStatus = "Solved"
)

// rank orders statuses for monotonic advancement.
func (s ProblemStatus) rank() int {
	switch s {
	case StatusAttempted:
		return 1
	case StatusSolved:
		return 2
	default:
		return 0
	}
}

// Advance returns the later of the two statuses; a status never regresses.
func (s ProblemStatus) Advance(to ProblemStatus) ProblemStatus {
	if to.rank() > s.rank() {
		return to
	}
	return s
}

// Difficulty buckets mirror the judge site's taxonomy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Problem is a persisted problem record, unique per (platform id, owner).
type Problem struct {
	ID         uint   `gorm:"primary_key"`
	Owner      string `gorm:"not null;unique_index:idx_problem_owner_platform"`
	PlatformID string `gorm:"not null;unique_index:idx_problem_owner_platform"`
	Title      string `gorm:"not null"`
	URL        string
	Difficulty Difficulty    `gorm:"not null;default:'Medium'"`
	Status     ProblemStatus `gorm:"not null;default:'Todo'"`
	Tags       []Tag         `gorm:"many2many:problem_tags"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Submission is a persisted judged submission. The dedup identity is
// (owner, problem id, external id); ExternalID is the site-issued id carried
// through the correlation event, stored verbatim.
type Submission struct {
	ID          uint   `gorm:"primary_key"`
	Owner       string `gorm:"not null;unique_index:idx_submission_dedup"`
	ProblemID   uint   `gorm:"not null;unique_index:idx_submission_dedup"`
	ExternalID  string `gorm:"not null;unique_index:idx_submission_dedup"`
	Code        string `gorm:"type:text"`
	Language    string
	Status      string
	Runtime     string
	Memory      string
	SubmittedAt time.Time
}

// Statistics aggregates per-owner solve counters. Invariant:
// LongestStreak >= Streak at all times.
type Statistics struct {
	ID            uint   `gorm:"primary_key"`
	Owner         string `gorm:"not null;unique_index"`
	TotalSolved   int
	EasySolved    int
	MediumSolved  int
	HardSolved    int
	Streak        int
	LongestStreak int
	LastSolved    *time.Time
}

// Activity holds daily counters per (owner, date) for heatmaps. Counters are
// created lazily and only ever increment within a day.
type Activity struct {
	ID                uint      `gorm:"primary_key"`
	Owner             string    `gorm:"not null;unique_index:idx_activity_owner_date"`
	Date              time.Time `gorm:"not null;unique_index:idx_activity_owner_date"`
	ProblemsAttempted int
	ProblemsSolved    int
}

// Tag labels problems, scoped to an owner.
type Tag struct {
	ID    uint   `gorm:"primary_key"`
	Owner string `gorm:"not null;unique_index:idx_tag_owner_name"`
	Name  string `gorm:"not null;unique_index:idx_tag_owner_name"`
}
