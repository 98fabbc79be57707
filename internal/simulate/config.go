// Package simulate drives the whole capture pipeline against a running
// ingestion API: it starts a local fake judge site, pushes submissions
// through the intercepting client, and lets the forwarder deliver the
// resulting events. Useful for smoke-testing a deployment end to end.
package simulate

import "time"

// Config controls a simulation run.
type Config struct {
	// BaseURL is the ingestion API root, e.g. http://localhost:9080.
	BaseURL string

	// Token is the bearer credential sent with every delivery.
	Token string

	// Submissions is how many submissions to push through the pipeline.
	Submissions int

	// AcceptRate is the fraction of submissions the fake judge accepts.
	AcceptRate float64

	// Timeout bounds individual HTTP calls.
	Timeout time.Duration

	// Seed makes judge verdicts reproducible. Zero picks a random seed.
	Seed int64

	// PendingTTL bounds how long an unmatched submission stays pending.
	// Zero keeps the registry default.
	PendingTTL time.Duration

	// SweepInterval sets the registry sweep period. Zero keeps the default.
	SweepInterval time.Duration

	// BusCapacity bounds the event bus. Raised to fit the run when too small.
	BusCapacity int

	// ForwardBatchSize caps events per offline-sync batch. Zero keeps the
	// forwarder default.
	ForwardBatchSize int
}

// Stats captures the outcome of a run.
type Stats struct {
	Submitted   int
	Accepted    int
	Rejected    int
	Delivered   int
	Undelivered int
	StartTime   time.Time
	Duration    time.Duration
}
