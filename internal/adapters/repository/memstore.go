package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
)

// MemStore is an in-memory Store used for tests and single-node deployments
// without a database. Transactions are optimistic: each one works on a deep
// copy of the owner's state and commits only if no other transaction for the
// same owner committed in between, failing with ErrConflict otherwise.
type MemStore struct {
	mu     sync.Mutex
	owners map[string]*ownerState
}

// ownerState is everything the store holds for a single owner.
type ownerState struct {
	version     uint64
	nextID      uint
	problems    []model.Problem
	submissions []model.Submission
	stats       *model.Statistics
	activities  []model.Activity
	tags        []model.Tag
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{owners: make(map[string]*ownerState)}
}

// InTx runs fn against a snapshot of the owner's state and commits it with a
// version check.
func (m *MemStore) InTx(ctx context.Context, owner string, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	st, ok := m.owners[owner]
	if !ok {
		st = &ownerState{nextID: 1}
		m.owners[owner] = st
	}
	version := st.version
	work := st.clone()
	m.mu.Unlock()

	tx := &memTx{owner: owner, state: work}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.owners[owner]
	if current.version != version {
		return ErrConflict
	}
	work.version = version + 1
	m.owners[owner] = work
	return nil
}

// Close implements Store. The in-memory store holds no external resources.
func (m *MemStore) Close() error { return nil }

func (s *ownerState) clone() *ownerState {
	c := &ownerState{
		version: s.version,
		nextID:  s.nextID,
	}
	c.problems = make([]model.Problem, len(s.problems))
	copy(c.problems, s.problems)
	for i := range c.problems {
		tags := make([]model.Tag, len(c.problems[i].Tags))
		copy(tags, c.problems[i].Tags)
		c.problems[i].Tags = tags
	}
	c.submissions = make([]model.Submission, len(s.submissions))
	copy(c.submissions, s.submissions)
	c.activities = make([]model.Activity, len(s.activities))
	copy(c.activities, s.activities)
	c.tags = make([]model.Tag, len(s.tags))
	copy(c.tags, s.tags)
	if s.stats != nil {
		stats := *s.stats
		if s.stats.LastSolved != nil {
			t := *s.stats.LastSolved
			stats.LastSolved = &t
		}
		c.stats = &stats
	}
	return c
}

// memTx implements Tx against an owner's working copy.
type memTx struct {
	owner string
	state *ownerState
}

func (t *memTx) nextID() uint {
	id := t.state.nextID
	t.state.nextID++
	return id
}

func (t *memTx) ProblemByPlatformID(platformID string) (model.Problem, error) {
	for _, p := range t.state.problems {
		if p.PlatformID == platformID {
			return p, nil
		}
	}
	return model.Problem{}, ErrNotFound
}

func (t *memTx) CreateProblem(p model.Problem) (model.Problem, error) {
	p.ID = t.nextID()
	p.Owner = t.owner
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	t.state.problems = append(t.state.problems, p)
	return p, nil
}

func (t *memTx) SaveProblem(p model.Problem) error {
	for i := range t.state.problems {
		if t.state.problems[i].ID == p.ID {
			p.UpdatedAt = time.Now()
			t.state.problems[i] = p
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) DeleteProblem(platformID string) error {
	for i, p := range t.state.problems {
		if p.PlatformID != platformID {
			continue
		}
		t.state.problems = append(t.state.problems[:i], t.state.problems[i+1:]...)
		kept := t.state.submissions[:0]
		for _, s := range t.state.submissions {
			if s.ProblemID != p.ID {
				kept = append(kept, s)
			}
		}
		t.state.submissions = kept
		return nil
	}
	return ErrNotFound
}

func (t *memTx) SubmissionByExternalID(problemID uint, externalID string) (model.Submission, error) {
	for _, s := range t.state.submissions {
		if s.ProblemID == problemID && s.ExternalID == externalID {
			return s, nil
		}
	}
	return model.Submission{}, ErrNotFound
}

func (t *memTx) FindSubmissionLoose(problemID uint, code, status, language string) (model.Submission, error) {
	for _, s := range t.state.submissions {
		if s.ProblemID == problemID && s.Code == code && s.Status == status && s.Language == language {
			return s, nil
		}
	}
	return model.Submission{}, ErrNotFound
}

func (t *memTx) CreateSubmission(s model.Submission) (model.Submission, error) {
	s.ID = t.nextID()
	s.Owner = t.owner
	t.state.submissions = append(t.state.submissions, s)
	return s, nil
}

func (t *memTx) Statistics() (model.Statistics, error) {
	if t.state.stats == nil {
		t.state.stats = &model.Statistics{ID: t.nextID(), Owner: t.owner}
	}
	return *t.state.stats, nil
}

func (t *memTx) SaveStatistics(s model.Statistics) error {
	s.Owner = t.owner
	t.state.stats = &s
	return nil
}

func (t *memTx) ActivityOn(date time.Time) (model.Activity, error) {
	day := date.Truncate(24 * time.Hour)
	for _, a := range t.state.activities {
		if a.Date.Equal(day) {
			return a, nil
		}
	}
	a := model.Activity{ID: t.nextID(), Owner: t.owner, Date: day}
	t.state.activities = append(t.state.activities, a)
	return a, nil
}

func (t *memTx) SaveActivity(a model.Activity) error {
	for i := range t.state.activities {
		if t.state.activities[i].ID == a.ID {
			t.state.activities[i] = a
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) EnsureTags(names []string) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(names))
	for _, name := range names {
		found := false
		for _, tag := range t.state.tags {
			if tag.Name == name {
				out = append(out, tag)
				found = true
				break
			}
		}
		if !found {
			tag := model.Tag{ID: t.nextID(), Owner: t.owner, Name: name}
			t.state.tags = append(t.state.tags, tag)
			out = append(out, tag)
		}
	}
	return out, nil
}
