// Package syncer keeps an observing client's view of its active ingestion
// jobs reconciled against the job ledger, detects stuck jobs, and reclaims
// them. One Synchronizer is owned per session; there is no process-wide
// state.
package syncer

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rahulnair23/mediavault/internal/ingest"
	"github.com/rahulnair23/mediavault/pkg/models"
)

// Ledger is the slice of the job store the synchronizer depends on.
type Ledger interface {
	ListActiveJobs(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error)
	GetJobs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*models.Job, error)
	ForceFailJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, reason string) (bool, error)
	ForceFailActive(ctx context.Context, ownerID uuid.UUID, reason string) (int64, error)
}

// Notifier delivers change signals for an owner's jobs.
type Notifier interface {
	SubscribeJobChanges(ctx context.Context, ownerID uuid.UUID) (<-chan struct{}, func() error)
}

// JobView is the client-facing projection of one job.
type JobView struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	ErrorDetail  *string   `json:"error_detail,omitempty"`
}

// Snapshot is the client-facing summary: per-status counts of non-terminal
// jobs plus the full visible set, including terminal jobs still inside the
// eviction grace window.
type Snapshot struct {
	Counts map[string]int `json:"counts"`
	Jobs   []JobView      `json:"jobs"`
}

// Options holds the synchronizer timing policy.
type Options struct {
	PollInterval time.Duration
	StuckTimeout time.Duration
	EvictGrace   time.Duration
}

// Synchronizer reconciles one owner's active set against the ledger.
type Synchronizer struct {
	ledger   Ledger
	notifier Notifier
	ownerID  uuid.UUID
	opts     Options
	clock    func() time.Time

	mu      sync.Mutex
	visible map[uuid.UUID]*models.Job
	evictAt map[uuid.UUID]time.Time

	wake chan struct{}
}

// New creates a Synchronizer for one owner. Call Run to start reconciling.
func New(ledger Ledger, notifier Notifier, ownerID uuid.UUID, opts Options) *Synchronizer {
	return &Synchronizer{
		ledger:   ledger,
		notifier: notifier,
		ownerID:  ownerID,
		opts:     opts,
		clock:    func() time.Time { return time.Now().UTC() },
		visible:  make(map[uuid.UUID]*models.Job),
		evictAt:  make(map[uuid.UUID]time.Time),
		wake:     make(chan struct{}, 1),
	}
}

// Run reconciles until ctx is cancelled. While the visible set is empty it
// suspends polling entirely and waits for a change signal or a local Notify.
// No error inside the loop is fatal; failed passes are retried on the next
// trigger.
func (s *Synchronizer) Run(ctx context.Context) {
	changes, closeSub := s.notifier.SubscribeJobChanges(ctx, s.ownerID)
	defer func() {
		if err := closeSub(); err != nil {
			slog.Error("closing change subscription", "owner_id", s.ownerID, "error", err)
		}
	}()

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		if err := s.Reconcile(ctx); err != nil {
			slog.Error("reconcile pass failed", "owner_id", s.ownerID, "error", err)
		}

		if s.idle() {
			select {
			case <-ctx.Done():
				return
			case <-changes:
			case <-s.wake:
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.opts.PollInterval)

		select {
		case <-ctx.Done():
			return
		case <-changes:
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// Notify hints that the owner's jobs changed locally (e.g. a batch was just
// submitted), waking the loop without waiting for the ledger notification.
func (s *Synchronizer) Notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Reconcile performs one pass: refresh the active set, force-fail stuck jobs,
// move newly terminal jobs into the grace window, and evict expired ones.
func (s *Synchronizer) Reconcile(ctx context.Context) error {
	active, err := s.ledger.ListActiveJobs(ctx, s.ownerID)
	if err != nil {
		return err
	}
	now := s.clock()

	activeByID := make(map[uuid.UUID]*models.Job, len(active))
	for _, job := range active {
		if now.Sub(job.CreatedAt) > s.opts.StuckTimeout {
			applied, err := s.ledger.ForceFailJob(ctx, job.ID, s.ownerID, ingest.ReasonTimeout)
			if err != nil {
				slog.Error("force-fail stuck job failed", "job_id", job.ID, "error", err)
			} else if applied {
				slog.Warn("stuck job reclaimed", "job_id", job.ID, "age", now.Sub(job.CreatedAt))
				reason := ingest.ReasonTimeout
				job.Status = models.JobStatusFailed
				job.ErrorDetail = &reason
			}
		}
		activeByID[job.ID] = job
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Jobs we were showing that left the active set have gone terminal;
	// fetch their final state once and keep them through the grace window.
	var departed []uuid.UUID
	for id, job := range s.visible {
		if _, stillActive := activeByID[id]; !stillActive && !job.IsTerminal() {
			departed = append(departed, id)
		}
	}
	if len(departed) > 0 {
		final, err := s.ledger.GetJobs(ctx, s.ownerID, departed)
		if err != nil {
			return err
		}
		for _, job := range final {
			s.visible[job.ID] = job
			if job.IsTerminal() {
				s.evictAt[job.ID] = now.Add(s.opts.EvictGrace)
			}
		}
	}

	for id, job := range activeByID {
		s.visible[id] = job
		if job.IsTerminal() {
			// Force-failed this pass: start its grace window immediately.
			if _, ok := s.evictAt[id]; !ok {
				s.evictAt[id] = now.Add(s.opts.EvictGrace)
			}
		}
	}

	for id, deadline := range s.evictAt {
		if now.After(deadline) {
			delete(s.visible, id)
			delete(s.evictAt, id)
		}
	}

	return nil
}

// ClearStuck forces every active job for the owner to failed immediately,
// bypassing the timeout. Used when the client knows its view has diverged.
func (s *Synchronizer) ClearStuck(ctx context.Context) (int64, error) {
	n, err := s.ledger.ForceFailActive(ctx, s.ownerID, ingest.ReasonTimeout)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Warn("cleared stuck jobs", "owner_id", s.ownerID, "count", n)
	}
	s.Notify()
	return n, nil
}

// Snapshot returns the current client-facing view.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*models.Job, 0, len(s.visible))
	for _, job := range s.visible {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	snap := Snapshot{
		Counts: make(map[string]int),
		Jobs:   make([]JobView, 0, len(jobs)),
	}
	for _, job := range jobs {
		if !job.IsTerminal() {
			snap.Counts[job.Status]++
		}
		snap.Jobs = append(snap.Jobs, JobView{
			ID:           job.ID,
			OriginalName: job.OriginalName,
			Status:       job.Status,
			Progress:     job.Progress,
			ErrorDetail:  job.ErrorDetail,
		})
	}
	return snap
}

func (s *Synchronizer) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visible) == 0
}
