package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rahulnair23/mediavault/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultOwner(ctx context.Context) (*models.Owner, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, ownerID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.Job, error)
	GetJobs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*models.Job, error)
	UpdateJob(ctx context.Context, id uuid.UUID, opts ...JobUpdateOption) error
	ListActiveJobs(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error)

	// ForceFailJob marks a non-terminal job failed with the given reason,
	// leaving progress untouched. It reports whether the update applied;
	// re-applying to an already-terminal job is a no-op.
	ForceFailJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, reason string) (bool, error)

	// ForceFailActive fails every non-terminal job for the owner and returns
	// the number of rows updated.
	ForceFailActive(ctx context.Context, ownerID uuid.UUID, reason string) (int64, error)
}

// JobUpdate collects the fields a single UpdateJob call touches. Options
// populate it; only set fields reach the UPDATE statement.
type JobUpdate struct {
	Status         *string
	Progress       *int
	StoredPath     *string
	ThumbnailPath  *string
	ErrorDetail    *string
	ClearError     bool
	Tags           []string
	Description    *string
	DominantColors []string
	AnalyzedAt     *time.Time
}

type JobUpdateOption func(*JobUpdate)

func WithStatus(status string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Status = &status
	}
}

func WithProgress(progress int) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Progress = &progress
	}
}

func WithStoredPath(path string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.StoredPath = &path
	}
}

func WithThumbnailPath(path string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ThumbnailPath = &path
	}
}

func WithErrorDetail(detail string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ErrorDetail = &detail
	}
}

// ClearErrorDetail nulls out error_detail, used when a failed job is retried.
func ClearErrorDetail() JobUpdateOption {
	return func(p *JobUpdate) {
		p.ClearError = true
	}
}

func WithAnalysis(tags []string, description string, colors []string, analyzedAt time.Time) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Tags = tags
		p.Description = &description
		p.DominantColors = colors
		p.AnalyzedAt = &analyzedAt
	}
}
