// Package ingest contains the ingestion orchestrator and the per-job
// executor: batch submission, the job state machine, failure cleanup, and the
// re-analysis retry path.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahulnair23/mediavault/internal/blob"
	"github.com/rahulnair23/mediavault/internal/cache"
	"github.com/rahulnair23/mediavault/internal/store"
	"github.com/rahulnair23/mediavault/internal/transform"
	"github.com/rahulnair23/mediavault/pkg/models"
)

const statusCacheTTL = 30 * time.Minute

// IncomingFile is one file of a submission batch.
type IncomingFile struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// Rejection describes a file refused before a job row was created.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// BatchResult reports the outcome of a submission: created job ids plus
// per-file rejections. Partial success is the normal case.
type BatchResult struct {
	JobIDs     []uuid.UUID `json:"job_ids"`
	Rejections []Rejection `json:"rejections"`
}

// Options holds the pipeline policy applied by the service.
type Options struct {
	MaxFileBytes    int64
	ThumbnailWidth  int
	ThumbnailHeight int
	PresignTTL      time.Duration
	AnalysisTimeout time.Duration
}

// Service orchestrates ingestion jobs. Each accepted file becomes one ledger
// row driven by one background goroutine; executors share no state beyond the
// ledger row they own.
type Service struct {
	store  store.Store
	blobs  blob.Store
	cache  cache.Cache
	vision models.VisionProvider
	opts   Options
}

// NewService creates a new ingestion Service.
func NewService(st store.Store, blobs blob.Store, ca cache.Cache, vp models.VisionProvider, opts Options) *Service {
	return &Service{
		store:  st,
		blobs:  blobs,
		cache:  ca,
		vision: vp,
		opts:   opts,
	}
}

// Submit validates each file, creates one job row per accepted file, and
// dispatches one background executor per job. It returns as soon as all rows
// are created; it never waits for an executor to finish. Rejected files are
// reported per-file and do not affect their siblings.
func (s *Service) Submit(ctx context.Context, ownerID uuid.UUID, files []IncomingFile, caption string) (*BatchResult, error) {
	result := &BatchResult{}

	for _, f := range files {
		if reason, detail := s.validate(f); reason != "" {
			result.Rejections = append(result.Rejections, Rejection{
				Name:   f.Name,
				Reason: reason,
				Detail: detail,
			})
			continue
		}

		now := time.Now().UTC()
		job := &models.Job{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			OriginalName: f.Name,
			MimeType:     f.MimeType,
			ByteSize:     f.Size,
			Status:       models.JobStatusUploading,
			Progress:     0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if caption != "" {
			c := caption
			job.Caption = &c
		}

		if err := s.store.CreateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("creating job for %q: %w", f.Name, err)
		}

		_ = s.cache.SetJobStatus(ctx, job.ID, job.Status, statusCacheTTL)
		_ = s.cache.PublishJobChange(ctx, ownerID)

		go s.runJob(job, f.Data)

		result.JobIDs = append(result.JobIDs, job.ID)
	}

	return result, nil
}

func (s *Service) validate(f IncomingFile) (reason, detail string) {
	if !blob.SupportedImageMime(f.MimeType) {
		return ReasonValidation, fmt.Sprintf("unsupported mime type %q", f.MimeType)
	}
	if f.Size > s.opts.MaxFileBytes {
		return ReasonValidation, fmt.Sprintf("file size %d exceeds limit %d", f.Size, s.opts.MaxFileBytes)
	}
	if len(f.Data) == 0 {
		return ReasonValidation, "empty file"
	}
	return "", ""
}

// runJob drives a single job through the state machine in a background
// goroutine. It recovers from panics and always leaves the row terminal or
// reclaimable by the synchronizer's timeout backstop.
func (s *Service) runJob(job *models.Job, data []byte) {
	ctx := context.Background()
	log := slog.With("job_id", job.ID, "owner_id", job.OwnerID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in job executor", "error", r)
			s.failUpload(ctx, job, fmt.Sprintf("panic: %v", r))
		}
	}()

	// Transform phase. Nothing is stored yet, so failures need no cleanup.
	s.setState(ctx, job, models.JobStatusProcessing, store.WithProgress(30))

	thumb, err := transform.MakeThumbnail(data, s.opts.ThumbnailWidth, s.opts.ThumbnailHeight)
	if err != nil {
		log.Error("thumbnail transform failed", "error", err)
		s.failUpload(ctx, job, fmt.Sprintf("%s: %v", ReasonStorageWrite, err))
		return
	}
	s.setState(ctx, job, "", store.WithProgress(50))

	// Storage phase.
	originalKey := blob.OriginalKey(job.OwnerID, job.ID, job.MimeType)
	if err := s.blobs.Put(ctx, originalKey, data, job.MimeType); err != nil {
		log.Error("storing original failed", "error", err)
		s.failUpload(ctx, job, fmt.Sprintf("%s: %v", ReasonStorageWrite, err))
		return
	}
	s.setState(ctx, job, "", store.WithProgress(70), store.WithStoredPath(originalKey))

	thumbKey := blob.ThumbnailKey(job.OwnerID, job.ID)
	if err := s.blobs.Put(ctx, thumbKey, thumb.Bytes, thumb.ContentType); err != nil {
		log.Error("storing thumbnail failed", "error", err)
		if cleanupErr := s.blobs.Remove(ctx, []string{originalKey}); cleanupErr != nil {
			log.Error("artifact cleanup failed", "reason", ReasonStorageCleanup, "error", cleanupErr)
		}
		s.failUpload(ctx, job, fmt.Sprintf("%s: %v", ReasonStorageWrite, err))
		return
	}

	// Durable handoff point: both artifacts stored. Whatever happens next,
	// the upload itself has succeeded.
	s.setState(ctx, job, models.JobStatusPending,
		store.WithProgress(90),
		store.WithThumbnailPath(thumbKey))

	job.StoredPath = &originalKey
	s.analyze(ctx, job)
}

// analyze runs the enrichment phase: presign the stored original, invoke the
// vision provider, and record the terminal state. Shared by the initial run
// and the re-analysis retry path.
func (s *Service) analyze(ctx context.Context, job *models.Job) {
	log := slog.With("job_id", job.ID, "owner_id", job.OwnerID)

	s.setState(ctx, job, models.JobStatusAIProcessing, store.WithProgress(95))

	url, err := s.blobs.PresignGet(ctx, *job.StoredPath, s.opts.PresignTTL)
	if err != nil {
		log.Error("presign for analysis failed", "error", err)
		s.failAnalysis(ctx, job, fmt.Sprintf("%s: presign: %v", ReasonAnalysis, err))
		return
	}

	analysisCtx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	defer cancel()

	result, err := s.vision.Analyze(analysisCtx, url)
	if err != nil {
		log.Error("vision analysis failed", "provider", s.vision.Name(), "error", err)
		detail := err.Error()
		if !strings.Contains(detail, ReasonAnalysis) {
			detail = fmt.Sprintf("%s: %v", ReasonAnalysis, err)
		}
		s.failAnalysis(ctx, job, detail)
		return
	}

	s.setState(ctx, job, models.JobStatusCompleted,
		store.WithProgress(100),
		store.WithAnalysis(result.Tags, result.Description, result.DominantColors, time.Now().UTC()),
		store.ClearErrorDetail())
	log.Info("job completed", "tags", len(result.Tags))
}

// RetryAnalysis re-runs enrichment for a failed job whose upload succeeded.
// It verifies ownership, requires an analysis failure cause, and never
// touches stored artifacts.
func (s *Service) RetryAnalysis(ctx context.Context, ownerID, jobID uuid.UUID) error {
	job, err := s.store.GetJob(ctx, jobID, ownerID)
	if err != nil {
		return err
	}

	if job.Status != models.JobStatusFailed {
		return fmt.Errorf("%w: status is %s", ErrNotRetryable, job.Status)
	}
	if job.ErrorDetail == nil || !strings.HasPrefix(*job.ErrorDetail, ReasonAnalysis) {
		return fmt.Errorf("%w: failure cause is not %s", ErrNotRetryable, ReasonAnalysis)
	}
	if job.StoredPath == nil {
		return fmt.Errorf("%w: no stored artifact", ErrNotRetryable)
	}

	// Reflect activity immediately so observers see the job leave failed.
	s.setState(ctx, job, models.JobStatusProcessing, store.ClearErrorDetail())

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in retry executor", "error", r, "job_id", job.ID)
				s.failAnalysis(context.Background(), job, fmt.Sprintf("%s: panic: %v", ReasonAnalysis, r))
			}
		}()
		s.analyze(context.Background(), job)
	}()

	return nil
}

// failUpload records a storage-phase failure: progress reset to 0 signals
// that nothing of the upload survives.
func (s *Service) failUpload(ctx context.Context, job *models.Job, detail string) {
	s.setState(ctx, job, models.JobStatusFailed,
		store.WithProgress(0),
		store.WithErrorDetail(detail))
}

// failAnalysis records an enrichment failure: the stored artifacts survive,
// so progress stays at 100.
func (s *Service) failAnalysis(ctx context.Context, job *models.Job, detail string) {
	s.setState(ctx, job, models.JobStatusFailed,
		store.WithProgress(100),
		store.WithErrorDetail(detail))
}

// setState applies a ledger update, refreshes the status cache, and signals
// observers. A non-empty status is prepended as a transition; cache and
// notification writes are best-effort, the ledger row is the source of truth.
func (s *Service) setState(ctx context.Context, job *models.Job, status string, opts ...store.JobUpdateOption) {
	if status != "" {
		opts = append([]store.JobUpdateOption{store.WithStatus(status)}, opts...)
	}
	if err := s.store.UpdateJob(ctx, job.ID, opts...); err != nil {
		slog.Error("job update failed", "job_id", job.ID, "error", err)
		return
	}

	if status != "" {
		job.Status = status
		_ = s.cache.SetJobStatus(ctx, job.ID, status, statusCacheTTL)
	}
	_ = s.cache.PublishJobChange(ctx, job.OwnerID)
}
