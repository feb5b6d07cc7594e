package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/rahulnair23/mediavault/internal/api/middleware"
	"github.com/rahulnair23/mediavault/internal/api/response"
	"github.com/rahulnair23/mediavault/internal/ingest"
	"github.com/rahulnair23/mediavault/internal/store"
	"github.com/rahulnair23/mediavault/pkg/models"
)

// JobReader defines the ledger access the job handlers depend on.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.Job, error)
}

// Retrier defines the retry operation the retry handler depends on.
type Retrier interface {
	RetryAnalysis(ctx context.Context, ownerID, jobID uuid.UUID) error
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/media/{jobID}.
func NewGetJobHandler(jobs JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		job, err := jobs.GetJob(r.Context(), jobID, ownerID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load job", nil)
			return
		}

		response.JSON(w, job)
	}
}

// NewRetryHandler returns an http.HandlerFunc for
// POST /api/v1/media/{jobID}/retry: re-run analysis for a failed job whose
// upload succeeded.
func NewRetryHandler(svc Retrier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		err = svc.RetryAnalysis(r.Context(), ownerID, jobID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
		case errors.Is(err, ingest.ErrNotRetryable):
			response.Error(w, http.StatusConflict, "NOT_RETRYABLE", err.Error(), nil)
		case err != nil:
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to retry analysis", nil)
		default:
			response.Accepted(w, map[string]any{"job_id": jobID})
		}
	}
}
