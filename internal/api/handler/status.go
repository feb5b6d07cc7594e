package handler

import (
	"net/http"

	"github.com/google/uuid"
	mw "github.com/rahulnair23/mediavault/internal/api/middleware"
	"github.com/rahulnair23/mediavault/internal/api/response"
	"github.com/rahulnair23/mediavault/internal/syncer"
)

// StatusSource provides per-owner synchronizer access.
type StatusSource interface {
	For(ownerID uuid.UUID) *syncer.Synchronizer
}

// NewStatusHandler returns an http.HandlerFunc for GET /api/v1/media/status:
// per-status counts of the owner's active jobs plus the visible set.
func NewStatusHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		s := src.For(ownerID)

		// Reconcile inline so a fresh session does not serve an empty view
		// until the first poll tick.
		if err := s.Reconcile(r.Context()); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to refresh job status", nil)
			return
		}

		response.JSON(w, s.Snapshot())
	}
}

// NewClearStuckHandler returns an http.HandlerFunc for
// POST /api/v1/media/clear-stuck: force every active job for the owner to
// failed, bypassing the stuck timeout.
func NewClearStuckHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		n, err := src.For(ownerID).ClearStuck(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to clear stuck jobs", nil)
			return
		}

		response.JSON(w, map[string]any{"cleared": n})
	}
}
