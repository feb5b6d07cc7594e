// Package handler contains the HTTP handlers for the mediavault API.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/rahulnair23/mediavault/internal/api/middleware"
	"github.com/rahulnair23/mediavault/internal/api/response"
	"github.com/rahulnair23/mediavault/internal/ingest"
)

// Submitter defines the interface the upload handler depends on.
type Submitter interface {
	Submit(ctx context.Context, ownerID uuid.UUID, files []ingest.IncomingFile, caption string) (*ingest.BatchResult, error)
}

// Waker wakes the owner's synchronizer after a local change.
type Waker interface {
	Wake(ownerID uuid.UUID)
}

// NewUploadHandler returns an http.HandlerFunc for POST /api/v1/media.
// It accepts a multipart form with one or more "files" parts and an optional
// "caption" field, and responds 202 with created job ids and per-file
// rejections.
func NewUploadHandler(svc Submitter, waker Waker, maxFileBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		// Bound the whole request body; individual files are validated
		// against the per-file ceiling by the orchestrator.
		const maxFilesPerBatch = 20
		r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes*maxFilesPerBatch)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart form", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		fileHeaders := r.MultipartForm.File["files"]
		if len(fileHeaders) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "At least one file is required", nil)
			return
		}
		if len(fileHeaders) > maxFilesPerBatch {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Too many files in one batch", nil)
			return
		}

		caption := r.FormValue("caption")

		var files []ingest.IncomingFile
		for _, fh := range fileHeaders {
			f, err := fh.Open()
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Unreadable file part", nil)
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
			f.Close()
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Unreadable file part", nil)
				return
			}

			mimeType := fh.Header.Get("Content-Type")
			if mimeType == "" {
				mimeType = http.DetectContentType(data)
			}

			files = append(files, ingest.IncomingFile{
				Name:     fh.Filename,
				MimeType: mimeType,
				Size:     int64(len(data)),
				Data:     data,
			})
		}

		result, err := svc.Submit(r.Context(), ownerID, files, caption)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create ingestion jobs", nil)
			return
		}

		if waker != nil {
			waker.Wake(ownerID)
		}

		response.Accepted(w, result)
	}
}
