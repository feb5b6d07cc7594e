package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusUploading    = "uploading"
	JobStatusProcessing   = "processing"
	JobStatusPending      = "pending"
	JobStatusAIProcessing = "ai_processing"
	JobStatusCompleted    = "completed"
	JobStatusFailed       = "failed"
)

// Job tracks one submitted file through the ingestion pipeline. The API returns
// the job id on POST /api/v1/media; the client observes progress through the
// status endpoint until the job reaches a terminal state.
type Job struct {
	ID             uuid.UUID  `db:"id"              json:"id"`
	OwnerID        uuid.UUID  `db:"owner_id"        json:"owner_id"`
	OriginalName   string     `db:"original_name"   json:"original_name"`
	MimeType       string     `db:"mime_type"       json:"mime_type"`
	ByteSize       int64      `db:"byte_size"       json:"byte_size"`
	StoredPath     *string    `db:"stored_path"     json:"stored_path,omitempty"`
	ThumbnailPath  *string    `db:"thumbnail_path"  json:"thumbnail_path,omitempty"`
	Caption        *string    `db:"caption"         json:"caption,omitempty"`
	Status         string     `db:"status"          json:"status"`
	Progress       int        `db:"progress"        json:"progress"`
	Tags           []string   `db:"tags"            json:"tags,omitempty"`
	Description    *string    `db:"description"     json:"description,omitempty"`
	DominantColors []string   `db:"dominant_colors" json:"dominant_colors,omitempty"`
	ErrorDetail    *string    `db:"error_detail"    json:"error_detail,omitempty"`
	AnalyzedAt     *time.Time `db:"analyzed_at"     json:"analyzed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      json:"updated_at"`
}

// IsTerminal reports whether no further automatic transition will occur.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// ActiveStatuses lists every non-terminal status, in pipeline order.
var ActiveStatuses = []string{
	JobStatusUploading,
	JobStatusProcessing,
	JobStatusPending,
	JobStatusAIProcessing,
}
