package ingest

import "errors"

// Failure reasons recorded in a job's error_detail, or returned synchronously
// for files rejected before a row is created.
const (
	ReasonValidation     = "validation_error"
	ReasonStorageWrite   = "storage_write_error"
	ReasonStorageCleanup = "storage_cleanup_error"
	ReasonAnalysis       = "analysis_error"
	ReasonTimeout        = "timeout_error"
)

// ErrNotRetryable is returned when re-analysis is requested for a job whose
// failure was not an analysis failure, or which never finished storage.
var ErrNotRetryable = errors.New("job is not retryable")
