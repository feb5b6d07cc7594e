package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahulnair23/mediavault/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Owners ---

func (s *PostgresStore) GetDefaultOwner(ctx context.Context) (*models.Owner, error) {
	var o models.Owner
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM owners WHERE name = 'default' LIMIT 1`,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default owner: %w", err)
	}
	return &o, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, owner_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.OwnerID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, ownerID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`, id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Jobs ---

const jobColumns = `id, owner_id, original_name, mime_type, byte_size, stored_path, thumbnail_path,
	 caption, status, progress, tags, description, dominant_colors, error_detail, analyzed_at, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.OwnerID, &j.OriginalName, &j.MimeType, &j.ByteSize,
		&j.StoredPath, &j.ThumbnailPath, &j.Caption, &j.Status, &j.Progress,
		&j.Tags, &j.Description, &j.DominantColors, &j.ErrorDetail,
		&j.AnalyzedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO media_jobs (id, owner_id, original_name, mime_type, byte_size, caption, status, progress, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.OwnerID, job.OriginalName, job.MimeType, job.ByteSize,
		job.Caption, job.Status, job.Progress, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM media_jobs WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) GetJobs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*models.Job, error) {
	if len(ids) == 0 {
		return []*models.Job{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM media_jobs WHERE owner_id = $1 AND id = ANY($2)`, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) ListActiveJobs(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM media_jobs
		 WHERE owner_id = $1 AND status = ANY($2) ORDER BY created_at ASC`,
		ownerID, models.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// validTransitions encodes the job state machine. The only backward edge is
// failed -> processing, taken by the re-analysis retry path.
var validTransitions = map[string][]string{
	models.JobStatusUploading:    {models.JobStatusProcessing, models.JobStatusFailed},
	models.JobStatusProcessing:   {models.JobStatusPending, models.JobStatusAIProcessing, models.JobStatusFailed},
	models.JobStatusPending:      {models.JobStatusAIProcessing, models.JobStatusFailed},
	models.JobStatusAIProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
	models.JobStatusFailed:       {models.JobStatusProcessing},
}

func (s *PostgresStore) UpdateJob(ctx context.Context, id uuid.UUID, opts ...JobUpdateOption) error {
	params := &JobUpdate{}
	for _, opt := range opts {
		opt(params)
	}

	if params.Status != nil {
		var currentStatus string
		err := s.pool.QueryRow(ctx, `SELECT status FROM media_jobs WHERE id = $1`, id).Scan(&currentStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get job status: %w", err)
		}

		if currentStatus != *params.Status && !transitionAllowed(currentStatus, *params.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, *params.Status)
		}
	}

	now := time.Now().UTC()
	query := `UPDATE media_jobs SET updated_at = $2`
	args := []any{id, now}
	argIdx := 3

	appendSet := func(col string, val any) {
		query += fmt.Sprintf(", %s = $%d", col, argIdx)
		args = append(args, val)
		argIdx++
	}

	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.Progress != nil {
		appendSet("progress", *params.Progress)
	}
	if params.StoredPath != nil {
		appendSet("stored_path", *params.StoredPath)
	}
	if params.ThumbnailPath != nil {
		appendSet("thumbnail_path", *params.ThumbnailPath)
	}
	if params.ErrorDetail != nil {
		appendSet("error_detail", *params.ErrorDetail)
	} else if params.ClearError {
		query += ", error_detail = NULL"
	}
	if params.Tags != nil {
		appendSet("tags", params.Tags)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.DominantColors != nil {
		appendSet("dominant_colors", params.DominantColors)
	}
	if params.AnalyzedAt != nil {
		appendSet("analyzed_at", *params.AnalyzedAt)
	}

	query += " WHERE id = $1"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

func (s *PostgresStore) ForceFailJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, reason string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE media_jobs SET status = $3, error_detail = $4, updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND status <> $5 AND status <> $3`,
		id, ownerID, models.JobStatusFailed, reason, models.JobStatusCompleted)
	if err != nil {
		return false, fmt.Errorf("force fail job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ForceFailActive(ctx context.Context, ownerID uuid.UUID, reason string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE media_jobs SET status = $2, error_detail = $3, updated_at = NOW()
		 WHERE owner_id = $1 AND status = ANY($4)`,
		ownerID, models.JobStatusFailed, reason, models.ActiveStatuses)
	if err != nil {
		return 0, fmt.Errorf("force fail active jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
