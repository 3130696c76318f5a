package exports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

// ErrExportNotFound is returned when a report export does not exist.
var ErrExportNotFound = errors.New("export not found")

// Repository is the PostgreSQL-backed report export store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a report export repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const exportColumns = `id, organization_id, requested_by, event_id, start_date, end_date, status, COALESCE(s3_key, ''), COALESCE(size_bytes, 0), COALESCE(error, ''), created_at, updated_at`

// Create inserts a pending export row.
func (r *Repository) Create(ctx context.Context, e *models.ReportExport) error {
	const q = `INSERT INTO report_exports (organization_id, requested_by, event_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.OrganizationID, e.RequestedBy, e.EventID, e.StartDate, e.EndDate, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns a single export.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportExport, error) {
	q := `SELECT ` + exportColumns + ` FROM report_exports WHERE id = $1`
	e, err := scanExport(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExportNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByOrganization returns an organization's exports, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.ReportExport, error) {
	q := `SELECT ` + exportColumns + ` FROM report_exports WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ReportExport{}
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// MarkCompleted records the uploaded object key and size.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, sizeBytes int64) error {
	const q = `UPDATE report_exports SET status = $2, s3_key = $3, size_bytes = $4, error = NULL, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, models.ExportStatusCompleted, s3Key, sizeBytes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE report_exports SET status = $2, error = $3, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, models.ExportStatusFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

func scanExport(row pgx.Row) (*models.ReportExport, error) {
	var e models.ReportExport
	err := row.Scan(&e.ID, &e.OrganizationID, &e.RequestedBy, &e.EventID, &e.StartDate, &e.EndDate,
		&e.Status, &e.S3Key, &e.SizeBytes, &e.Error, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
