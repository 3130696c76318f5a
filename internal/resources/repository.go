package resources

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

var (
	// ErrResourceNotFound is returned when a resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceInUse is returned when deleting a resource that sessions
	// still hold allocations against.
	ErrResourceInUse = errors.New("resource is allocated by sessions")

	// ErrBelowUsage is returned when shrinking a pool under its current usage.
	ErrBelowUsage = errors.New("total quantity cannot drop below used quantity")
)

// Repository is the PostgreSQL-backed resource store. UsedQuantity is owned
// by the session engine; this repository never writes it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a resource repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resourceColumns = `id, organization_id, name, type, total_quantity, used_quantity, COALESCE(note, ''), created_at, updated_at`

// Create inserts a resource with zero usage.
func (r *Repository) Create(ctx context.Context, res *models.Resource) error {
	const q = `INSERT INTO resources (organization_id, name, type, total_quantity, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, used_quantity, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, res.OrganizationID, res.Name, res.Type, res.TotalQuantity, res.Note).
		Scan(&res.ID, &res.UsedQuantity, &res.CreatedAt, &res.UpdatedAt)
}

// GetByID returns a single resource.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	var res models.Resource
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&res.ID, &res.OrganizationID, &res.Name, &res.Type, &res.TotalQuantity, &res.UsedQuantity, &res.Note, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByOrganization returns an organization's resources, optionally filtered
// by type.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, resourceType string) ([]models.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE organization_id = $1`
	args := []any{orgID}
	if resourceType != "" {
		q += ` AND type = $2`
		args = append(args, resourceType)
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Resource{}
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.OrganizationID, &res.Name, &res.Type, &res.TotalQuantity, &res.UsedQuantity, &res.Note, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// UpdateInput holds the editable resource fields. Nil fields are unchanged.
type UpdateInput struct {
	Name          *string
	Type          *string
	TotalQuantity *int
	Note          *string
}

// Update edits a resource. Shrinking the pool below its current usage is
// rejected; the row is locked so the check cannot race with the session
// engine reserving capacity.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Resource, error) {
	var updated *models.Resource
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 FOR UPDATE`
		var res models.Resource
		err := tx.QueryRow(ctx, q, id).
			Scan(&res.ID, &res.OrganizationID, &res.Name, &res.Type, &res.TotalQuantity, &res.UsedQuantity, &res.Note, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrResourceNotFound
			}
			return err
		}

		if in.Name != nil {
			res.Name = *in.Name
		}
		if in.Type != nil {
			res.Type = *in.Type
		}
		if in.TotalQuantity != nil {
			if *in.TotalQuantity < res.UsedQuantity {
				return ErrBelowUsage
			}
			res.TotalQuantity = *in.TotalQuantity
		}
		if in.Note != nil {
			res.Note = *in.Note
		}

		const upd = `UPDATE resources SET name = $2, type = $3, total_quantity = $4, note = NULLIF($5, ''), updated_at = NOW()
			WHERE id = $1 RETURNING updated_at`
		if err := tx.QueryRow(ctx, upd, res.ID, res.Name, res.Type, res.TotalQuantity, res.Note).Scan(&res.UpdatedAt); err != nil {
			return err
		}
		updated = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a resource. Resources still allocated by sessions cannot be
// deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign key violation from session_resources.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrResourceInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}
