package staff

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
	// ErrStaffNotFound is returned when a staff membership does not exist.
	ErrStaffNotFound = errors.New("staff member not found")

	// ErrAlreadyMember is returned when the user is already staff in the
	// organization.
	ErrAlreadyMember = errors.New("user is already a staff member")
)

// Repository is the PostgreSQL-backed staff membership store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a staff repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Add enrolls a user into an organization.
func (r *Repository) Add(ctx context.Context, s *models.Staff) error {
	const q = `INSERT INTO organization_staff (organization_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.OrganizationID, s.UserID, s.Role, s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique violation on (organization_id, user_id).
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

const memberColumns = `os.id, os.organization_id, os.user_id, os.role, os.status, os.created_at, os.updated_at, u.full_name, u.email`

// GetByID returns a staff membership joined with its user account.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	q := `SELECT ` + memberColumns + ` FROM organization_staff os
		INNER JOIN users u ON u.id = os.user_id
		WHERE os.id = $1`
	m, err := scanMember(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListByOrganization returns an organization's staff joined with user
// accounts, active members first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.StaffMember, error) {
	q := `SELECT ` + memberColumns + ` FROM organization_staff os
		INNER JOIN users u ON u.id = os.user_id
		WHERE os.organization_id = $1
		ORDER BY os.status, u.full_name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.StaffMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// NamesByIDs returns a staff-id to full-name lookup for the given memberships.
func (r *Repository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	const q = `SELECT os.id, u.full_name FROM organization_staff os
		INNER JOIN users u ON u.id = os.user_id
		WHERE os.id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// SetRole changes a member's org-level role.
func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.setField(ctx, id, `role`, role)
}

// SetStatus activates or removes a member without losing the membership row,
// so session history keeps resolving their name.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.setField(ctx, id, `status`, status)
}

func (r *Repository) setField(ctx context.Context, id uuid.UUID, column, value string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE organization_staff SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (*models.StaffMember, error) {
	var m models.StaffMember
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt, &m.FullName, &m.Email)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
