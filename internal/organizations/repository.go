package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

// ErrOrganizationNotFound is returned when an organization does not exist.
var ErrOrganizationNotFound = errors.New("organization not found")

// Repository is the PostgreSQL-backed organization store.
// CurrentBudgetCents is owned by the budget ledger and is read-only here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organization repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, COALESCE(email, ''), COALESCE(avatar_url, ''), current_budget_cents, created_at, updated_at`

// Create inserts an organization and enrolls the creator as an admin staff
// member, in one transaction.
func (r *Repository) Create(ctx context.Context, org *models.Organization, creatorID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO organizations (name, email, current_budget_cents)
			VALUES ($1, NULLIF($2, ''), $3)
			RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, q, org.Name, org.Email, org.CurrentBudgetCents).
			Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return err
		}
		const enroll = `INSERT INTO organization_staff (organization_id, user_id, role) VALUES ($1, $2, $3)`
		_, err := tx.Exec(ctx, enroll, org.ID, creatorID, models.StaffRoleAdmin)
		return err
	})
}

// GetByID returns a single organization.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	q := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&org.ID, &org.Name, &org.Email, &org.AvatarURL, &org.CurrentBudgetCents, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

// ListByUser returns the organizations where the user is active staff.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	const q = `SELECT o.id, o.name, COALESCE(o.email, ''), COALESCE(o.avatar_url, ''), o.current_budget_cents, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN organization_staff os ON os.organization_id = o.id
		WHERE os.user_id = $1 AND os.status = 'active'
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Organization{}
	for rows.Next() {
		var org models.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Email, &org.AvatarURL, &org.CurrentBudgetCents, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, org)
	}
	return list, rows.Err()
}

// UpdateInput holds the editable organization fields. Nil fields are unchanged.
// The running budget is not editable; only the ledger moves it.
type UpdateInput struct {
	Name  *string
	Email *string
}

// Update edits an organization's profile fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Organization, error) {
	const q = `UPDATE organizations SET
			name = COALESCE($2, name),
			email = COALESCE(NULLIF($3, ''), email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orgColumns
	var email string
	if in.Email != nil {
		email = *in.Email
	}
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id, in.Name, email).
		Scan(&org.ID, &org.Name, &org.Email, &org.AvatarURL, &org.CurrentBudgetCents, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

// SetAvatarURL stores the public URL of an uploaded avatar.
func (r *Repository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE organizations SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

// Delete removes an organization and, via cascades, its events, sessions,
// staff, resources and transactions.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}
