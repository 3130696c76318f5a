package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

// ErrEventNotFound is returned when an event does not exist.
var ErrEventNotFound = errors.New("event not found")

// Repository is the PostgreSQL-backed event store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, name, COALESCE(description, ''), starts_at, ends_at, organization_id, tags, status, COALESCE(partner_name, ''), COALESCE(partner_phone, ''), created_at, updated_at`

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	const q = `INSERT INTO events (name, description, starts_at, ends_at, organization_id, tags, status, partner_name, partner_phone)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Name, e.Description, e.StartsAt, e.EndsAt, e.OrganizationID, e.Tags, e.Status, e.PartnerName, e.PartnerPhone).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns a single event.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListFilter selects events for the list endpoint.
type ListFilter struct {
	OrganizationID uuid.UUID
	Status         models.EventStatus
	Tag            string
	From           *time.Time
	To             *time.Time
}

// List returns an organization's events, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE organization_id = $1`
	args := []any{f.OrganizationID}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND status = $2`
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		q += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(tags)`
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += ` AND starts_at >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += ` AND starts_at <= $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY starts_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateInput holds the editable event fields. Nil fields are unchanged;
// a non-nil empty Tags slice clears the tags.
type UpdateInput struct {
	Name         *string
	Description  *string
	StartsAt     *time.Time
	EndsAt       *time.Time
	Tags         []string
	Status       *models.EventStatus
	PartnerName  *string
	PartnerPhone *string
}

// Update edits an event.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Event, error) {
	var updated *models.Event
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
		e, err := scanEvent(tx.QueryRow(ctx, q, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}

		if in.Name != nil {
			e.Name = *in.Name
		}
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.StartsAt != nil {
			e.StartsAt = *in.StartsAt
		}
		if in.EndsAt != nil {
			e.EndsAt = *in.EndsAt
		}
		if in.Tags != nil {
			e.Tags = in.Tags
		}
		if in.Status != nil {
			e.Status = *in.Status
		}
		if in.PartnerName != nil {
			e.PartnerName = *in.PartnerName
		}
		if in.PartnerPhone != nil {
			e.PartnerPhone = *in.PartnerPhone
		}

		const upd = `UPDATE events SET name = $2, description = NULLIF($3, ''), starts_at = $4, ends_at = $5,
			tags = $6, status = $7, partner_name = NULLIF($8, ''), partner_phone = NULLIF($9, ''), updated_at = NOW()
			WHERE id = $1 RETURNING updated_at`
		if err := tx.QueryRow(ctx, upd, e.ID, e.Name, e.Description, e.StartsAt, e.EndsAt, e.Tags, e.Status, e.PartnerName, e.PartnerPhone).
			Scan(&e.UpdatedAt); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an event and, via cascades, its sessions and histories.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.OrganizationID,
		&e.Tags, &e.Status, &e.PartnerName, &e.PartnerPhone, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
