package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// Store provides session persistence. Mutations run inside WithinTx so that a
// session update, its resource usage changes and its history record commit or
// roll back as one unit.
type Store interface {
	// WithinTx runs fn in a storage transaction; any error rolls back every
	// write made through the TxStore.
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error

	// GetSession returns the full session aggregate including history.
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// ListByEvent returns an event's sessions (without history).
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error)
}

// TxStore is the transaction-scoped store handed to WithinTx callbacks.
// GetSessionForUpdate and GetResourcesForUpdate take exclusive row locks so
// concurrent updates touching the same rows are linearized.
type TxStore interface {
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// ListByEventForUpdate locks and returns an event's sessions with their
	// resource allocations, in id order.
	ListByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]models.Session, error)

	// GetResourcesForUpdate locks and returns the referenced resources, keyed
	// by ID. Missing IDs are simply absent from the map.
	GetResourcesForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Resource, error)

	// SetResourceUsage persists a resource's new used quantity.
	SetResourceUsage(ctx context.Context, id uuid.UUID, used int) error

	InsertSession(ctx context.Context, s *models.Session) error
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// AppendHistory appends one history record to a session.
	AppendHistory(ctx context.Context, sessionID uuid.UUID, rec models.HistoryRecord) error

	// StaffNames resolves staff IDs to display names. Unresolvable IDs are
	// absent from the map.
	StaffNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
