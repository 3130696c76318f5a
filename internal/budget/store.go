package budget

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// Filter selects transactions for the read path. OrganizationID is required;
// the date range is inclusive on both ends.
type Filter struct {
	OrganizationID uuid.UUID
	EventID        *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
}

// Store provides ledger persistence. Mutations run inside WithinTx so the
// transaction write and the organization balance update commit or roll back
// as one unit.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error)

	// ListTransactions returns the filtered set sorted by date descending,
	// each annotated with its event name when the event resolves.
	ListTransactions(ctx context.Context, f Filter) ([]models.TransactionWithEvent, error)

	// Summarize aggregates the filtered set by type.
	Summarize(ctx context.Context, f Filter) (models.BudgetSummary, error)
}

// TxStore is the transaction-scoped store handed to WithinTx callbacks.
// GetOrganizationForUpdate takes an exclusive row lock on the organization,
// linearizing concurrent ledger operations for the same organization.
type TxStore interface {
	GetOrganizationForUpdate(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	SetCurrentBudget(ctx context.Context, orgID uuid.UUID, cents int64) error

	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error)
	InsertTransaction(ctx context.Context, t *models.BudgetTransaction) error
	UpdateTransaction(ctx context.Context, t *models.BudgetTransaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}
