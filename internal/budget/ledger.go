package budget

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// SummaryCache caches budget summaries. Implementations are best-effort:
// a miss or failure never blocks the ledger.
type SummaryCache interface {
	Get(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) (models.BudgetSummary, bool)
	Set(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID, s models.BudgetSummary)
	Invalidate(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID)
}

// Ledger applies budget transactions to an organization's running balance.
// Every mutation runs in one storage transaction with the organization row
// locked, so concurrent operations against the same organization serialize
// and the invariant holds at all times:
//
//	currentBudget == initial balance + sum of all transaction deltas
type Ledger struct {
	store Store
	cache SummaryCache
	now   func() time.Time
}

// NewLedger creates a budget ledger. cache may be nil.
func NewLedger(store Store, cache SummaryCache) *Ledger {
	return &Ledger{store: store, cache: cache, now: time.Now}
}

// CreateInput holds the fields for a new transaction.
type CreateInput struct {
	Type           models.TransactionType
	AmountCents    int64
	Description    string
	Date           time.Time // zero value defaults to now
	OrganizationID uuid.UUID
	EventID        *uuid.UUID
}

// UpdateInput holds the changed fields of a transaction. Nil fields are unchanged.
type UpdateInput struct {
	Type        *models.TransactionType
	AmountCents *int64
	Description *string
	Date        *time.Time
}

// ListResult pairs the filtered transactions with their aggregate summary.
type ListResult struct {
	Transactions []models.TransactionWithEvent `json:"transactions"`
	Summary      models.BudgetSummary          `json:"summary"`
}

// Create records a transaction and adjusts the organization balance. An
// expense larger than the current balance is rejected before anything is
// written.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (*models.BudgetTransaction, error) {
	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	date := in.Date
	if date.IsZero() {
		date = l.now()
	}
	t := &models.BudgetTransaction{
		Type:           in.Type,
		AmountCents:    in.AmountCents,
		Description:    in.Description,
		Date:           date,
		OrganizationID: in.OrganizationID,
		EventID:        in.EventID,
	}

	err := l.store.WithinTx(ctx, func(tx TxStore) error {
		org, err := tx.GetOrganizationForUpdate(ctx, in.OrganizationID)
		if err != nil {
			return err
		}
		newBudget := org.CurrentBudgetCents + t.Delta()
		if newBudget < 0 {
			return ErrInsufficientFunds
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return tx.SetCurrentBudget(ctx, org.ID, newBudget)
	})
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, t.OrganizationID, t.EventID)
	return t, nil
}

// Update edits a transaction and reconciles the organization balance against
// the difference between the new and original deltas. The edit is rejected if
// the reconciled balance would go negative.
func (l *Ledger) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.BudgetTransaction, error) {
	if in.AmountCents != nil && *in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var updated *models.BudgetTransaction
	err := l.store.WithinTx(ctx, func(tx TxStore) error {
		t, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		org, err := tx.GetOrganizationForUpdate(ctx, t.OrganizationID)
		if err != nil {
			return err
		}

		originalDelta := t.Delta()
		if in.Type != nil {
			t.Type = *in.Type
		}
		if in.AmountCents != nil {
			t.AmountCents = *in.AmountCents
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Date != nil {
			t.Date = *in.Date
		}

		newBudget := org.CurrentBudgetCents + t.Delta() - originalDelta
		if newBudget < 0 {
			return ErrInsufficientFunds
		}
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		if err := tx.SetCurrentBudget(ctx, org.ID, newBudget); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.invalidate(ctx, updated.OrganizationID, updated.EventID)
	return updated, nil
}

// Delete removes a transaction and applies the inverse delta to the balance.
// No floor check: deleting an expense restores funds, and deleting income may
// legitimately drive the balance negative.
func (l *Ledger) Delete(ctx context.Context, id uuid.UUID) error {
	var orgID uuid.UUID
	var eventID *uuid.UUID
	err := l.store.WithinTx(ctx, func(tx TxStore) error {
		t, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		org, err := tx.GetOrganizationForUpdate(ctx, t.OrganizationID)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, t.ID); err != nil {
			return err
		}
		orgID, eventID = t.OrganizationID, t.EventID
		return tx.SetCurrentBudget(ctx, org.ID, org.CurrentBudgetCents-t.Delta())
	})
	if err != nil {
		return err
	}
	l.invalidate(ctx, orgID, eventID)
	return nil
}

// Get returns a single transaction.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// FindAll returns the filtered transactions, newest first, together with the
// summary over the same filtered set.
func (l *Ledger) FindAll(ctx context.Context, f Filter) (*ListResult, error) {
	transactions, err := l.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, err
	}
	summary, err := l.store.Summarize(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{Transactions: transactions, Summary: summary}, nil
}

// Summary aggregates an organization's transactions by type, optionally
// scoped to one event. Results are served from cache when present.
func (l *Ledger) Summary(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) (models.BudgetSummary, error) {
	if l.cache != nil {
		if s, ok := l.cache.Get(ctx, orgID, eventID); ok {
			return s, nil
		}
	}
	s, err := l.store.Summarize(ctx, Filter{OrganizationID: orgID, EventID: eventID})
	if err != nil {
		return models.BudgetSummary{}, err
	}
	if l.cache != nil {
		l.cache.Set(ctx, orgID, eventID, s)
	}
	return s, nil
}

// invalidate drops the cached summaries a mutation can affect: the
// organization-wide summary and, when the transaction is event-scoped, that
// event's summary.
func (l *Ledger) invalidate(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) {
	if l.cache == nil {
		return
	}
	l.cache.Invalidate(ctx, orgID, nil)
	if eventID != nil {
		l.cache.Invalidate(ctx, orgID, eventID)
	}
}
