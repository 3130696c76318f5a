package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a budget transaction.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Sign returns the factor applied to the amount when adjusting an organization's
// running balance: +1 for income, -1 for expense. The sign rule lives here and
// nowhere else.
func (t TransactionType) Sign() int64 {
	if t == TransactionIncome {
		return 1
	}
	return -1
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Label returns the display text for the type.
func (t TransactionType) Label() string {
	if t == TransactionIncome {
		return "Income"
	}
	return "Expense"
}

// BudgetTransaction is a signed budget entry affecting an organization's balance.
// EventID is nil for organization-level transactions not tied to one event.
type BudgetTransaction struct {
	ID             uuid.UUID       `json:"id"`
	Type           TransactionType `json:"type"`
	AmountCents    int64           `json:"amount_cents"`
	Description    string          `json:"description,omitempty"`
	Date           time.Time       `json:"date"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	EventID        *uuid.UUID      `json:"event_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Delta returns the signed effect of the transaction on the running balance.
func (t *BudgetTransaction) Delta() int64 {
	return t.Type.Sign() * t.AmountCents
}

// TransactionWithEvent is a transaction annotated with its event name, when the
// event resolves. EventName is empty for organization-level transactions.
type TransactionWithEvent struct {
	BudgetTransaction
	EventName string `json:"event_name,omitempty"`
}

// BudgetSummary aggregates a filtered transaction set by type.
type BudgetSummary struct {
	TotalIncomeCents  int64 `json:"total_income_cents"`
	TotalExpenseCents int64 `json:"total_expense_cents"`
	BalanceCents      int64 `json:"balance_cents"`
}
