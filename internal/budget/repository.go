package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

// Repository is the PostgreSQL-backed ledger store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a budget repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithinTx runs fn inside a database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

const transactionColumns = `id, type, amount_cents, COALESCE(description, ''), date, organization_id, event_id, created_at, updated_at`

// GetTransaction returns a single transaction.
func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM budget_transactions WHERE id = $1`
	t, err := scanTransaction(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTransactions returns the filtered transactions sorted by date
// descending, each annotated with its event name when the event still exists.
func (r *Repository) ListTransactions(ctx context.Context, f Filter) ([]models.TransactionWithEvent, error) {
	q := `SELECT t.id, t.type, t.amount_cents, COALESCE(t.description, ''), t.date, t.organization_id, t.event_id, t.created_at, t.updated_at, COALESCE(e.name, '')
		FROM budget_transactions t
		LEFT JOIN events e ON e.id = t.event_id`
	where, args := filterClauses(f, "t.")
	q += where + ` ORDER BY t.date DESC, t.created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.TransactionWithEvent{}
	for rows.Next() {
		var t models.TransactionWithEvent
		if err := rows.Scan(&t.ID, &t.Type, &t.AmountCents, &t.Description, &t.Date,
			&t.OrganizationID, &t.EventID, &t.CreatedAt, &t.UpdatedAt, &t.EventName); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Summarize aggregates the filtered set by type.
func (r *Repository) Summarize(ctx context.Context, f Filter) (models.BudgetSummary, error) {
	q := `SELECT type, COALESCE(SUM(amount_cents), 0) FROM budget_transactions`
	where, args := filterClauses(f, "")
	q += where + ` GROUP BY type`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return models.BudgetSummary{}, err
	}
	defer rows.Close()

	var s models.BudgetSummary
	for rows.Next() {
		var typ models.TransactionType
		var total int64
		if err := rows.Scan(&typ, &total); err != nil {
			return models.BudgetSummary{}, err
		}
		switch typ {
		case models.TransactionIncome:
			s.TotalIncomeCents = total
		case models.TransactionExpense:
			s.TotalExpenseCents = total
		}
	}
	if err := rows.Err(); err != nil {
		return models.BudgetSummary{}, err
	}
	s.BalanceCents = s.TotalIncomeCents - s.TotalExpenseCents
	return s, nil
}

// filterClauses builds the WHERE clause for a filter. prefix qualifies the
// column names when the query joins other tables.
func filterClauses(f Filter, prefix string) (string, []any) {
	clauses := []string{fmt.Sprintf("%sorganization_id = $1", prefix)}
	args := []any{f.OrganizationID}
	if f.EventID != nil {
		args = append(args, *f.EventID)
		clauses = append(clauses, fmt.Sprintf("%sevent_id = $%d", prefix, len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		clauses = append(clauses, fmt.Sprintf("%sdate >= $%d", prefix, len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		clauses = append(clauses, fmt.Sprintf("%sdate <= $%d", prefix, len(args)))
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// txStore implements TxStore over a pgx transaction.
type txStore struct {
	tx pgx.Tx
}

func (s *txStore) GetOrganizationForUpdate(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, COALESCE(email, ''), COALESCE(avatar_url, ''), current_budget_cents, created_at, updated_at
		FROM organizations WHERE id = $1 FOR UPDATE`
	var org models.Organization
	err := s.tx.QueryRow(ctx, q, id).
		Scan(&org.ID, &org.Name, &org.Email, &org.AvatarURL, &org.CurrentBudgetCents, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *txStore) SetCurrentBudget(ctx context.Context, orgID uuid.UUID, cents int64) error {
	const q = `UPDATE organizations SET current_budget_cents = $2, updated_at = NOW() WHERE id = $1`
	_, err := s.tx.Exec(ctx, q, orgID, cents)
	return err
}

func (s *txStore) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM budget_transactions WHERE id = $1 FOR UPDATE`
	t, err := scanTransaction(s.tx.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *txStore) InsertTransaction(ctx context.Context, t *models.BudgetTransaction) error {
	const q = `INSERT INTO budget_transactions (type, amount_cents, description, date, organization_id, event_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return s.tx.QueryRow(ctx, q, t.Type, t.AmountCents, t.Description, t.Date, t.OrganizationID, t.EventID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *txStore) UpdateTransaction(ctx context.Context, t *models.BudgetTransaction) error {
	const q = `UPDATE budget_transactions SET type = $2, amount_cents = $3, description = NULLIF($4, ''), date = $5, updated_at = NOW()
		WHERE id = $1`
	tag, err := s.tx.Exec(ctx, q, t.ID, t.Type, t.AmountCents, t.Description, t.Date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *txStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM budget_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.BudgetTransaction, error) {
	var t models.BudgetTransaction
	err := row.Scan(&t.ID, &t.Type, &t.AmountCents, &t.Description, &t.Date,
		&t.OrganizationID, &t.EventID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
