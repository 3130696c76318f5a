package budget

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// memStore is an in-memory Store for ledger tests. Writes are staged per
// transaction and promoted on commit, discarded on rollback.
type memStore struct {
	orgs         map[uuid.UUID]*models.Organization
	transactions map[uuid.UUID]*models.BudgetTransaction
	eventNames   map[uuid.UUID]string
}

func newMemStore() *memStore {
	return &memStore{
		orgs:         map[uuid.UUID]*models.Organization{},
		transactions: map[uuid.UUID]*models.BudgetTransaction{},
		eventNames:   map[uuid.UUID]string{},
	}
}

func (m *memStore) addOrg(budgetCents int64) uuid.UUID {
	id := uuid.New()
	m.orgs[id] = &models.Organization{ID: id, Name: "Test Org", CurrentBudgetCents: budgetCents}
	return id
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx := &memTx{
		base:         m,
		orgs:         map[uuid.UUID]*models.Organization{},
		transactions: map[uuid.UUID]*models.BudgetTransaction{},
		deleted:      map[uuid.UUID]bool{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *memStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	c := *t
	return &c, nil
}

func (m *memStore) ListTransactions(ctx context.Context, f Filter) ([]models.TransactionWithEvent, error) {
	list := []models.TransactionWithEvent{}
	for _, t := range m.transactions {
		if !m.matches(t, f) {
			continue
		}
		entry := models.TransactionWithEvent{BudgetTransaction: *t}
		if t.EventID != nil {
			entry.EventName = m.eventNames[*t.EventID]
		}
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}

func (m *memStore) Summarize(ctx context.Context, f Filter) (models.BudgetSummary, error) {
	var s models.BudgetSummary
	for _, t := range m.transactions {
		if !m.matches(t, f) {
			continue
		}
		switch t.Type {
		case models.TransactionIncome:
			s.TotalIncomeCents += t.AmountCents
		case models.TransactionExpense:
			s.TotalExpenseCents += t.AmountCents
		}
	}
	s.BalanceCents = s.TotalIncomeCents - s.TotalExpenseCents
	return s, nil
}

func (m *memStore) matches(t *models.BudgetTransaction, f Filter) bool {
	if t.OrganizationID != f.OrganizationID {
		return false
	}
	if f.EventID != nil && (t.EventID == nil || *t.EventID != *f.EventID) {
		return false
	}
	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}
	return true
}

type memTx struct {
	base         *memStore
	orgs         map[uuid.UUID]*models.Organization
	transactions map[uuid.UUID]*models.BudgetTransaction
	deleted      map[uuid.UUID]bool
}

func (t *memTx) commit() {
	for id, org := range t.orgs {
		t.base.orgs[id] = org
	}
	for id, tr := range t.transactions {
		t.base.transactions[id] = tr
	}
	for id := range t.deleted {
		delete(t.base.transactions, id)
	}
}

func (t *memTx) GetOrganizationForUpdate(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	if staged, ok := t.orgs[id]; ok {
		c := *staged
		return &c, nil
	}
	org, ok := t.base.orgs[id]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	c := *org
	return &c, nil
}

func (t *memTx) SetCurrentBudget(ctx context.Context, orgID uuid.UUID, cents int64) error {
	org, err := t.GetOrganizationForUpdate(ctx, orgID)
	if err != nil {
		return err
	}
	org.CurrentBudgetCents = cents
	t.orgs[orgID] = org
	return nil
}

func (t *memTx) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	if staged, ok := t.transactions[id]; ok {
		c := *staged
		return &c, nil
	}
	tr, ok := t.base.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	c := *tr
	return &c, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, tr *models.BudgetTransaction) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	c := *tr
	t.transactions[tr.ID] = &c
	return nil
}

func (t *memTx) UpdateTransaction(ctx context.Context, tr *models.BudgetTransaction) error {
	if _, err := t.GetTransactionForUpdate(ctx, tr.ID); err != nil {
		return err
	}
	c := *tr
	t.transactions[tr.ID] = &c
	return nil
}

func (t *memTx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := t.GetTransactionForUpdate(ctx, id); err != nil {
		return err
	}
	t.deleted[id] = true
	return nil
}
