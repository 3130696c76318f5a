package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// memStore is an in-memory Store for service tests. Writes go to a staging
// copy that is promoted on commit and discarded on rollback, matching the
// transactional semantics of the real repository.
type memStore struct {
	sessions   map[uuid.UUID]*models.Session
	resources  map[uuid.UUID]*models.Resource
	staffNames map[uuid.UUID]string
	histories  map[uuid.UUID][]models.HistoryRecord
}

func newMemStore() *memStore {
	return &memStore{
		sessions:   map[uuid.UUID]*models.Session{},
		resources:  map[uuid.UUID]*models.Resource{},
		staffNames: map[uuid.UUID]string{},
		histories:  map[uuid.UUID][]models.HistoryRecord{},
	}
}

func (m *memStore) addResource(name string, total, used int) uuid.UUID {
	id := uuid.New()
	m.resources[id] = &models.Resource{ID: id, Name: name, TotalQuantity: total, UsedQuantity: used}
	return id
}

func (m *memStore) addSession(s *models.Session) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.sessions[s.ID] = cloneSession(s)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx := &memTx{
		base:      m,
		sessions:  map[uuid.UUID]*models.Session{},
		resources: map[uuid.UUID]*models.Resource{},
		histories: map[uuid.UUID][]models.HistoryRecord{},
		deleted:   map[uuid.UUID]bool{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *memStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := cloneSession(s)
	out.History = append([]models.HistoryRecord{}, m.histories[id]...)
	return out, nil
}

func (m *memStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	var list []models.Session
	for _, s := range m.sessions {
		if s.EventID == eventID {
			list = append(list, *cloneSession(s))
		}
	}
	return list, nil
}

// memTx stages writes until commit.
type memTx struct {
	base      *memStore
	sessions  map[uuid.UUID]*models.Session
	resources map[uuid.UUID]*models.Resource
	histories map[uuid.UUID][]models.HistoryRecord
	deleted   map[uuid.UUID]bool
}

func (t *memTx) commit() {
	for id, s := range t.sessions {
		t.base.sessions[id] = s
	}
	for id, r := range t.resources {
		t.base.resources[id] = r
	}
	for id, recs := range t.histories {
		t.base.histories[id] = append(t.base.histories[id], recs...)
	}
	for id := range t.deleted {
		delete(t.base.sessions, id)
	}
}

func (t *memTx) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := t.base.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := cloneSession(s)
	out.History = append([]models.HistoryRecord{}, t.base.histories[id]...)
	return out, nil
}

func (t *memTx) ListByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	var list []models.Session
	for _, s := range t.base.sessions {
		if s.EventID == eventID {
			list = append(list, *cloneSession(s))
		}
	}
	return list, nil
}

func (t *memTx) GetResourcesForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Resource, error) {
	out := make(map[uuid.UUID]*models.Resource, len(ids))
	for _, id := range ids {
		if staged, ok := t.resources[id]; ok {
			out[id] = staged
			continue
		}
		if r, ok := t.base.resources[id]; ok {
			c := *r
			t.resources[id] = &c
			out[id] = &c
		}
	}
	return out, nil
}

func (t *memTx) SetResourceUsage(ctx context.Context, id uuid.UUID, used int) error {
	r, ok := t.resources[id]
	if !ok {
		base, ok := t.base.resources[id]
		if !ok {
			return ErrResourceNotFound
		}
		c := *base
		r = &c
		t.resources[id] = r
	}
	r.UsedQuantity = used
	return nil
}

func (t *memTx) InsertSession(ctx context.Context, s *models.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	t.sessions[s.ID] = cloneSession(s)
	return nil
}

func (t *memTx) SaveSession(ctx context.Context, s *models.Session) error {
	if _, ok := t.base.sessions[s.ID]; !ok {
		if _, staged := t.sessions[s.ID]; !staged {
			return ErrSessionNotFound
		}
	}
	t.sessions[s.ID] = cloneSession(s)
	return nil
}

func (t *memTx) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.base.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	t.deleted[id] = true
	return nil
}

func (t *memTx) AppendHistory(ctx context.Context, sessionID uuid.UUID, rec models.HistoryRecord) error {
	t.histories[sessionID] = append(t.histories[sessionID], rec)
	return nil
}

func (t *memTx) StaffNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if name, ok := t.base.staffNames[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func cloneSession(s *models.Session) *models.Session {
	out := *s
	out.StaffIDs = append([]uuid.UUID{}, s.StaffIDs...)
	out.Resources = append([]models.SessionResource{}, s.Resources...)
	out.History = nil
	return &out
}
