package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventure/backend/internal/models"
)

// Repository is the PostgreSQL-backed session store. The session aggregate
// spans the sessions, session_staff, session_resources and session_histories
// tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WithinTx runs fn inside a database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

// GetSession returns the full session aggregate including history.
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := getSession(ctx, r.pool, id, false)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	sess.History = history
	return sess, nil
}

// ListByEvent returns an event's sessions without history.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	const q = `SELECT id, title, COALESCE(description, ''), event_id, start_time, end_time, COALESCE(location, ''), status, created_at, updated_at
		FROM sessions WHERE event_id = $1 ORDER BY start_time NULLS LAST, created_at`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.EventID, &s.StartTime, &s.EndTime, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := loadAllocations(ctx, r.pool, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CountByEventStatus returns per-status session counts for an event.
func (r *Repository) CountByEventStatus(ctx context.Context, eventID uuid.UUID) (map[models.SessionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM sessions WHERE event_id = $1 GROUP BY status`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.SessionStatus]int{
		models.SessionStatusPlanning:  0,
		models.SessionStatusDoing:     0,
		models.SessionStatusDone:      0,
		models.SessionStatusCancelled: 0,
	}
	for rows.Next() {
		var status models.SessionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// txStore implements TxStore over a pgx transaction.
type txStore struct {
	tx pgx.Tx
}

func (s *txStore) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := getSession(ctx, s.tx, id, true)
	if err != nil {
		return nil, err
	}
	history, err := loadHistory(ctx, s.tx, id)
	if err != nil {
		return nil, err
	}
	sess.History = history
	return sess, nil
}

func (s *txStore) ListByEventForUpdate(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	// Locked in id order, consistent with resource locking.
	const q = `SELECT id, title, COALESCE(description, ''), event_id, start_time, end_time, COALESCE(location, ''), status, created_at, updated_at
		FROM sessions WHERE event_id = $1 ORDER BY id FOR UPDATE`
	rows, err := s.tx.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.Description, &sess.EventID, &sess.StartTime, &sess.EndTime, &sess.Location, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := loadAllocations(ctx, s.tx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *txStore) GetResourcesForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Resource, error) {
	// Locked in id order so concurrent updates over overlapping resource sets
	// cannot deadlock.
	const q = `SELECT id, organization_id, name, type, total_quantity, used_quantity, COALESCE(note, ''), created_at, updated_at
		FROM resources WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := s.tx.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*models.Resource, len(ids))
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.Name, &r.Type, &r.TotalQuantity, &r.UsedQuantity, &r.Note, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out[r.ID] = &r
	}
	return out, rows.Err()
}

func (s *txStore) SetResourceUsage(ctx context.Context, id uuid.UUID, used int) error {
	const q = `UPDATE resources SET used_quantity = $2, updated_at = NOW() WHERE id = $1`
	_, err := s.tx.Exec(ctx, q, id, used)
	return err
}

func (s *txStore) InsertSession(ctx context.Context, sess *models.Session) error {
	const q = `INSERT INTO sessions (title, description, event_id, start_time, end_time, location, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at`
	err := s.tx.QueryRow(ctx, q, sess.Title, sess.Description, sess.EventID, sess.StartTime, sess.EndTime, sess.Location, sess.Status).
		Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return err
	}
	return saveAllocations(ctx, s.tx, sess)
}

func (s *txStore) SaveSession(ctx context.Context, sess *models.Session) error {
	const q = `UPDATE sessions SET title = $2, description = NULLIF($3, ''), start_time = $4, end_time = $5,
		location = NULLIF($6, ''), status = $7, updated_at = NOW() WHERE id = $1`
	tag, err := s.tx.Exec(ctx, q, sess.ID, sess.Title, sess.Description, sess.StartTime, sess.EndTime, sess.Location, sess.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return saveAllocations(ctx, s.tx, sess)
}

func (s *txStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *txStore) AppendHistory(ctx context.Context, sessionID uuid.UUID, rec models.HistoryRecord) error {
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("marshal history entries: %w", err)
	}
	const q = `INSERT INTO session_histories (session_id, occurred_at, entries) VALUES ($1, $2, $3)`
	_, err = s.tx.Exec(ctx, q, sessionID, rec.Timestamp, entries)
	return err
}

func (s *txStore) StaffNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	const q = `SELECT os.id, u.full_name FROM organization_staff os
		INNER JOIN users u ON u.id = os.user_id
		WHERE os.id = ANY($1)`
	rows, err := s.tx.Query(ctx, q, ids)
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

func getSession(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*models.Session, error) {
	sql := `SELECT id, title, COALESCE(description, ''), event_id, start_time, end_time, COALESCE(location, ''), status, created_at, updated_at
		FROM sessions WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var s models.Session
	err := q.QueryRow(ctx, sql, id).
		Scan(&s.ID, &s.Title, &s.Description, &s.EventID, &s.StartTime, &s.EndTime, &s.Location, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := loadAllocations(ctx, q, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadAllocations(ctx context.Context, q querier, s *models.Session) error {
	rows, err := q.Query(ctx, `SELECT staff_id FROM session_staff WHERE session_id = $1`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	s.StaffIDs = []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.StaffIDs = append(s.StaffIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	resRows, err := q.Query(ctx, `SELECT resource_id, quantity FROM session_resources WHERE session_id = $1 ORDER BY position`, s.ID)
	if err != nil {
		return err
	}
	defer resRows.Close()
	s.Resources = []models.SessionResource{}
	for resRows.Next() {
		var r models.SessionResource
		if err := resRows.Scan(&r.ResourceID, &r.Quantity); err != nil {
			return err
		}
		s.Resources = append(s.Resources, r)
	}
	return resRows.Err()
}

func loadHistory(ctx context.Context, q querier, sessionID uuid.UUID) ([]models.HistoryRecord, error) {
	const sql = `SELECT occurred_at, entries FROM session_histories WHERE session_id = $1 ORDER BY occurred_at, id`
	rows, err := q.Query(ctx, sql, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.HistoryRecord{}
	for rows.Next() {
		var rec models.HistoryRecord
		var raw []byte
		if err := rows.Scan(&rec.Timestamp, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rec.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal history entries: %w", err)
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

func saveAllocations(ctx context.Context, tx pgx.Tx, sess *models.Session) error {
	if _, err := tx.Exec(ctx, `DELETE FROM session_staff WHERE session_id = $1`, sess.ID); err != nil {
		return err
	}
	for _, staffID := range sess.StaffIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO session_staff (session_id, staff_id) VALUES ($1, $2)`, sess.ID, staffID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM session_resources WHERE session_id = $1`, sess.ID); err != nil {
		return err
	}
	for i, r := range sess.Resources {
		if _, err := tx.Exec(ctx, `INSERT INTO session_resources (session_id, resource_id, quantity, position) VALUES ($1, $2, $3, $4)`,
			sess.ID, r.ResourceID, r.Quantity, i); err != nil {
			return err
		}
	}
	return nil
}
