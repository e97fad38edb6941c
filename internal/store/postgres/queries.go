package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

const upsertCardSQL = `
INSERT INTO kanban_cards(id, title, description, tags, status, priority, auto_pickup, sort_order, created_date, updated_date)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title, description=EXCLUDED.description, tags=EXCLUDED.tags,
  status=EXCLUDED.status, priority=EXCLUDED.priority, auto_pickup=EXCLUDED.auto_pickup,
  sort_order=EXCLUDED.sort_order, updated_date=EXCLUDED.updated_date`

func (s *Store) LoadKanbanCards(ctx context.Context) ([]models.KanbanCard, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT id, title, description, tags, status, priority, auto_pickup, sort_order, created_date, updated_date
FROM kanban_cards ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KanbanCard
	for rows.Next() {
		var c models.KanbanCard
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Tags, &c.Status, &c.Priority, &c.AutoPickup, &c.Order, &c.CreatedDate, &c.UpdatedDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveKanbanCards sends every upsert as one batch inside a transaction.
func (s *Store) SaveKanbanCards(ctx context.Context, cards ...models.KanbanCard) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range cards {
		batch.Queue(upsertCardSQL, c.ID, c.Title, c.Description, c.Tags, c.Status, c.Priority, c.AutoPickup, c.Order, c.CreatedDate, c.UpdatedDate)
	}
	br := tx.SendBatch(ctx, batch)
	for _, c := range cards {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("save card %d: %w", c.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteKanbanCard(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, store.CollectionKanban, id)
}

func (s *Store) LoadBrainCards(ctx context.Context) ([]models.BrainCard, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, title, content, tags, category, created_date, updated_date FROM brain_cards ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BrainCard
	for rows.Next() {
		var c models.BrainCard
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &c.Tags, &c.Category, &c.CreatedDate, &c.UpdatedDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveBrainCard(ctx context.Context, c models.BrainCard) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO brain_cards(id, title, content, tags, category, created_date, updated_date)
VALUES($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title, content=EXCLUDED.content, tags=EXCLUDED.tags,
  category=EXCLUDED.category, updated_date=EXCLUDED.updated_date`,
		c.ID, c.Title, c.Content, c.Tags, c.Category, c.CreatedDate, c.UpdatedDate)
	return err
}

func (s *Store) DeleteBrainCard(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, store.CollectionBrain, id)
}

func (s *Store) LoadDocs(ctx context.Context) ([]models.Doc, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, title, content, category, created_at, updated_at FROM docs ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Doc
	for rows.Next() {
		var d models.Doc
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.Category, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SaveDoc(ctx context.Context, d models.Doc) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO docs(id, title, content, category, created_at, updated_at)
VALUES($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title, content=EXCLUDED.content, category=EXCLUDED.category, updated_at=EXCLUDED.updated_at`,
		d.ID, d.Title, d.Content, d.Category, d.CreatedAt, d.UpdatedAt)
	return err
}

func (s *Store) DeleteDoc(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, store.CollectionDocs, id)
}

func (s *Store) LoadNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, content, seen, created_at, processed_at FROM notes ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Content, &n.Seen, &n.CreatedAt, &n.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) SaveNote(ctx context.Context, n models.Note) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO notes(id, content, seen, created_at, processed_at)
VALUES($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET content=EXCLUDED.content, seen=EXCLUDED.seen, processed_at=EXCLUDED.processed_at`,
		n.ID, n.Content, n.Seen, n.CreatedAt, n.ProcessedAt)
	return err
}

func (s *Store) DeleteNote(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, store.CollectionNotes, id)
}

func (s *Store) LoadActivity(ctx context.Context) ([]models.ActivityEntry, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, timestamp, action_type, description, metadata FROM activity_log ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityEntry
	for rows.Next() {
		var (
			e    models.ActivityEntry
			meta *string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActionType, &e.Description, &meta); err != nil {
			return nil, err
		}
		if meta != nil && *meta != "" {
			e.Metadata = json.RawMessage(*meta)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) AppendActivity(ctx context.Context, e models.ActivityEntry) error {
	var meta *string
	if len(e.Metadata) > 0 {
		m := string(e.Metadata)
		meta = &m
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO activity_log(id, timestamp, action_type, description, metadata) VALUES($1, $2, $3, $4, $5)`,
		e.ID, e.Timestamp, e.ActionType, e.Description, meta)
	return err
}

func (s *Store) CountActivity(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&n)
	return n, err
}

func (s *Store) LoadStatus(ctx context.Context) (*models.Status, error) {
	var st models.Status
	err := s.Pool.QueryRow(ctx, `SELECT id, status, last_sync, updated_at FROM status ORDER BY updated_at DESC, id DESC LIMIT 1`).
		Scan(&st.ID, &st.Status, &st.LastSync, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) SaveStatus(ctx context.Context, st models.Status) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO status(id, status, last_sync, updated_at) VALUES($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, last_sync=EXCLUDED.last_sync, updated_at=EXCLUDED.updated_at`,
		st.ID, st.Status, st.LastSync, st.UpdatedAt)
	return err
}

// Reset truncates the named collections (all collections when none are named).
func (s *Store) Reset(ctx context.Context, collections ...string) error {
	if len(collections) == 0 {
		collections = store.Collections
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range collections {
		if !store.ValidCollection(c) {
			return fmt.Errorf("unknown collection: %s", c)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+c); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
