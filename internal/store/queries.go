package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

func (s *sqliteStore) LoadKanbanCards(ctx context.Context) ([]models.KanbanCard, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, description, tags, status, priority, auto_pickup, sort_order, created_date, updated_date
FROM kanban_cards
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.KanbanCard
	for rows.Next() {
		var (
			c          models.KanbanCard
			desc, tags sql.NullString
			autoPickup int
		)
		if err := rows.Scan(&c.ID, &c.Title, &desc, &tags, &c.Status, &c.Priority, &autoPickup, &c.Order, &c.CreatedDate, &c.UpdatedDate); err != nil {
			return nil, err
		}
		c.Description = stringPtr(desc)
		c.Tags = stringPtr(tags)
		c.AutoPickup = autoPickup != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveKanbanCards upserts every card inside one transaction.
func (s *sqliteStore) SaveKanbanCards(ctx context.Context, cards ...models.KanbanCard) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt := tx.StmtContext(ctx, s.stmtUpsertCard)
	for _, c := range cards {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Title, nullString(c.Description), nullString(c.Tags), c.Status, c.Priority,
			boolInt(c.AutoPickup), c.Order, c.CreatedDate, c.UpdatedDate,
		); err != nil {
			return fmt.Errorf("save card %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) DeleteKanbanCard(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, CollectionKanban, id)
}

func (s *sqliteStore) LoadBrainCards(ctx context.Context) ([]models.BrainCard, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, content, tags, category, created_date, updated_date
FROM brain_cards
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.BrainCard
	for rows.Next() {
		var (
			c                       models.BrainCard
			content, tags, category sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Title, &content, &tags, &category, &c.CreatedDate, &c.UpdatedDate); err != nil {
			return nil, err
		}
		c.Content = stringPtr(content)
		c.Tags = stringPtr(tags)
		c.Category = stringPtr(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveBrainCard(ctx context.Context, c models.BrainCard) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO brain_cards(id, title, content, tags, category, created_date, updated_date)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title, content=excluded.content, tags=excluded.tags,
  category=excluded.category, updated_date=excluded.updated_date`,
		c.ID, c.Title, nullString(c.Content), nullString(c.Tags), nullString(c.Category), c.CreatedDate, c.UpdatedDate)
	return err
}

func (s *sqliteStore) DeleteBrainCard(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, CollectionBrain, id)
}

func (s *sqliteStore) LoadDocs(ctx context.Context) ([]models.Doc, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, title, content, category, created_at, updated_at FROM docs ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Doc
	for rows.Next() {
		var (
			d        models.Doc
			category sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &category, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Category = stringPtr(category)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveDoc(ctx context.Context, d models.Doc) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO docs(id, title, content, category, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title, content=excluded.content, category=excluded.category, updated_at=excluded.updated_at`,
		d.ID, d.Title, d.Content, nullString(d.Category), d.CreatedAt, d.UpdatedAt)
	return err
}

func (s *sqliteStore) DeleteDoc(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, CollectionDocs, id)
}

func (s *sqliteStore) LoadNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, content, seen, created_at, processed_at FROM notes ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Note
	for rows.Next() {
		var (
			n         models.Note
			seen      int
			processed sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.Content, &seen, &n.CreatedAt, &processed); err != nil {
			return nil, err
		}
		n.Seen = seen != 0
		if processed.Valid {
			v := processed.Int64
			n.ProcessedAt = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveNote(ctx context.Context, n models.Note) error {
	var processed sql.NullInt64
	if n.ProcessedAt != nil {
		processed = sql.NullInt64{Int64: *n.ProcessedAt, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO notes(id, content, seen, created_at, processed_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET content=excluded.content, seen=excluded.seen, processed_at=excluded.processed_at`,
		n.ID, n.Content, boolInt(n.Seen), n.CreatedAt, processed)
	return err
}

func (s *sqliteStore) DeleteNote(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, CollectionNotes, id)
}

func (s *sqliteStore) LoadActivity(ctx context.Context) ([]models.ActivityEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, timestamp, action_type, description, metadata FROM activity_log ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ActivityEntry
	for rows.Next() {
		var (
			e    models.ActivityEntry
			meta sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActionType, &e.Description, &meta); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			e.Metadata = json.RawMessage(meta.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendActivity(ctx context.Context, e models.ActivityEntry) error {
	var meta sql.NullString
	if len(e.Metadata) > 0 {
		meta = sql.NullString{String: string(e.Metadata), Valid: true}
	}
	_, err := s.stmtAppendActivity.ExecContext(ctx, e.ID, e.Timestamp, e.ActionType, e.Description, meta)
	return err
}

func (s *sqliteStore) CountActivity(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&n)
	return n, err
}

func (s *sqliteStore) LoadStatus(ctx context.Context) (*models.Status, error) {
	var st models.Status
	err := s.DB.QueryRowContext(ctx, `
SELECT id, status, last_sync, updated_at FROM status
ORDER BY updated_at DESC, id DESC
LIMIT 1`).Scan(&st.ID, &st.Status, &st.LastSync, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *sqliteStore) SaveStatus(ctx context.Context, st models.Status) error {
	_, err := s.stmtSaveStatus.ExecContext(ctx, st.ID, st.Status, st.LastSync, st.UpdatedAt)
	return err
}

// Reset deletes every row of the named collections (all collections when none are named).
func (s *sqliteStore) Reset(ctx context.Context, collections ...string) error {
	if len(collections) == 0 {
		collections = Collections
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range collections {
		if !ValidCollection(c) {
			return fmt.Errorf("unknown collection: %s", c)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
