// Package store defines the persistence interface for the dashboard collections
// and its SQLite implementation. The PostgreSQL implementation lives in internal/store/postgres.
//
// The store is a write-through backend: ids are assigned by the caller (the in-memory
// record store in internal/dashboard) and every Save* call is an upsert keyed by that id.
package store

import (
	"context"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Collection names. They double as table names in both backends.
const (
	CollectionKanban   = "kanban_cards"
	CollectionBrain    = "brain_cards"
	CollectionDocs     = "docs"
	CollectionNotes    = "notes"
	CollectionActivity = "activity_log"
	CollectionStatus   = "status"
)

// Collections lists every collection, in load order.
var Collections = []string{
	CollectionKanban, CollectionBrain, CollectionDocs, CollectionNotes, CollectionActivity, CollectionStatus,
}

// Store is the persistence interface for kanban cards, brain cards, docs, notes, the activity log and status.
// Implementations: the SQLite store returned by Open and *postgres.Store.
type Store interface {
	// Kanban cards. SaveKanbanCards writes all given cards in one transaction.
	LoadKanbanCards(ctx context.Context) ([]models.KanbanCard, error)
	SaveKanbanCards(ctx context.Context, cards ...models.KanbanCard) error
	DeleteKanbanCard(ctx context.Context, id int64) (bool, error)

	// Brain cards
	LoadBrainCards(ctx context.Context) ([]models.BrainCard, error)
	SaveBrainCard(ctx context.Context, card models.BrainCard) error
	DeleteBrainCard(ctx context.Context, id int64) (bool, error)

	// Docs
	LoadDocs(ctx context.Context) ([]models.Doc, error)
	SaveDoc(ctx context.Context, doc models.Doc) error
	DeleteDoc(ctx context.Context, id int64) (bool, error)

	// Notes
	LoadNotes(ctx context.Context) ([]models.Note, error)
	SaveNote(ctx context.Context, note models.Note) error
	DeleteNote(ctx context.Context, id int64) (bool, error)

	// Activity log (append-only)
	LoadActivity(ctx context.Context) ([]models.ActivityEntry, error)
	AppendActivity(ctx context.Context, entry models.ActivityEntry) error
	CountActivity(ctx context.Context) (int, error)

	// Status (single row). LoadStatus returns nil when no row exists yet.
	LoadStatus(ctx context.Context) (*models.Status, error)
	SaveStatus(ctx context.Context, status models.Status) error

	// Lifecycle
	Reset(ctx context.Context, collections ...string) error
	Driver() string
	Close() error
}
