// Package dashboard is the authoritative record store for the dashboard collections.
//
// Every collection lives in memory behind its own lock and is written through to a store.Store
// on each mutation. If the flush fails the in-memory state is kept, the failure is logged, and
// a *StorageError is returned together with the (successful) result.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Events published after successful mutations.
const (
	EventCard   = "card_update"
	EventBrain  = "brain_update"
	EventDoc    = "doc_update"
	EventNote   = "note_update"
	EventLog    = "log_append"
	EventStatus = "status_update"
)

// Change is the payload published with every event except EventLog, which carries the entry itself.
type Change struct {
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Options configures a Board. Zero values are usable.
type Options struct {
	Logger *slog.Logger
	// Clock overrides time.Now (tests).
	Clock func() time.Time
	// Publish receives every event; it must not block.
	Publish func(event string, payload any)
}

// Board holds every dashboard collection. Construct it once with New and share it.
type Board struct {
	st      store.Store
	log     *slog.Logger
	clock   func() time.Time
	publish func(event string, payload any)

	kanban   *collection[models.KanbanCard]
	brain    *collection[models.BrainCard]
	docs     *collection[models.Doc]
	notes    *collection[models.Note]
	activity *collection[models.ActivityEntry]

	statusMu sync.RWMutex
	status   *models.Status
}

// New loads every collection from st and returns the board.
func New(ctx context.Context, st store.Store, opts Options) (*Board, error) {
	if st == nil {
		return nil, errors.New("store required")
	}
	b := &Board{st: st, log: opts.Logger, clock: opts.Clock, publish: opts.Publish}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	if b.publish == nil {
		b.publish = func(string, any) {}
	}

	cards, err := st.LoadKanbanCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionKanban, err)
	}
	brain, err := st.LoadBrainCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionBrain, err)
	}
	docs, err := st.LoadDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionDocs, err)
	}
	notes, err := st.LoadNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionNotes, err)
	}
	activity, err := st.LoadActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionActivity, err)
	}
	status, err := st.LoadStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.CollectionStatus, err)
	}

	b.kanban = newCollection(store.CollectionKanban, func(c models.KanbanCard) int64 { return c.ID }, cards)
	b.brain = newCollection(store.CollectionBrain, func(c models.BrainCard) int64 { return c.ID }, brain)
	b.docs = newCollection(store.CollectionDocs, func(d models.Doc) int64 { return d.ID }, docs)
	b.notes = newCollection(store.CollectionNotes, func(n models.Note) int64 { return n.ID }, notes)
	b.activity = newCollection(store.CollectionActivity, func(e models.ActivityEntry) int64 { return e.ID }, activity)
	b.status = status

	b.log.Debug("dashboard loaded",
		"driver", st.Driver(),
		"cards", len(cards),
		"brain_cards", len(brain),
		"docs", len(docs),
		"notes", len(notes),
		"activity", len(activity),
	)
	return b, nil
}

// Driver names the persistence backend.
func (b *Board) Driver() string { return b.st.Driver() }

func (b *Board) nowMillis() int64 { return b.clock().UnixMilli() }

// advance returns the next update timestamp: now, or prev+1 when the clock has not moved past prev.
func (b *Board) advance(prev int64) int64 {
	now := b.nowMillis()
	if now <= prev {
		return prev + 1
	}
	return now
}

// flushed converts a backend error into a *StorageError after logging and counting it.
func (b *Board) flushed(ctx context.Context, op, coll string, err error) error {
	if err == nil {
		return nil
	}
	b.log.Error("write-through flush failed", "op", op, "collection", coll, "err", err)
	otel.RecordStorageError(ctx, coll)
	return &StorageError{Op: op, Collection: coll, Err: err}
}

// record appends an activity entry for a mutation the board itself performed.
func (b *Board) record(ctx context.Context, action, description string, meta map[string]any) error {
	in := ActivityInput{ActionType: action, Description: description}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err == nil {
			in.Metadata = raw
		}
	}
	_, err := b.AppendActivity(ctx, in)
	return err
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
