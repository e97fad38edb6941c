package dashboard

import (
	"context"
	"sort"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// NotePatch carries only the fields to change.
type NotePatch struct {
	Content *string
	Seen    *bool
}

// CreateNote stores an unseen note. Blank content is rejected.
func (b *Board) CreateNote(ctx context.Context, content string) (models.Note, error) {
	if strings.TrimSpace(content) == "" {
		return models.Note{}, invalid("content", "Missing content")
	}

	b.notes.mu.Lock()
	note := models.Note{ID: b.notes.nextID(), Content: content, CreatedAt: b.nowMillis()}
	b.notes.put(note)
	err := b.flushed(ctx, "create", store.CollectionNotes, b.st.SaveNote(ctx, note))
	b.notes.mu.Unlock()

	b.publish(EventNote, Change{Action: "created", ID: note.ID, Data: note})
	logErr := b.record(ctx, models.ActionNoteCreated, "Left a note for Jet", map[string]any{"note_id": note.ID})
	return note, firstErr(err, logErr)
}

// GetNote returns the note with id.
func (b *Board) GetNote(id int64) (models.Note, bool) {
	b.notes.mu.RLock()
	defer b.notes.mu.RUnlock()
	return b.notes.get(id)
}

// ListNotes returns the notes matching f, newest first.
func (b *Board) ListNotes(f Filter) []models.Note {
	b.notes.mu.RLock()
	all := b.notes.all()
	b.notes.mu.RUnlock()

	out := make([]models.Note, 0, len(all))
	for _, n := range all {
		if f.matchNote(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// UpdateNote applies p. processed_at is stamped when seen goes from false to true and is
// otherwise left alone.
func (b *Board) UpdateNote(ctx context.Context, id int64, p NotePatch) (models.Note, bool, error) {
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return models.Note{}, false, invalid("content", "Missing content")
	}

	b.notes.mu.Lock()
	note, ok := b.notes.get(id)
	if !ok {
		b.notes.mu.Unlock()
		return models.Note{}, false, nil
	}
	processed := false
	if p.Content != nil {
		note.Content = *p.Content
	}
	if p.Seen != nil {
		if *p.Seen && !note.Seen {
			now := b.nowMillis()
			note.ProcessedAt = &now
			processed = true
		}
		note.Seen = *p.Seen
	}
	b.notes.put(note)
	err := b.flushed(ctx, "update", store.CollectionNotes, b.st.SaveNote(ctx, note))
	b.notes.mu.Unlock()

	b.publish(EventNote, Change{Action: "updated", ID: note.ID, Data: note})
	var logErr error
	if processed {
		logErr = b.record(ctx, models.ActionNoteProcessed, "Jet read a note", map[string]any{"note_id": note.ID})
	}
	return note, true, firstErr(err, logErr)
}

// SetNoteSeen marks a note seen or unseen.
func (b *Board) SetNoteSeen(ctx context.Context, id int64, seen bool) (models.Note, bool, error) {
	return b.UpdateNote(ctx, id, NotePatch{Seen: &seen})
}

// DeleteNote removes a note, reporting false when id is unknown.
func (b *Board) DeleteNote(ctx context.Context, id int64) (bool, error) {
	b.notes.mu.Lock()
	if _, ok := b.notes.get(id); !ok {
		b.notes.mu.Unlock()
		return false, nil
	}
	b.notes.remove(id)
	_, stErr := b.st.DeleteNote(ctx, id)
	err := b.flushed(ctx, "delete", store.CollectionNotes, stErr)
	b.notes.mu.Unlock()

	b.publish(EventNote, Change{Action: "deleted", ID: id})
	logErr := b.record(ctx, models.ActionNoteDeleted, "Deleted a note", map[string]any{"note_id": id})
	return true, firstErr(err, logErr)
}
