package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// BrainInput is the input to CreateBrain.
type BrainInput struct {
	Title    string
	Content  *string
	Tags     *string
	Category *string
}

// BrainPatch carries only the fields to change.
type BrainPatch struct {
	Title    *string
	Content  *string
	Tags     *string
	Category *string
}

// CreateBrain stores a new brain card. The title is trimmed and required.
func (b *Board) CreateBrain(ctx context.Context, in BrainInput) (models.BrainCard, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.BrainCard{}, invalid("title", "Title is required")
	}

	b.brain.mu.Lock()
	now := b.nowMillis()
	card := models.BrainCard{
		ID:          b.brain.nextID(),
		Title:       title,
		Content:     in.Content,
		Tags:        in.Tags,
		Category:    in.Category,
		CreatedDate: now,
		UpdatedDate: now,
	}
	b.brain.put(card)
	err := b.flushed(ctx, "create", store.CollectionBrain, b.st.SaveBrainCard(ctx, card))
	b.brain.mu.Unlock()

	b.publish(EventBrain, Change{Action: "created", ID: card.ID, Data: card})
	logErr := b.record(ctx, models.ActionBrainCreated, fmt.Sprintf("Added brain card %q", card.Title),
		map[string]any{"brain_id": card.ID})
	return card, firstErr(err, logErr)
}

// GetBrain returns the brain card with id.
func (b *Board) GetBrain(id int64) (models.BrainCard, bool) {
	b.brain.mu.RLock()
	defer b.brain.mu.RUnlock()
	return b.brain.get(id)
}

// ListBrain returns the brain cards matching f, newest first.
func (b *Board) ListBrain(f Filter) []models.BrainCard {
	b.brain.mu.RLock()
	all := b.brain.all()
	b.brain.mu.RUnlock()

	out := make([]models.BrainCard, 0, len(all))
	for _, c := range all {
		if f.matchBrain(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedDate != out[j].CreatedDate {
			return out[i].CreatedDate > out[j].CreatedDate
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// UpdateBrain applies the non-nil fields of p. It reports false when id is unknown.
func (b *Board) UpdateBrain(ctx context.Context, id int64, p BrainPatch) (models.BrainCard, bool, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return models.BrainCard{}, false, invalid("title", "Title is required")
	}

	b.brain.mu.Lock()
	card, ok := b.brain.get(id)
	if !ok {
		b.brain.mu.Unlock()
		return models.BrainCard{}, false, nil
	}
	if p.Title != nil {
		card.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		card.Content = p.Content
	}
	if p.Tags != nil {
		card.Tags = p.Tags
	}
	if p.Category != nil {
		card.Category = p.Category
	}
	card.UpdatedDate = b.advance(card.UpdatedDate)
	b.brain.put(card)
	err := b.flushed(ctx, "update", store.CollectionBrain, b.st.SaveBrainCard(ctx, card))
	b.brain.mu.Unlock()

	b.publish(EventBrain, Change{Action: "updated", ID: card.ID, Data: card})
	logErr := b.record(ctx, models.ActionBrainUpdated, fmt.Sprintf("Updated brain card %q", card.Title),
		map[string]any{"brain_id": card.ID})
	return card, true, firstErr(err, logErr)
}

// DeleteBrain removes a brain card, reporting false when id is unknown.
func (b *Board) DeleteBrain(ctx context.Context, id int64) (bool, error) {
	b.brain.mu.Lock()
	card, ok := b.brain.get(id)
	if !ok {
		b.brain.mu.Unlock()
		return false, nil
	}
	b.brain.remove(id)
	_, stErr := b.st.DeleteBrainCard(ctx, id)
	err := b.flushed(ctx, "delete", store.CollectionBrain, stErr)
	b.brain.mu.Unlock()

	b.publish(EventBrain, Change{Action: "deleted", ID: id})
	logErr := b.record(ctx, models.ActionBrainDeleted, fmt.Sprintf("Deleted brain card %q", card.Title),
		map[string]any{"brain_id": id})
	return true, firstErr(err, logErr)
}
