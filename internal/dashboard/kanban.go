package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// CardInput is the input to CreateCard. Empty Status and Priority take their defaults.
// A nil Order appends the card to the end of its column.
type CardInput struct {
	Title       string
	Description *string
	Tags        *string
	Status      string
	Priority    string
	AutoPickup  bool
	Order       *int
}

// KanbanPatch carries only the fields to change; nil members are left untouched.
type KanbanPatch struct {
	Title       *string
	Description *string
	Tags        *string
	Status      *string
	Priority    *string
	AutoPickup  *bool
	Order       *int
}

// ValidCardStatus reports whether s is a board column.
func ValidCardStatus(s string) bool { return slices.Contains(models.KanbanStatuses, s) }

// ValidPriority reports whether p is a card priority.
func ValidPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}

func (p KanbanPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", "Title is required")
	}
	if p.Status != nil && !ValidCardStatus(*p.Status) {
		return invalid("status", "Invalid card status")
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return invalid("priority", "Invalid priority")
	}
	return nil
}

// CreateCard adds a card. Its order is the end of the column unless in.Order is set, in which case
// cards at or after that position shift right by one.
func (b *Board) CreateCard(ctx context.Context, in CardInput) (models.KanbanCard, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.KanbanCard{}, invalid("title", "Title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusBacklog
	}
	if !ValidCardStatus(status) {
		return models.KanbanCard{}, invalid("status", "Invalid card status")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !ValidPriority(priority) {
		return models.KanbanCard{}, invalid("priority", "Invalid priority")
	}

	b.kanban.mu.Lock()
	now := b.nowMillis()
	card := models.KanbanCard{
		ID:          b.kanban.nextID(),
		Title:       title,
		Description: in.Description,
		Tags:        in.Tags,
		Status:      status,
		Priority:    priority,
		AutoPickup:  in.AutoPickup,
		CreatedDate: now,
		UpdatedDate: now,
	}
	column := b.columnLocked(status, 0)
	var shifted []models.KanbanCard
	if in.Order == nil {
		card.Order = insertAtEnd(column)
	} else {
		card.Order = clampOrder(*in.Order)
		shifted = shiftFrom(column, card.Order)
	}
	touched := append([]models.KanbanCard{card}, shifted...)
	for _, c := range touched {
		b.kanban.put(c)
	}
	err := b.flushed(ctx, "create", store.CollectionKanban, b.st.SaveKanbanCards(ctx, touched...))
	b.kanban.mu.Unlock()

	otel.RecordCardOp(ctx, "create", status)
	b.publish(EventCard, Change{Action: "created", ID: card.ID, Data: card})
	logErr := b.record(ctx, models.ActionCardCreated,
		fmt.Sprintf("Created card %q in %s", card.Title, status),
		map[string]any{"card_id": card.ID, "status": status, "order": card.Order})
	return card, firstErr(err, logErr)
}

// GetCard returns the card with id.
func (b *Board) GetCard(id int64) (models.KanbanCard, bool) {
	b.kanban.mu.RLock()
	defer b.kanban.mu.RUnlock()
	return b.kanban.get(id)
}

// ListCards returns the cards matching f, grouped by column left to right and in display order.
func (b *Board) ListCards(f Filter) []models.KanbanCard {
	b.kanban.mu.RLock()
	all := b.kanban.all()
	b.kanban.mu.RUnlock()

	out := make([]models.KanbanCard, 0, len(all))
	for _, c := range all {
		if f.matchCard(c) {
			out = append(out, c)
		}
	}
	sortBoard(out)
	return out
}

// Column returns one column in display order.
func (b *Board) Column(status string) []models.KanbanCard {
	b.kanban.mu.RLock()
	defer b.kanban.mu.RUnlock()
	col := b.columnLocked(status, 0)
	if col == nil {
		col = []models.KanbanCard{}
	}
	return col
}

// CardCounts returns the number of cards per column; every column is present.
func (b *Board) CardCounts() map[string]int64 {
	b.kanban.mu.RLock()
	defer b.kanban.mu.RUnlock()
	out := make(map[string]int64, len(models.KanbanStatuses))
	for _, s := range models.KanbanStatuses {
		out[s] = 0
	}
	for _, c := range b.kanban.items {
		out[c.Status]++
	}
	return out
}

// UpdateCard applies p. A status change without an explicit order appends the card to its new
// column; an explicit order places it with the same shift rule as MoveCard.
func (b *Board) UpdateCard(ctx context.Context, id int64, p KanbanPatch) (models.KanbanCard, bool, error) {
	if err := p.validate(); err != nil {
		return models.KanbanCard{}, false, err
	}

	b.kanban.mu.Lock()
	card, ok := b.kanban.get(id)
	if !ok {
		b.kanban.mu.Unlock()
		return models.KanbanCard{}, false, nil
	}
	from := card.Status
	if p.Title != nil {
		card.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		card.Description = p.Description
	}
	if p.Tags != nil {
		card.Tags = p.Tags
	}
	if p.Priority != nil {
		card.Priority = *p.Priority
	}
	if p.AutoPickup != nil {
		card.AutoPickup = *p.AutoPickup
	}
	dest := card.Status
	if p.Status != nil {
		dest = *p.Status
	}
	card, shifted, _ := b.placeLocked(card, dest, p.Order)
	card.UpdatedDate = b.advance(card.UpdatedDate)
	touched := append([]models.KanbanCard{card}, shifted...)
	for _, c := range touched {
		b.kanban.put(c)
	}
	err := b.flushed(ctx, "update", store.CollectionKanban, b.st.SaveKanbanCards(ctx, touched...))
	b.kanban.mu.Unlock()

	otel.RecordCardOp(ctx, "update", card.Status)
	b.publish(EventCard, Change{Action: "updated", ID: card.ID, Data: card})
	action, desc := models.ActionCardUpdated, fmt.Sprintf("Updated card %q", card.Title)
	if from != card.Status {
		action, desc = models.ActionCardMoved, fmt.Sprintf("Moved card %q from %s to %s", card.Title, from, card.Status)
	}
	logErr := b.record(ctx, action, desc, map[string]any{"card_id": card.ID, "from": from, "to": card.Status})
	return card, true, firstErr(err, logErr)
}

// MoveCard moves a card to status. With a nil target the card is appended to the end of the column,
// and a move within the same column is a no-op. With a target every other card in the destination
// column at or after target shifts right by one and the card takes target (negative targets clamp to 0).
// The source column keeps its gap. Changed lists every card whose status or order was written.
func (b *Board) MoveCard(ctx context.Context, id int64, status string, target *int) (models.MoveResult, bool, error) {
	if !ValidCardStatus(status) {
		return models.MoveResult{}, false, invalid("status", "Invalid card status")
	}

	b.kanban.mu.Lock()
	card, ok := b.kanban.get(id)
	if !ok {
		b.kanban.mu.Unlock()
		return models.MoveResult{}, false, nil
	}
	from, fromOrder := card.Status, card.Order
	card, shifted, moved := b.placeLocked(card, status, target)
	if !moved {
		b.kanban.mu.Unlock()
		return models.MoveResult{Card: card, Changed: []models.KanbanCard{}}, true, nil
	}
	card.UpdatedDate = b.advance(card.UpdatedDate)
	changed := append([]models.KanbanCard{card}, shifted...)
	for _, c := range changed {
		b.kanban.put(c)
	}
	err := b.flushed(ctx, "move", store.CollectionKanban, b.st.SaveKanbanCards(ctx, changed...))
	b.kanban.mu.Unlock()

	res := models.MoveResult{Card: card, Changed: changed}
	otel.RecordCardOp(ctx, "move", status)
	b.publish(EventCard, Change{Action: "moved", ID: card.ID, Data: res})
	logErr := b.record(ctx, models.ActionCardMoved,
		fmt.Sprintf("Moved card %q from %s to %s", card.Title, from, status),
		map[string]any{"card_id": card.ID, "from": from, "to": status, "from_order": fromOrder, "order": card.Order})
	return res, true, firstErr(err, logErr)
}

// ReorderColumn moves the card at index from to index to (positions in display order) and
// renumbers the whole column densely 0..n-1.
func (b *Board) ReorderColumn(ctx context.Context, status string, from, to int) ([]models.KanbanCard, error) {
	if !ValidCardStatus(status) {
		return nil, invalid("status", "Invalid card status")
	}

	b.kanban.mu.Lock()
	column := b.columnLocked(status, 0)
	n := len(column)
	if from < 0 || from >= n {
		b.kanban.mu.Unlock()
		return nil, invalid("from", fmt.Sprintf("Index out of range (column has %d cards)", n))
	}
	if to < 0 || to >= n {
		b.kanban.mu.Unlock()
		return nil, invalid("to", fmt.Sprintf("Index out of range (column has %d cards)", n))
	}
	column = moveIndex(column, from, to)
	changed := renumber(column)
	var err error
	if len(changed) > 0 {
		for _, c := range changed {
			b.kanban.put(c)
		}
		err = b.flushed(ctx, "reorder", store.CollectionKanban, b.st.SaveKanbanCards(ctx, changed...))
	}
	b.kanban.mu.Unlock()

	if len(changed) == 0 {
		return column, nil
	}
	otel.RecordCardOp(ctx, "reorder", status)
	b.publish(EventCard, Change{Action: "reordered", Data: column})
	logErr := b.record(ctx, models.ActionColumnReordered,
		fmt.Sprintf("Reordered %s: moved %q from position %d to %d", status, column[to].Title, from, to),
		map[string]any{"status": status, "from": from, "to": to, "card_id": column[to].ID})
	return column, firstErr(err, logErr)
}

// NormalizeColumn renumbers a column densely in its current display order, closing gaps left by deletes.
func (b *Board) NormalizeColumn(ctx context.Context, status string) ([]models.KanbanCard, error) {
	if !ValidCardStatus(status) {
		return nil, invalid("status", "Invalid card status")
	}

	b.kanban.mu.Lock()
	column := b.columnLocked(status, 0)
	changed := renumber(column)
	var err error
	if len(changed) > 0 {
		for _, c := range changed {
			b.kanban.put(c)
		}
		err = b.flushed(ctx, "normalize", store.CollectionKanban, b.st.SaveKanbanCards(ctx, changed...))
	}
	b.kanban.mu.Unlock()

	if column == nil {
		column = []models.KanbanCard{}
	}
	if len(changed) > 0 {
		otel.RecordCardOp(ctx, "normalize", status)
		b.publish(EventCard, Change{Action: "reordered", Data: column})
	}
	return column, err
}

// DeleteCard removes a card. Its siblings keep their orders.
func (b *Board) DeleteCard(ctx context.Context, id int64) (bool, error) {
	b.kanban.mu.Lock()
	card, ok := b.kanban.get(id)
	if !ok {
		b.kanban.mu.Unlock()
		return false, nil
	}
	b.kanban.remove(id)
	_, stErr := b.st.DeleteKanbanCard(ctx, id)
	err := b.flushed(ctx, "delete", store.CollectionKanban, stErr)
	b.kanban.mu.Unlock()

	otel.RecordCardOp(ctx, "delete", card.Status)
	b.publish(EventCard, Change{Action: "deleted", ID: id})
	logErr := b.record(ctx, models.ActionCardDeleted,
		fmt.Sprintf("Deleted card %q", card.Title),
		map[string]any{"card_id": id, "status": card.Status})
	return true, firstErr(err, logErr)
}

// columnLocked returns the cards of status except exclude, in display order. Caller holds kanban.mu.
func (b *Board) columnLocked(status string, exclude int64) []models.KanbanCard {
	var col []models.KanbanCard
	for _, c := range b.kanban.items {
		if c.Status == status && c.ID != exclude {
			col = append(col, c)
		}
	}
	SortColumn(col)
	return col
}

// placeLocked computes card's new status and order and the siblings that must shift to make room.
// moved is false when nothing changes. The returned siblings are not yet stored. Caller holds kanban.mu.
func (b *Board) placeLocked(card models.KanbanCard, dest string, target *int) (models.KanbanCard, []models.KanbanCard, bool) {
	column := b.columnLocked(dest, card.ID)
	if target == nil {
		if dest == card.Status {
			return card, nil, false
		}
		card.Status = dest
		card.Order = insertAtEnd(column)
		return card, nil, true
	}
	t := clampOrder(*target)
	if dest == card.Status && card.Order == t && !orderTaken(column, t) {
		return card, nil, false
	}
	shifted := shiftFrom(column, t)
	card.Status = dest
	card.Order = t
	return card, shifted, true
}
