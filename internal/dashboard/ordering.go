package dashboard

import (
	"slices"
	"sort"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Ordering within a status column. Cards are displayed by order ascending, then created_date
// ascending, then id. Orders need not be contiguous: deletes leave gaps, only relative order matters.

func lessDisplay(a, b models.KanbanCard) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.CreatedDate != b.CreatedDate {
		return a.CreatedDate < b.CreatedDate
	}
	return a.ID < b.ID
}

// SortColumn sorts cards of one column into display order.
func SortColumn(cards []models.KanbanCard) {
	sort.SliceStable(cards, func(i, j int) bool { return lessDisplay(cards[i], cards[j]) })
}

// sortBoard sorts cards by column (left to right) and then display order.
func sortBoard(cards []models.KanbanCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		si, sj := statusIndex(cards[i].Status), statusIndex(cards[j].Status)
		if si != sj {
			return si < sj
		}
		return lessDisplay(cards[i], cards[j])
	})
}

func statusIndex(status string) int {
	if i := slices.Index(models.KanbanStatuses, status); i >= 0 {
		return i
	}
	return len(models.KanbanStatuses)
}

// insertAtEnd returns the order for a card appended to column: the card count, or one past the
// largest order when gaps or duplicates have pushed orders beyond the count.
func insertAtEnd(column []models.KanbanCard) int {
	n := len(column)
	for _, c := range column {
		if c.Order >= n {
			n = c.Order + 1
		}
	}
	return n
}

// shiftFrom returns the cards of column whose order is >= target, each with order+1.
func shiftFrom(column []models.KanbanCard, target int) []models.KanbanCard {
	var out []models.KanbanCard
	for _, c := range column {
		if c.Order >= target {
			c.Order++
			out = append(out, c)
		}
	}
	return out
}

func orderTaken(column []models.KanbanCard, order int) bool {
	for _, c := range column {
		if c.Order == order {
			return true
		}
	}
	return false
}

func clampOrder(order int) int {
	if order < 0 {
		return 0
	}
	return order
}

// moveIndex removes the element at from and reinserts it at to, keeping everything else in place.
func moveIndex[T any](s []T, from, to int) []T {
	out := slices.Clone(s)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// renumber assigns dense orders 0..n-1 following the slice order and returns the cards that changed.
func renumber(column []models.KanbanCard) []models.KanbanCard {
	var changed []models.KanbanCard
	for i := range column {
		if column[i].Order != i {
			column[i].Order = i
			changed = append(changed, column[i])
		}
	}
	return changed
}
