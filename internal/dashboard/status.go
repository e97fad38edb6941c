package dashboard

import (
	"context"
	"fmt"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

const statusRowID = 1

var allowedStates = map[string]bool{
	models.StateIdle:        true,
	models.StateThinking:    true,
	models.StateWorking:     true,
	models.StateSleeping:    true,
	models.UIStateIdle:      true,
	models.UIStateWorking:   true,
	models.UIStateThinking:  true,
	models.UIStateError:     true,
	models.UIStateListening: true,
	models.UIStateSpeaking:  true,
}

// ValidState reports whether s is an accepted assistant state.
func ValidState(s string) bool { return allowedStates[s] }

// GetStatus returns the current status, or Idle stamped with the current time when none was ever set.
func (b *Board) GetStatus() models.Status {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	if b.status != nil {
		return *b.status
	}
	now := b.nowMillis()
	return models.Status{ID: statusRowID, Status: models.StateIdle, LastSync: now, UpdatedAt: now}
}

// SetStatus replaces the current status. Values outside the allowed set are rejected without
// touching the stored one.
func (b *Board) SetStatus(ctx context.Context, value string) (models.Status, error) {
	if !ValidState(value) {
		return models.Status{}, invalid("status", "Invalid status")
	}

	b.statusMu.Lock()
	prev := ""
	var prevUpdated int64
	if b.status != nil {
		prev, prevUpdated = b.status.Status, b.status.UpdatedAt
	}
	now := b.nowMillis()
	st := models.Status{ID: statusRowID, Status: value, LastSync: now, UpdatedAt: b.advance(prevUpdated)}
	b.status = &st
	err := b.flushed(ctx, "set", store.CollectionStatus, b.st.SaveStatus(ctx, st))
	b.statusMu.Unlock()

	b.publish(EventStatus, st)
	var logErr error
	if prev != value {
		from := prev
		if from == "" {
			from = models.StateIdle
		}
		logErr = b.record(ctx, models.ActionStatusChanged, fmt.Sprintf("Status changed from %s to %s", from, value),
			map[string]any{"from": from, "to": value})
	}
	return st, firstErr(err, logErr)
}

// TouchStatus refreshes last_sync without changing the state.
func (b *Board) TouchStatus(ctx context.Context) (models.Status, error) {
	b.statusMu.Lock()
	now := b.nowMillis()
	st := models.Status{ID: statusRowID, Status: models.StateIdle, UpdatedAt: now}
	if b.status != nil {
		st = *b.status
	}
	st.LastSync = now
	b.status = &st
	err := b.flushed(ctx, "touch", store.CollectionStatus, b.st.SaveStatus(ctx, st))
	b.statusMu.Unlock()

	b.publish(EventStatus, st)
	return st, err
}
