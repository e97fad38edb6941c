// Package chat keeps the per-session message history of the multi-chat panel and produces the
// assistant's canned replies. Sessions live in memory only.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/otel"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

var (
	ErrMissingFields  = errors.New("chat: missing session id or message")
	ErrMissingSession = errors.New("chat: missing session id")
	ErrRateLimited    = errors.New("chat: rate limited")
)

// EventMessage is published with every assistant reply.
const EventMessage = "chat_message"

// Activity actions accepted by UpdateActivity. Anything else only refreshes lastActivity.
const (
	ActionMarkRead  = "markRead"
	ActionIncrement = "increment"
)

// KnownSessions are always reported by Activity, even before their first message.
var KnownSessions = []string{"medicare", "tech", "strategy", "general"}

const (
	defaultRate  = rate.Limit(2)
	defaultBurst = 5
	previewLen   = 100
	isoMillis    = "2006-01-02T15:04:05.000Z07:00"
)

// Recorder receives one activity entry per exchange. *dashboard.Board implements it.
type Recorder interface {
	AppendActivity(ctx context.Context, in dashboard.ActivityInput) (models.ActivityEntry, error)
}

// Options configures a Hub. Zero values are usable.
type Options struct {
	Recorder Recorder
	Logger   *slog.Logger
	Clock    func() time.Time
	Publish  func(event string, payload any)
	// Limit and Burst bound how fast one session may send. Zero means 2/s with a burst of 5.
	Limit rate.Limit
	Burst int
	// Pick chooses a reply prefix among n; defaults to a random choice.
	Pick func(n int) int
}

type session struct {
	messages []models.ChatMessage
	activity models.SessionActivity
	lastSeen time.Time
	limiter  *rate.Limiter
}

// Hub holds every chat session.
type Hub struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*session
}

func New(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Publish == nil {
		opts.Publish = func(string, any) {}
	}
	if opts.Limit == 0 {
		opts.Limit = defaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Hub{opts: opts, sessions: make(map[string]*session)}
}

func (h *Hub) stamp(t time.Time) string { return t.UTC().Format(isoMillis) }

// sessionLocked returns the session for id, creating it. h.mu must be held.
func (h *Hub) sessionLocked(id string, now time.Time) *session {
	s, ok := h.sessions[id]
	if !ok {
		s = &session{
			activity: models.SessionActivity{LastActivity: h.stamp(now)},
			lastSeen: now,
			limiter:  rate.NewLimiter(h.opts.Limit, h.opts.Burst),
		}
		h.sessions[id] = s
	}
	return s
}

// Send stores message in sessionID, generates and stores the reply, and returns the reply.
// The exchange is recorded in the activity log; a recorder error is returned alongside the reply.
func (h *Hub) Send(ctx context.Context, sessionID, message string) (models.ChatMessage, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || strings.TrimSpace(message) == "" {
		return models.ChatMessage{}, ErrMissingFields
	}

	now := h.opts.Clock()
	h.mu.Lock()
	s := h.sessionLocked(sessionID, now)
	if !s.limiter.AllowN(now, 1) {
		h.mu.Unlock()
		return models.ChatMessage{}, ErrRateLimited
	}
	user := models.ChatMessage{
		ID:        "user-" + uuid.NewString(),
		Content:   message,
		Role:      models.RoleUser,
		Timestamp: h.stamp(now),
		SessionID: sessionID,
	}
	reply := models.ChatMessage{
		ID:        "assistant-" + uuid.NewString(),
		Content:   Reply(sessionID, message, h.opts.Pick),
		Role:      models.RoleAssistant,
		Timestamp: h.stamp(now),
		SessionID: sessionID,
	}
	s.messages = append(s.messages, user, reply)
	s.activity.Unread++
	s.activity.LastActivity = reply.Timestamp
	s.activity.LastMessage = preview(reply.Content)
	s.lastSeen = now
	h.mu.Unlock()

	otel.RecordChatMessage(ctx, sessionID)
	h.opts.Publish(EventMessage, reply)

	if h.opts.Recorder == nil {
		return reply, nil
	}
	meta, err := json.Marshal(map[string]string{
		"sessionId":   sessionID,
		"userMessage": preview(message),
		"aiResponse":  preview(reply.Content),
	})
	if err != nil {
		return reply, err
	}
	_, err = h.opts.Recorder.AppendActivity(ctx, dashboard.ActivityInput{
		ActionType:  models.ActionChatInteraction,
		Description: fmt.Sprintf("Chat message in %s session", sessionID),
		Metadata:    meta,
	})
	if err != nil {
		h.opts.Logger.Warn("chat activity not recorded", "session", sessionID, "err", err)
	}
	return reply, err
}

// Messages returns the history of sessionID, oldest first. Unknown sessions have none.
func (h *Hub) Messages(sessionID string) []models.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return []models.ChatMessage{}
	}
	return append([]models.ChatMessage{}, s.messages...)
}

// Clear drops the history of sessionID. Its unread tracking is kept.
func (h *Hub) Clear(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrMissingSession
	}
	h.mu.Lock()
	if s, ok := h.sessions[sessionID]; ok {
		s.messages = nil
	}
	h.mu.Unlock()
	return nil
}

// Activity reports unread tracking for the known sessions and every session seen since start.
func (h *Hub) Activity() map[string]models.SessionActivity {
	now := h.stamp(h.opts.Clock())
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]models.SessionActivity, len(KnownSessions)+len(h.sessions))
	for _, id := range KnownSessions {
		out[id] = models.SessionActivity{LastActivity: now}
	}
	for id, s := range h.sessions {
		out[id] = s.activity
	}
	return out
}

// UpdateActivity applies action (markRead or increment) to sessionID and returns its tracking.
func (h *Hub) UpdateActivity(sessionID, action string) (models.SessionActivity, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.SessionActivity{}, ErrMissingSession
	}
	now := h.opts.Clock()
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sessionLocked(sessionID, now)
	switch action {
	case ActionMarkRead:
		s.activity.Unread = 0
	case ActionIncrement:
		s.activity.Unread++
	}
	s.activity.LastActivity = h.stamp(now)
	s.lastSeen = now
	return s.activity, nil
}

// Sessions lists the ids of every session with state, sorted.
func (h *Hub) Sessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Prune drops sessions idle for longer than maxIdle and returns how many were removed.
func (h *Hub) Prune(maxIdle time.Duration) int {
	cutoff := h.opts.Clock().Add(-maxIdle)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, s := range h.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(h.sessions, id)
			n++
		}
	}
	if n > 0 {
		h.opts.Logger.Debug("chat sessions pruned", "count", n, "remaining", len(h.sessions))
	}
	return n
}

// preview cuts s to 100 characters, marking the cut with "...".
func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "..."
}
