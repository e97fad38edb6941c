// Package notify forwards activity log entries to outbound integrations such as a Slack webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

// Notifier delivers one activity entry to an external target.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, entry models.ActivityEntry) error
}

// Registry holds notifiers by name.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Notifier)}
}

func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.Name()] = n
}

func (r *Registry) Get(name string) Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[name]
}

// Names lists registered notifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Broadcast sends entry to every notifier and joins their errors.
func (r *Registry) Broadcast(ctx context.Context, entry models.ActivityEntry) error {
	r.mu.RLock()
	targets := make([]Notifier, 0, len(r.items))
	for _, n := range r.items {
		targets = append(targets, n)
	}
	r.mu.RUnlock()

	var errs []error
	for _, n := range targets {
		if err := n.Notify(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Webhook posts entries to a Slack-compatible incoming webhook.
type Webhook struct {
	URL      string
	Channel  string // optional override
	Username string // optional
	// Actions limits delivery to these action types; empty means all.
	Actions []string
	Client  *http.Client
}

func (w Webhook) Name() string { return "webhook" }

func (w Webhook) Notify(ctx context.Context, entry models.ActivityEntry) error {
	if w.URL == "" {
		return errors.New("webhook URL not set")
	}
	if len(w.Actions) > 0 && !slices.Contains(w.Actions, entry.ActionType) {
		return nil
	}
	payload := map[string]any{
		"text":  fmt.Sprintf("[%s] %s", entry.ActionType, entry.Description),
		"entry": entry,
	}
	if w.Channel != "" {
		payload["channel"] = w.Channel
	}
	if w.Username != "" {
		payload["username"] = w.Username
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Dispatcher delivers entries in the background so request handlers never wait on a webhook.
// Entries arriving while the queue is full are dropped.
type Dispatcher struct {
	reg *Registry
	log *slog.Logger
	ch  chan models.ActivityEntry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(reg *Registry, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{reg: reg, log: logger, ch: make(chan models.ActivityEntry, buffer), done: make(chan struct{})}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := d.reg.Broadcast(ctx, e); err != nil {
			d.log.Warn("notify failed", "entry_id", e.ID, "action", e.ActionType, "err", err)
		}
		cancel()
	}
}

// Enqueue queues entry and reports whether it was accepted.
func (d *Dispatcher) Enqueue(entry models.ActivityEntry) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.ch <- entry:
		return true
	default:
		d.log.Debug("notify queue full, dropping entry", "entry_id", entry.ID)
		return false
	}
}

// Close stops accepting entries and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	<-d.done
}
