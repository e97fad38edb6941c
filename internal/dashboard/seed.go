package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/store"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/pkg/models"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedData is the content loaded by Seed.
type SeedData struct {
	Tasks []SeedTask  `yaml:"tasks"`
	Brain []SeedBrain `yaml:"brain"`
}

// SeedTask becomes a kanban card; Labels are stored as a JSON array in tags.
type SeedTask struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	AutoPickup  bool     `yaml:"auto_pickup"`
	Labels      []string `yaml:"labels"`
}

// SeedBrain becomes a brain card.
type SeedBrain struct {
	Title    string   `yaml:"title"`
	Content  string   `yaml:"content"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Cards      int    `json:"cards"`
	BrainCards int    `json:"brain_cards"`
	Message    string `json:"message"`
}

// DefaultSeed returns the built-in seed data.
func DefaultSeed() (SeedData, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads seed data from a YAML file.
func LoadSeed(path string) (SeedData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, err
	}
	return ParseSeed(b)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(b []byte) (SeedData, error) {
	var d SeedData
	if err := yaml.Unmarshal(b, &d); err != nil {
		return SeedData{}, fmt.Errorf("parse seed: %w", err)
	}
	return d, nil
}

func (d SeedData) validate() error {
	for i, t := range d.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return invalid(fmt.Sprintf("tasks[%d].title", i), "Title is required")
		}
		if t.Status != "" && !ValidCardStatus(t.Status) {
			return invalid(fmt.Sprintf("tasks[%d].status", i), "Invalid card status")
		}
		if t.Priority != "" && !ValidPriority(t.Priority) {
			return invalid(fmt.Sprintf("tasks[%d].priority", i), "Invalid priority")
		}
	}
	for i, c := range d.Brain {
		if strings.TrimSpace(c.Title) == "" {
			return invalid(fmt.Sprintf("brain[%d].title", i), "Title is required")
		}
	}
	return nil
}

// Seed replaces every kanban and brain card with data and records a seed_data entry.
// Cards are numbered from 1 and ordered within each column as listed.
func (b *Board) Seed(ctx context.Context, data SeedData) (SeedResult, error) {
	if err := data.validate(); err != nil {
		return SeedResult{}, err
	}

	b.kanban.mu.Lock()
	b.brain.mu.Lock()
	now := b.nowMillis()
	cards := make([]models.KanbanCard, 0, len(data.Tasks))
	next := map[string]int{}
	for i, t := range data.Tasks {
		status := t.Status
		if status == "" {
			status = models.StatusBacklog
		}
		priority := t.Priority
		if priority == "" {
			priority = models.PriorityMedium
		}
		c := models.KanbanCard{
			ID:          int64(i + 1),
			Title:       strings.TrimSpace(t.Title),
			Description: optional(t.Description),
			Tags:        jsonList(t.Labels),
			Status:      status,
			Priority:    priority,
			AutoPickup:  t.AutoPickup,
			Order:       next[status],
			CreatedDate: now,
			UpdatedDate: now,
		}
		next[status]++
		cards = append(cards, c)
	}
	brain := make([]models.BrainCard, 0, len(data.Brain))
	for i, s := range data.Brain {
		brain = append(brain, models.BrainCard{
			ID:          int64(i + 1),
			Title:       strings.TrimSpace(s.Title),
			Content:     optional(s.Content),
			Tags:        jsonList(s.Tags),
			Category:    optional(s.Category),
			CreatedDate: now,
			UpdatedDate: now,
		})
	}
	b.kanban.reset(cards)
	b.brain.reset(brain)

	errs := []error{b.flushed(ctx, "seed", store.CollectionKanban, b.st.Reset(ctx, store.CollectionKanban, store.CollectionBrain))}
	errs = append(errs, b.flushed(ctx, "seed", store.CollectionKanban, b.st.SaveKanbanCards(ctx, cards...)))
	for _, c := range brain {
		errs = append(errs, b.flushed(ctx, "seed", store.CollectionBrain, b.st.SaveBrainCard(ctx, c)))
	}
	b.brain.mu.Unlock()
	b.kanban.mu.Unlock()

	res := SeedResult{
		Cards:      len(cards),
		BrainCards: len(brain),
		Message:    fmt.Sprintf("Seeded %d Jet kanban cards and %d brain cards", len(cards), len(brain)),
	}
	b.publish(EventCard, Change{Action: "seeded", Data: len(cards)})
	b.publish(EventBrain, Change{Action: "seeded", Data: len(brain)})
	errs = append(errs, b.record(ctx, models.ActionSeedData,
		fmt.Sprintf("Populated dashboard with %d Jet tasks and %d brain cards for AI assistant workflow", len(cards), len(brain)),
		nil))
	return res, firstErr(errs...)
}

// Snapshot is a point-in-time copy of every collection, used by export.
type Snapshot struct {
	ExportedAt int64               `yaml:"exported_at" json:"exported_at"`
	Driver     string              `yaml:"driver" json:"driver"`
	Status     models.Status       `yaml:"status" json:"status"`
	Kanban     []models.KanbanCard `yaml:"kanban" json:"kanban"`
	Brain      []models.BrainCard  `yaml:"brain" json:"brain"`
	Docs       []models.Doc        `yaml:"docs" json:"docs"`
	Notes      []models.Note       `yaml:"notes" json:"notes"`
	Activity   []SnapshotEntry     `yaml:"activity" json:"activity"`
}

// SnapshotEntry is an activity entry with its metadata as text.
type SnapshotEntry struct {
	ID          int64  `yaml:"id" json:"id"`
	Timestamp   int64  `yaml:"timestamp" json:"timestamp"`
	ActionType  string `yaml:"action_type" json:"action_type"`
	Description string `yaml:"description" json:"description"`
	Metadata    string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Snapshot copies every collection. Collections are read one at a time, so a snapshot taken during
// writes may mix states across collections but never within one.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		ExportedAt: b.nowMillis(),
		Driver:     b.Driver(),
		Status:     b.GetStatus(),
		Kanban:     b.ListCards(Filter{}),
		Brain:      b.ListBrain(Filter{}),
		Docs:       b.ListDocs(Filter{}),
		Notes:      b.ListNotes(Filter{}),
	}
	b.activity.mu.RLock()
	for _, e := range b.activity.all() {
		s.Activity = append(s.Activity, SnapshotEntry{
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			ActionType:  e.ActionType,
			Description: e.Description,
			Metadata:    string(e.Metadata),
		})
	}
	b.activity.mu.RUnlock()
	return s
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func jsonList(items []string) *string {
	if len(items) == 0 {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
