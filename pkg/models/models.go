// Package models provides shared types for the jet-dashboard HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
// All timestamps are Unix epoch milliseconds.
package models

import "encoding/json"

// KanbanCard is a task on the board. Order is only meaningful within its Status column.
type KanbanCard struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        *string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status      string  `json:"status" yaml:"status"`
	Priority    string  `json:"priority" yaml:"priority"`
	AutoPickup  bool    `json:"auto_pickup" yaml:"auto_pickup"`
	Order       int     `json:"order" yaml:"order"`
	CreatedDate int64   `json:"created_date" yaml:"created_date"`
	UpdatedDate int64   `json:"updated_date" yaml:"updated_date"`
}

// BrainCard is a "second brain" knowledge card.
type BrainCard struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Content     *string `json:"content,omitempty" yaml:"content,omitempty"`
	Tags        *string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category    *string `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedDate int64   `json:"created_date" yaml:"created_date"`
	UpdatedDate int64   `json:"updated_date" yaml:"updated_date"`
}

// Doc is a markdown document.
type Doc struct {
	ID        int64   `json:"id" yaml:"id"`
	Title     string  `json:"title" yaml:"title"`
	Content   string  `json:"content" yaml:"content"`
	Category  *string `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt int64   `json:"created_at" yaml:"created_at"`
	UpdatedAt int64   `json:"updated_at" yaml:"updated_at"`
}

// Note is a quick note left for the assistant. ProcessedAt is set when Seen becomes true.
type Note struct {
	ID          int64  `json:"id" yaml:"id"`
	Content     string `json:"content" yaml:"content"`
	Seen        bool   `json:"seen" yaml:"seen"`
	CreatedAt   int64  `json:"created_at" yaml:"created_at"`
	ProcessedAt *int64 `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
}

// ActivityEntry is one append-only log record. Metadata is kept exactly as received.
type ActivityEntry struct {
	ID          int64           `json:"id" yaml:"id"`
	Timestamp   int64           `json:"timestamp" yaml:"timestamp"`
	ActionType  string          `json:"action_type" yaml:"action_type"`
	Description string          `json:"description" yaml:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty" yaml:"-"`
}

// Status is the assistant's current state (singleton row).
type Status struct {
	ID        int64  `json:"id" yaml:"id"`
	Status    string `json:"status" yaml:"status"`
	LastSync  int64  `json:"last_sync" yaml:"last_sync"`
	UpdatedAt int64  `json:"updated_at" yaml:"updated_at"`
}

// Pagination describes a page of the activity log.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// LogPage is the GET /log response.
type LogPage struct {
	Logs       []ActivityEntry `json:"logs"`
	Pagination Pagination      `json:"pagination"`
}

// MoveResult is the POST /kanban/{id}/move response: the moved card plus every card whose order changed.
type MoveResult struct {
	Card    KanbanCard   `json:"card"`
	Changed []KanbanCard `json:"changed"`
}

// ChatMessage is one message in a chat session.
type ChatMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
}

// SessionActivity tracks unread replies for a chat session.
type SessionActivity struct {
	Unread       int    `json:"unread"`
	LastActivity string `json:"lastActivity"`
	LastMessage  string `json:"lastMessage,omitempty"`
}

// Bootstrap is the /bootstrap API response: everything the UI needs for its first render.
type Bootstrap struct {
	Config Config       `json:"config"`
	Kanban []KanbanCard `json:"kanban"`
	Brain  []BrainCard  `json:"brain"`
	Docs   []Doc        `json:"docs"`
	Notes  []Note       `json:"notes"`
	Status Status       `json:"status"`
	Log    LogPage      `json:"log"`
}

// Config is the /config API response.
type Config struct {
	Home        string `json:"home,omitempty"`
	BootstrapID string `json:"bootstrap_id,omitempty"`
	DBDriver    string `json:"db_driver,omitempty"`
}
