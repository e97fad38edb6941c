package models

// Kanban card statuses (board columns), in display order.
const (
	StatusBacklog    = "backlog"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// KanbanStatuses lists the board columns left to right.
var KanbanStatuses = []string{StatusBacklog, StatusInProgress, StatusReview, StatusDone}

// Kanban card priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Assistant states accepted by the status tracker. The capitalised set is the
// dashboard's; the lowercase set is what the avatar UI reports.
const (
	StateIdle     = "Idle"
	StateThinking = "Thinking"
	StateWorking  = "Working"
	StateSleeping = "Sleeping"

	UIStateIdle      = "idle"
	UIStateWorking   = "working"
	UIStateThinking  = "thinking"
	UIStateError     = "error"
	UIStateListening = "listening"
	UIStateSpeaking  = "speaking"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Activity action types written by the server itself.
const (
	ActionCardCreated     = "card_created"
	ActionCardUpdated     = "card_updated"
	ActionCardMoved       = "card_moved"
	ActionCardDeleted     = "card_deleted"
	ActionColumnReordered = "column_reordered"
	ActionBrainCreated    = "brain_created"
	ActionBrainUpdated    = "brain_updated"
	ActionBrainDeleted    = "brain_deleted"
	ActionDocCreated      = "doc_created"
	ActionDocUpdated      = "doc_updated"
	ActionDocDeleted      = "doc_deleted"
	ActionDocsImported    = "docs_imported"
	ActionNoteCreated     = "note_created"
	ActionNoteProcessed   = "note_processed"
	ActionNoteDeleted     = "note_deleted"
	ActionStatusChanged   = "status_changed"
	ActionSeedData        = "seed_data"
	ActionChatInteraction = "chat_interaction"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultLogPageLimit        = 50
	MaxLogPageLimit            = 500
	DefaultSSEChannelBuffer    = 256
)
