package model

import "time"

type TriggerStatus string

const (
	TriggerStatusPending    TriggerStatus = "pending"
	TriggerStatusProcessing TriggerStatus = "processing"
	TriggerStatusDone       TriggerStatus = "done"
	TriggerStatusError      TriggerStatus = "error"
)

// Terminal reports whether no further transitions are permitted.
func (s TriggerStatus) Terminal() bool {
	return s == TriggerStatusDone || s == TriggerStatusError
}

// CanTransitionTo reports whether the status machine permits moving to next.
// Re-writing the current status is allowed while non-terminal so partial
// updates (recording the placeholder mid-processing) stay valid.
func (s TriggerStatus) CanTransitionTo(next TriggerStatus) bool {
	if s.Terminal() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case TriggerStatusPending:
		return next == TriggerStatusProcessing
	case TriggerStatusProcessing:
		return next == TriggerStatusDone || next == TriggerStatusError
	default:
		return false
	}
}

// Trigger is one queued "please respond" request tied to a conversation.
// Rows are created upstream when someone mentions the agent in a comment;
// this worker only ever claims and finalizes them, never deletes them.
type Trigger struct {
	ID             string
	ConversationID string
	CommentBody    string
	AuthorID       *string

	Status            TriggerStatus
	PlaceholderPostID *string
	ResultPostID      *string
	ResultMarkdown    *string
	ErrorMessage      *string

	CreatedAt   time.Time
	ProcessedAt *time.Time
}
