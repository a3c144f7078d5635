package store

import (
	"context"
	"errors"

	"ibhelm.app/agent/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrNoPendingTriggers is the normal empty-queue signal from ClaimNext.
// It is not a failure and must not be treated as one.
var ErrNoPendingTriggers = errors.New("no pending triggers")

// TriggerUpdate carries the optional fields of a partial trigger update.
// Nil fields preserve the stored value.
type TriggerUpdate struct {
	Status            model.TriggerStatus
	PlaceholderPostID *string
	ResultPostID      *string
	ResultMarkdown    *string
	ErrorMessage      *string
}

// TriggerStore is the persistence boundary for the work queue.
type TriggerStore interface {
	// ClaimNext atomically claims the oldest pending trigger: it moves the
	// row to processing, stamps processed_at and returns the full record.
	// Rows locked by a concurrent claimer are skipped, never waited on.
	// Returns ErrNoPendingTriggers when the pending set is empty.
	ClaimNext(ctx context.Context) (*model.Trigger, error)

	// Update applies a partial update. processed_at is always refreshed;
	// rows already in a terminal status are never transitioned out.
	Update(ctx context.Context, id string, upd TriggerUpdate) error
}

// UserStore resolves author display names.
type UserStore interface {
	GetName(ctx context.Context, id string) (string, error)
}

// ConversationInfo is the raw conversation row; subject fallback is applied
// by the context builder, not here.
type ConversationInfo struct {
	Subject              *string
	LatestMessageSubject *string
	WebURL               *string
}

type ConversationStore interface {
	GetByID(ctx context.Context, id string) (*ConversationInfo, error)
}

type ProjectStore interface {
	// GetByConversation returns the single project linked to a conversation,
	// or ErrNotFound when none is linked.
	GetByConversation(ctx context.Context, conversationID string) (name string, id int64, err error)
}

type MessageStore interface {
	CountByConversation(ctx context.Context, conversationID string) (int, error)
	// ListMetadata returns lightweight entries for all messages, newest first.
	ListMetadata(ctx context.Context, conversationID string) ([]model.EmailMeta, error)
	// ListRecentDetail returns at most limit messages with bodies, newest
	// first; bodies longer than model.EmailBodyLimit are truncated with "...".
	ListRecentDetail(ctx context.Context, conversationID string, limit int) ([]model.EmailInfo, error)
}

type CommentStore interface {
	// ListByConversation returns all comments oldest first (narrative order).
	ListByConversation(ctx context.Context, conversationID string) ([]model.CommentInfo, error)
}

// ItemCategory discriminates the three task-like lists.
type ItemCategory string

const (
	CategoryTask        ItemCategory = "other"
	CategoryRequirement ItemCategory = "info"
	CategoryNote        ItemCategory = "todo"
)

type ItemStore interface {
	// ListByCategory returns at most 10 items for a project and category,
	// most recently updated first, with assignees normalized to a display
	// string at this boundary.
	ListByCategory(ctx context.Context, projectName string, category ItemCategory) ([]model.ItemInfo, error)
}

type FileStore interface {
	// ListRecentByProject returns at most 10 non-deleted files, most
	// recently updated first.
	ListRecentByProject(ctx context.Context, projectID int64) ([]model.FileInfo, error)
}

type DocumentStore interface {
	// ListRecentByProject returns at most 10 non-deleted Craft documents,
	// most recently modified first.
	ListRecentByProject(ctx context.Context, projectID int64) ([]model.CraftDocInfo, error)
}

// PromptStore reads the operator-configured system prompt override.
type PromptStore interface {
	// GetSystemPrompt returns ErrNotFound when no override is configured.
	GetSystemPrompt(ctx context.Context) (string, error)
}
