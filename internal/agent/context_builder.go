package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

const emailDetailLimit = 3

// triggerPattern locates the first mention of the agent and captures
// everything after it as the instruction.
var triggerPattern = regexp.MustCompile(`(?is)@ai\b\s*(.*)`)

// ContextBuilder assembles the immutable ConversationContext for one trigger.
// Missing optional data degrades to sentinel values; only storage failures
// abort the build.
type ContextBuilder struct {
	stores *store.Stores
}

func NewContextBuilder(stores *store.Stores) *ContextBuilder {
	return &ContextBuilder{stores: stores}
}

func (b *ContextBuilder) Build(ctx context.Context, conversationID, commentBody string, authorID *string) (*model.ConversationContext, error) {
	author, err := b.resolveAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	subject, url, err := b.resolveConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	projectName, projectID, err := b.resolveProject(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	count, err := b.stores.Messages.CountByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	metadata, err := b.stores.Messages.ListMetadata(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing message metadata: %w", err)
	}

	emails, err := b.stores.Messages.ListRecentDetail(ctx, conversationID, emailDetailLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent messages: %w", err)
	}

	comments, err := b.stores.Comments.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	cc := &model.ConversationContext{
		TriggerAuthor:       author,
		TriggerInstruction:  ExtractInstruction(commentBody),
		ConversationID:      conversationID,
		ConversationSubject: subject,
		ConversationURL:     url,
		ProjectName:         projectName,
		ProjectID:           projectID,
		Emails:              emails,
		EmailsMetadata:      metadata,
		EmailsCount:         count,
		Comments:            comments,
	}

	// Project-scoped fetches only run when a project is linked.
	if projectID != nil {
		if err := b.fillProjectData(ctx, cc, projectName, *projectID); err != nil {
			return nil, err
		}
	}

	return cc, nil
}

func (b *ContextBuilder) fillProjectData(ctx context.Context, cc *model.ConversationContext, projectName string, projectID int64) error {
	var err error

	if cc.Tasks, err = b.stores.Items.ListByCategory(ctx, projectName, store.CategoryTask); err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	if cc.Anforderungen, err = b.stores.Items.ListByCategory(ctx, projectName, store.CategoryRequirement); err != nil {
		return fmt.Errorf("listing anforderungen: %w", err)
	}
	if cc.Hinweise, err = b.stores.Items.ListByCategory(ctx, projectName, store.CategoryNote); err != nil {
		return fmt.Errorf("listing hinweise: %w", err)
	}
	if cc.Files, err = b.stores.Files.ListRecentByProject(ctx, projectID); err != nil {
		return fmt.Errorf("listing files: %w", err)
	}
	if cc.CraftDocs, err = b.stores.Documents.ListRecentByProject(ctx, projectID); err != nil {
		return fmt.Errorf("listing craft documents: %w", err)
	}

	return nil
}

func (b *ContextBuilder) resolveAuthor(ctx context.Context, authorID *string) (string, error) {
	if authorID == nil || *authorID == "" {
		return "Unknown", nil
	}

	name, err := b.stores.Users.GetName(ctx, *authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "Unknown", nil
		}
		return "", fmt.Errorf("resolving author: %w", err)
	}
	return name, nil
}

func (b *ContextBuilder) resolveConversation(ctx context.Context, conversationID string) (subject, url string, err error) {
	info, err := b.stores.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "(No subject)", "", nil
		}
		return "", "", fmt.Errorf("resolving conversation: %w", err)
	}

	subject = firstPresent("(No subject)", info.Subject, info.LatestMessageSubject)
	url = firstPresent("", info.WebURL)
	return subject, url, nil
}

func (b *ContextBuilder) resolveProject(ctx context.Context, conversationID string) (string, *int64, error) {
	name, id, err := b.stores.Projects.GetByConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "Not assigned", nil, nil
		}
		return "", nil, fmt.Errorf("resolving project: %w", err)
	}
	return name, &id, nil
}

// ExtractInstruction returns the text after the first case-insensitive @ai
// mention, trimmed. Without a mention it returns the empty string; the
// renderer substitutes its own sentinel in that case.
func ExtractInstruction(commentBody string) string {
	m := triggerPattern.FindStringSubmatch(commentBody)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// firstPresent evaluates candidate values in order and returns the first one
// that is set and non-empty, falling back otherwise. The subject and URL
// precedence chains run through here so the order stays testable.
func firstPresent(fallback string, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return fallback
}
