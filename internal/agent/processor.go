package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ibhelm.app/agent/common/llm"
	"ibhelm.app/agent/common/logger"
	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

const (
	placeholderMarkdown = "🤖 *Researching...*"
	errorNotice         = "❌ AI temporarily unavailable. Please try again later."
	errorDetailLimit    = 100
)

// MessagingClient is the conversation surface the processor posts to.
type MessagingClient interface {
	CreatePost(ctx context.Context, conversationID, markdown string) (string, error)
	DeletePost(ctx context.Context, postID string) error
}

// ContextSource assembles the conversation context for a trigger.
type ContextSource interface {
	Build(ctx context.Context, conversationID, commentBody string, authorID *string) (*model.ConversationContext, error)
}

// PromptResolver yields the system prompt template to render.
type PromptResolver interface {
	Resolve(ctx context.Context) string
}

// Processor runs the fulfillment pipeline for one claimed trigger: placeholder
// post, context build, prompt render, completion, result publication and
// finalization. Pipeline failures are absorbed into the trigger's error state;
// Process itself only errors when finalization cannot be persisted.
type Processor struct {
	triggers  store.TriggerStore
	contexts  ContextSource
	prompts   PromptResolver
	llm       llm.Client
	messaging MessagingClient

	now func() time.Time
}

func NewProcessor(triggers store.TriggerStore, contexts ContextSource, prompts PromptResolver, llmClient llm.Client, messaging MessagingClient) *Processor {
	return &Processor{
		triggers:  triggers,
		contexts:  contexts,
		prompts:   prompts,
		llm:       llmClient,
		messaging: messaging,
		now:       time.Now,
	}
}

func (p *Processor) Process(ctx context.Context, trigger *model.Trigger) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TriggerID:      logger.Str(trigger.ID),
		ConversationID: logger.Str(trigger.ConversationID),
		Component:      "agent.processor",
	})

	slog.InfoContext(ctx, "processing trigger")

	// The placeholder is best effort: a conversation without the interim
	// message is still serviceable, so a failed post does not abort the run.
	placeholderID := ""
	if id, err := p.messaging.CreatePost(ctx, trigger.ConversationID, placeholderMarkdown); err != nil {
		slog.WarnContext(ctx, "placeholder post failed", "error", err)
	} else {
		placeholderID = id
		if err := p.triggers.Update(ctx, trigger.ID, store.TriggerUpdate{
			Status:            model.TriggerStatusProcessing,
			PlaceholderPostID: &placeholderID,
		}); err != nil {
			slog.WarnContext(ctx, "recording placeholder failed", "error", err, "post_id", placeholderID)
		}
	}

	response, err := p.run(ctx, trigger)
	if err != nil {
		return p.fail(ctx, trigger, placeholderID, err)
	}
	return p.succeed(ctx, trigger, placeholderID, response)
}

// run is the fallible middle of the pipeline.
func (p *Processor) run(ctx context.Context, trigger *model.Trigger) (string, error) {
	cc, err := p.contexts.Build(ctx, trigger.ConversationID, trigger.CommentBody, trigger.AuthorID)
	if err != nil {
		return "", fmt.Errorf("building context: %w", err)
	}

	prompt := Render(p.prompts.Resolve(ctx), cc, p.now())

	response, err := p.llm.Complete(ctx, prompt, llm.DefaultUserMessage)
	if err != nil {
		return "", fmt.Errorf("completing: %w", err)
	}
	return response, nil
}

func (p *Processor) succeed(ctx context.Context, trigger *model.Trigger, placeholderID, response string) error {
	p.removePlaceholder(ctx, placeholderID)

	resultID, err := p.messaging.CreatePost(ctx, trigger.ConversationID, response)
	if err != nil {
		// The answer exists but could not be delivered. Route through the
		// failure path so the trigger records the delivery error; the
		// placeholder is already gone.
		return p.fail(ctx, trigger, "", fmt.Errorf("posting result: %w", err))
	}

	if err := p.triggers.Update(ctx, trigger.ID, store.TriggerUpdate{
		Status:         model.TriggerStatusDone,
		ResultPostID:   &resultID,
		ResultMarkdown: &response,
	}); err != nil {
		return fmt.Errorf("finalizing trigger %s: %w", trigger.ID, err)
	}

	slog.InfoContext(ctx, "trigger completed", "result_post_id", resultID)
	return nil
}

func (p *Processor) fail(ctx context.Context, trigger *model.Trigger, placeholderID string, cause error) error {
	slog.ErrorContext(ctx, "trigger processing failed",
		"error", cause,
		"failure_kind", string(llm.KindOf(cause)))

	p.removePlaceholder(ctx, placeholderID)

	notice := fmt.Sprintf("%s\n\n*Error: %s*", errorNotice, truncate(cause.Error(), errorDetailLimit))
	noticeID, postErr := p.messaging.CreatePost(ctx, trigger.ConversationID, notice)
	if postErr != nil {
		slog.WarnContext(ctx, "error notice post failed", "error", postErr)
	}

	upd := store.TriggerUpdate{
		Status:       model.TriggerStatusError,
		ErrorMessage: logger.Str(cause.Error()),
	}
	if noticeID != "" {
		upd.ResultPostID = &noticeID
	}
	if err := p.triggers.Update(ctx, trigger.ID, upd); err != nil {
		return fmt.Errorf("finalizing failed trigger %s: %w", trigger.ID, err)
	}
	return nil
}

// removePlaceholder deletes the interim post if one was created. Deletion
// failures are logged and swallowed: a stale placeholder is cosmetic.
func (p *Processor) removePlaceholder(ctx context.Context, placeholderID string) {
	if placeholderID == "" {
		return
	}
	if err := p.messaging.DeletePost(ctx, placeholderID); err != nil {
		slog.WarnContext(ctx, "placeholder delete failed", "error", err, "post_id", placeholderID)
	}
}

// truncate caps s at limit characters on a rune boundary.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
