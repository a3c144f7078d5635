package agent_test

import (
	"context"
	"errors"

	"ibhelm.app/agent/internal/agent"
	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

// mockTriggerStore implements store.TriggerStore for testing.
type mockTriggerStore struct {
	claimNextFn func(ctx context.Context) (*model.Trigger, error)
	updateFn    func(ctx context.Context, id string, upd store.TriggerUpdate) error

	updates []store.TriggerUpdate
}

func (m *mockTriggerStore) ClaimNext(ctx context.Context) (*model.Trigger, error) {
	if m.claimNextFn != nil {
		return m.claimNextFn(ctx)
	}
	return nil, store.ErrNoPendingTriggers
}

func (m *mockTriggerStore) Update(ctx context.Context, id string, upd store.TriggerUpdate) error {
	m.updates = append(m.updates, upd)
	if m.updateFn != nil {
		return m.updateFn(ctx, id, upd)
	}
	return nil
}

// mockMessaging implements agent.MessagingClient for testing.
type mockMessaging struct {
	createPostFn func(ctx context.Context, conversationID, markdown string) (string, error)
	deletePostFn func(ctx context.Context, postID string) error

	created []string // markdown of each created post, in order
	deleted []string // ids of each deleted post, in order
}

func (m *mockMessaging) CreatePost(ctx context.Context, conversationID, markdown string) (string, error) {
	m.created = append(m.created, markdown)
	if m.createPostFn != nil {
		return m.createPostFn(ctx, conversationID, markdown)
	}
	return "post-1", nil
}

func (m *mockMessaging) DeletePost(ctx context.Context, postID string) error {
	m.deleted = append(m.deleted, postID)
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, postID)
	}
	return nil
}

// mockContextSource implements agent.ContextSource for testing.
type mockContextSource struct {
	buildFn func(ctx context.Context, conversationID, commentBody string, authorID *string) (*model.ConversationContext, error)
}

func (m *mockContextSource) Build(ctx context.Context, conversationID, commentBody string, authorID *string) (*model.ConversationContext, error) {
	if m.buildFn != nil {
		return m.buildFn(ctx, conversationID, commentBody, authorID)
	}
	return &model.ConversationContext{
		TriggerAuthor:       "Unknown",
		TriggerInstruction:  agent.ExtractInstruction(commentBody),
		ConversationID:      conversationID,
		ConversationSubject: "(No subject)",
		ProjectName:         "Not assigned",
	}, nil
}

// mockLLMClient implements llm.Client for testing.
type mockLLMClient struct {
	completeFn func(ctx context.Context, systemPrompt, userMessage string) (string, error)
	callCount  int
}

func (m *mockLLMClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.callCount++
	if m.completeFn != nil {
		return m.completeFn(ctx, systemPrompt, userMessage)
	}
	return "", errors.New("mock not configured")
}

func (m *mockLLMClient) Model() string {
	return "test-model"
}

// staticResolver implements agent.PromptResolver for testing.
type staticResolver string

func (r staticResolver) Resolve(context.Context) string {
	return string(r)
}

// mockPromptStore implements store.PromptStore for testing.
type mockPromptStore struct {
	getFn func(ctx context.Context) (string, error)
}

func (m *mockPromptStore) GetSystemPrompt(ctx context.Context) (string, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return "", store.ErrNotFound
}

// Fake stores for the context builder. Each one wraps a fn field so specs
// configure exactly the calls they expect.

type fakeUserStore struct {
	getNameFn func(ctx context.Context, id string) (string, error)
}

func (f *fakeUserStore) GetName(ctx context.Context, id string) (string, error) {
	if f.getNameFn != nil {
		return f.getNameFn(ctx, id)
	}
	return "", store.ErrNotFound
}

type fakeConversationStore struct {
	getByIDFn func(ctx context.Context, id string) (*store.ConversationInfo, error)
}

func (f *fakeConversationStore) GetByID(ctx context.Context, id string) (*store.ConversationInfo, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

type fakeProjectStore struct {
	getByConversationFn func(ctx context.Context, conversationID string) (string, int64, error)
}

func (f *fakeProjectStore) GetByConversation(ctx context.Context, conversationID string) (string, int64, error) {
	if f.getByConversationFn != nil {
		return f.getByConversationFn(ctx, conversationID)
	}
	return "", 0, store.ErrNotFound
}

type fakeMessageStore struct {
	countFn    func(ctx context.Context, conversationID string) (int, error)
	metadataFn func(ctx context.Context, conversationID string) ([]model.EmailMeta, error)
	detailFn   func(ctx context.Context, conversationID string, limit int) ([]model.EmailInfo, error)
}

func (f *fakeMessageStore) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, conversationID)
	}
	return 0, nil
}

func (f *fakeMessageStore) ListMetadata(ctx context.Context, conversationID string) ([]model.EmailMeta, error) {
	if f.metadataFn != nil {
		return f.metadataFn(ctx, conversationID)
	}
	return nil, nil
}

func (f *fakeMessageStore) ListRecentDetail(ctx context.Context, conversationID string, limit int) ([]model.EmailInfo, error) {
	if f.detailFn != nil {
		return f.detailFn(ctx, conversationID, limit)
	}
	return nil, nil
}

type fakeCommentStore struct {
	listFn func(ctx context.Context, conversationID string) ([]model.CommentInfo, error)
}

func (f *fakeCommentStore) ListByConversation(ctx context.Context, conversationID string) ([]model.CommentInfo, error) {
	if f.listFn != nil {
		return f.listFn(ctx, conversationID)
	}
	return nil, nil
}

type fakeItemStore struct {
	listFn func(ctx context.Context, projectName string, category store.ItemCategory) ([]model.ItemInfo, error)

	categories []store.ItemCategory
}

func (f *fakeItemStore) ListByCategory(ctx context.Context, projectName string, category store.ItemCategory) ([]model.ItemInfo, error) {
	f.categories = append(f.categories, category)
	if f.listFn != nil {
		return f.listFn(ctx, projectName, category)
	}
	return nil, nil
}

type fakeFileStore struct {
	listFn func(ctx context.Context, projectID int64) ([]model.FileInfo, error)
}

func (f *fakeFileStore) ListRecentByProject(ctx context.Context, projectID int64) ([]model.FileInfo, error) {
	if f.listFn != nil {
		return f.listFn(ctx, projectID)
	}
	return nil, nil
}

type fakeDocumentStore struct {
	listFn func(ctx context.Context, projectID int64) ([]model.CraftDocInfo, error)
}

func (f *fakeDocumentStore) ListRecentByProject(ctx context.Context, projectID int64) ([]model.CraftDocInfo, error) {
	if f.listFn != nil {
		return f.listFn(ctx, projectID)
	}
	return nil, nil
}
