package agent_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"ibhelm.app/agent/common/logger"
	"ibhelm.app/agent/internal/agent"
	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

var _ = Describe("ContextBuilder", func() {
	var (
		ctx       context.Context
		users     *fakeUserStore
		convs     *fakeConversationStore
		projects  *fakeProjectStore
		messages  *fakeMessageStore
		comments  *fakeCommentStore
		items     *fakeItemStore
		files     *fakeFileStore
		documents *fakeDocumentStore
		builder   *agent.ContextBuilder
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = &fakeUserStore{}
		convs = &fakeConversationStore{}
		projects = &fakeProjectStore{}
		messages = &fakeMessageStore{}
		comments = &fakeCommentStore{}
		items = &fakeItemStore{}
		files = &fakeFileStore{}
		documents = &fakeDocumentStore{}

		builder = agent.NewContextBuilder(&store.Stores{
			Users:         users,
			Conversations: convs,
			Projects:      projects,
			Messages:      messages,
			Comments:      comments,
			Items:         items,
			Files:         files,
			Documents:     documents,
		})
	})

	Context("when every association is missing", func() {
		It("degrades to sentinel values instead of failing", func() {
			cc, err := builder.Build(ctx, "conv-1", "no mention here", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.TriggerAuthor).To(Equal("Unknown"))
			Expect(cc.TriggerInstruction).To(BeEmpty())
			Expect(cc.ConversationSubject).To(Equal("(No subject)"))
			Expect(cc.ConversationURL).To(BeEmpty())
			Expect(cc.ProjectName).To(Equal("Not assigned"))
			Expect(cc.ProjectID).To(BeNil())
			Expect(cc.EmailsCount).To(BeZero())
		})

		It("skips the project-scoped fetches", func() {
			_, err := builder.Build(ctx, "conv-1", "", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(items.categories).To(BeEmpty())
		})
	})

	Context("when the conversation has no subject of its own", func() {
		It("falls back to the latest message subject", func() {
			convs.getByIDFn = func(_ context.Context, _ string) (*store.ConversationInfo, error) {
				return &store.ConversationInfo{
					LatestMessageSubject: logger.Str("Re: Angebot"),
					WebURL:               logger.Str("https://mail.missiveapp.com/#inbox/conversations/conv-1"),
				}, nil
			}

			cc, err := builder.Build(ctx, "conv-1", "", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.ConversationSubject).To(Equal("Re: Angebot"))
			Expect(cc.ConversationURL).To(Equal("https://mail.missiveapp.com/#inbox/conversations/conv-1"))
		})
	})

	Context("when the trigger author exists", func() {
		It("resolves the display name and instruction", func() {
			users.getNameFn = func(_ context.Context, id string) (string, error) {
				Expect(id).To(Equal("user-7"))
				return "Anna Schmidt", nil
			}

			cc, err := builder.Build(ctx, "conv-1", "please @ai summarize this", logger.Str("user-7"))

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.TriggerAuthor).To(Equal("Anna Schmidt"))
			Expect(cc.TriggerInstruction).To(Equal("summarize this"))
		})
	})

	Context("when a project is linked", func() {
		BeforeEach(func() {
			projects.getByConversationFn = func(_ context.Context, _ string) (string, int64, error) {
				return "Neubau Halle 3", 42, nil
			}
		})

		It("fetches all three item categories plus files and documents", func() {
			items.listFn = func(_ context.Context, projectName string, category store.ItemCategory) ([]model.ItemInfo, error) {
				Expect(projectName).To(Equal("Neubau Halle 3"))
				return []model.ItemInfo{{ID: 1, Name: string(category)}}, nil
			}
			files.listFn = func(_ context.Context, projectID int64) ([]model.FileInfo, error) {
				Expect(projectID).To(Equal(int64(42)))
				return []model.FileInfo{{Name: "plan.pdf"}}, nil
			}
			documents.listFn = func(_ context.Context, projectID int64) ([]model.CraftDocInfo, error) {
				return []model.CraftDocInfo{{ID: "d1", Title: "Spec"}}, nil
			}

			cc, err := builder.Build(ctx, "conv-1", "", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.ProjectName).To(Equal("Neubau Halle 3"))
			Expect(*cc.ProjectID).To(Equal(int64(42)))
			Expect(items.categories).To(Equal([]store.ItemCategory{
				store.CategoryTask,
				store.CategoryRequirement,
				store.CategoryNote,
			}))
			Expect(cc.Tasks).To(HaveLen(1))
			Expect(cc.Files).To(HaveLen(1))
			Expect(cc.CraftDocs).To(HaveLen(1))
		})
	})

	Context("when the conversation holds more messages than the detail cap", func() {
		It("carries full metadata but capped detail", func() {
			convs.getByIDFn = func(_ context.Context, _ string) (*store.ConversationInfo, error) {
				return &store.ConversationInfo{Subject: logger.Str("Re: Angebot")}, nil
			}
			messages.countFn = func(_ context.Context, _ string) (int, error) {
				return 5, nil
			}
			messages.metadataFn = func(_ context.Context, _ string) ([]model.EmailMeta, error) {
				return make([]model.EmailMeta, 5), nil
			}
			messages.detailFn = func(_ context.Context, _ string, limit int) ([]model.EmailInfo, error) {
				Expect(limit).To(Equal(3))
				return make([]model.EmailInfo, 3), nil
			}

			cc, err := builder.Build(ctx, "conv-1", "", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.EmailsCount).To(Equal(5))
			Expect(cc.EmailsMetadata).To(HaveLen(5))
			Expect(cc.Emails).To(HaveLen(3))
		})
	})

	Context("when a storage fetch fails", func() {
		It("aborts the build", func() {
			boom := errors.New("connection reset")
			comments.listFn = func(_ context.Context, _ string) ([]model.CommentInfo, error) {
				return nil, boom
			}

			cc, err := builder.Build(ctx, "conv-1", "", nil)

			Expect(err).To(MatchError(boom))
			Expect(cc).To(BeNil())
		})
	})
})
