package agent_test

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"ibhelm.app/agent/internal/agent"
	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

var _ = Describe("Processor", func() {
	var (
		ctx       context.Context
		triggers  *mockTriggerStore
		contexts  *mockContextSource
		llmClient *mockLLMClient
		messaging *mockMessaging
		processor *agent.Processor
		trigger   *model.Trigger
	)

	BeforeEach(func() {
		ctx = context.Background()
		triggers = &mockTriggerStore{}
		contexts = &mockContextSource{}
		llmClient = &mockLLMClient{}
		messaging = &mockMessaging{}
		trigger = &model.Trigger{
			ID:             "trig-1",
			ConversationID: "conv-1",
			CommentBody:    "@ai summarize",
			Status:         model.TriggerStatusProcessing,
		}

		processor = agent.NewProcessor(triggers, contexts, staticResolver("{trigger_instruction}"), llmClient, messaging)
	})

	Describe("Process", func() {
		Context("when the pipeline succeeds", func() {
			BeforeEach(func() {
				posts := 0
				messaging.createPostFn = func(_ context.Context, _, _ string) (string, error) {
					posts++
					if posts == 1 {
						return "placeholder-1", nil
					}
					return "result-1", nil
				}
				llmClient.completeFn = func(_ context.Context, systemPrompt, _ string) (string, error) {
					Expect(systemPrompt).To(Equal("summarize"))
					return "Done.", nil
				}
			})

			It("posts placeholder, result, and finalizes the trigger as done", func() {
				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				Expect(messaging.created).To(HaveLen(2))
				Expect(messaging.created[0]).To(ContainSubstring("Researching"))
				Expect(messaging.created[1]).To(Equal("Done."))
				Expect(messaging.deleted).To(Equal([]string{"placeholder-1"}))

				Expect(triggers.updates).To(HaveLen(2))
				Expect(triggers.updates[0].Status).To(Equal(model.TriggerStatusProcessing))
				Expect(*triggers.updates[0].PlaceholderPostID).To(Equal("placeholder-1"))

				final := triggers.updates[1]
				Expect(final.Status).To(Equal(model.TriggerStatusDone))
				Expect(*final.ResultPostID).To(Equal("result-1"))
				Expect(*final.ResultMarkdown).To(Equal("Done."))
			})
		})

		Context("when the placeholder post fails", func() {
			It("continues the pipeline without a placeholder", func() {
				posts := 0
				messaging.createPostFn = func(_ context.Context, _, _ string) (string, error) {
					posts++
					if posts == 1 {
						return "", errors.New("missive down")
					}
					return "result-1", nil
				}
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "Done.", nil
				}

				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				Expect(messaging.deleted).To(BeEmpty())
				Expect(triggers.updates).To(HaveLen(1))
				Expect(triggers.updates[0].Status).To(Equal(model.TriggerStatusDone))
			})
		})

		Context("when the completion fails", func() {
			BeforeEach(func() {
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "", errors.New("model overloaded")
				}
			})

			It("deletes the placeholder, posts an error notice and finalizes as error", func() {
				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				Expect(messaging.deleted).To(Equal([]string{"post-1"}))
				Expect(messaging.created).To(HaveLen(2))
				Expect(messaging.created[1]).To(ContainSubstring("AI temporarily unavailable"))
				Expect(messaging.created[1]).To(ContainSubstring("model overloaded"))

				final := triggers.updates[len(triggers.updates)-1]
				Expect(final.Status).To(Equal(model.TriggerStatusError))
				Expect(*final.ErrorMessage).To(ContainSubstring("model overloaded"))
				Expect(final.ResultPostID).NotTo(BeNil())
			})

			It("truncates long error details in the notice", func() {
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "", errors.New(strings.Repeat("x", 500))
				}

				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				notice := messaging.created[len(messaging.created)-1]
				Expect(len(notice)).To(BeNumerically("<", 250))

				// The stored error keeps the full text.
				final := triggers.updates[len(triggers.updates)-1]
				Expect(len(*final.ErrorMessage)).To(BeNumerically(">=", 500))
			})

			It("cuts multi-byte error text on character boundaries", func() {
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "", errors.New(strings.Repeat("ü", 300))
				}

				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				notice := messaging.created[len(messaging.created)-1]
				Expect(utf8.ValidString(notice)).To(BeTrue())
				Expect(notice).To(HaveSuffix("ü*"))
			})
		})

		Context("when the context build fails", func() {
			It("never calls the model", func() {
				contexts.buildFn = func(_ context.Context, _, _ string, _ *string) (*model.ConversationContext, error) {
					return nil, errors.New("db gone")
				}

				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				Expect(llmClient.callCount).To(BeZero())

				final := triggers.updates[len(triggers.updates)-1]
				Expect(final.Status).To(Equal(model.TriggerStatusError))
			})
		})

		Context("when posting the result fails", func() {
			It("records the delivery failure on the trigger", func() {
				posts := 0
				messaging.createPostFn = func(_ context.Context, _, markdown string) (string, error) {
					posts++
					switch posts {
					case 1:
						return "placeholder-1", nil
					case 2:
						return "", errors.New("rate limited")
					default:
						return "notice-1", nil
					}
				}
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "Done.", nil
				}

				err := processor.Process(ctx, trigger)

				Expect(err).NotTo(HaveOccurred())
				// Placeholder is deleted exactly once, before the result post.
				Expect(messaging.deleted).To(Equal([]string{"placeholder-1"}))

				final := triggers.updates[len(triggers.updates)-1]
				Expect(final.Status).To(Equal(model.TriggerStatusError))
				Expect(*final.ErrorMessage).To(ContainSubstring("rate limited"))
				Expect(*final.ResultPostID).To(Equal("notice-1"))
			})
		})

		Context("when finalization fails", func() {
			It("surfaces the error to the caller", func() {
				llmClient.completeFn = func(_ context.Context, _, _ string) (string, error) {
					return "Done.", nil
				}
				triggers.updateFn = func(_ context.Context, _ string, upd store.TriggerUpdate) error {
					if upd.Status == model.TriggerStatusDone {
						return errors.New("db gone")
					}
					return nil
				}

				err := processor.Process(ctx, trigger)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("finalizing"))
			})
		})
	})
})
