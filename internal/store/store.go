package store

import "github.com/jackc/pgx/v5/pgxpool"

// Stores bundles all store implementations over one connection pool.
type Stores struct {
	Triggers      TriggerStore
	Users         UserStore
	Conversations ConversationStore
	Projects      ProjectStore
	Messages      MessageStore
	Comments      CommentStore
	Items         ItemStore
	Files         FileStore
	Documents     DocumentStore
	Prompts       PromptStore
}

func New(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Triggers:      newTriggerStore(pool),
		Users:         newUserStore(pool),
		Conversations: newConversationStore(pool),
		Projects:      newProjectStore(pool),
		Messages:      newMessageStore(pool),
		Comments:      newCommentStore(pool),
		Items:         newItemStore(pool),
		Files:         newFileStore(pool),
		Documents:     newDocumentStore(pool),
		Prompts:       newPromptStore(pool),
	}
}
