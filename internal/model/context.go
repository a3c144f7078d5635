package model

// EmailBodyLimit caps the characters of message body carried into the
// context for each of the recent messages.
const EmailBodyLimit = 2000

// EmailInfo is one of the most recent messages with its (truncated) body.
type EmailInfo struct {
	ID          string
	Subject     string
	FromName    string
	FromEmail   string
	DeliveredAt string
	Body        string // truncated to EmailBodyLimit chars
}

// EmailMeta is the lightweight listing entry carried for every message in
// the conversation, regardless of the detail cap.
type EmailMeta struct {
	ID          string
	Subject     string
	FromName    string
	FromEmail   string
	DeliveredAt string
}

type CommentInfo struct {
	AuthorName string
	CreatedAt  string
	Body       string
}

// ItemInfo is a task-like record (task, requirement or note) from the
// unified items view. AssignedTo is already normalized to a display string.
type ItemInfo struct {
	ID         int64
	Name       string
	Status     string
	AssignedTo string
	UpdatedAt  string
	Tasklist   string
}

type FileInfo struct {
	Name      string
	Path      string
	UpdatedAt string
}

type CraftDocInfo struct {
	ID         string
	Title      string
	ModifiedAt string
}

// ConversationContext is the immutable snapshot assembled once per trigger.
// Optional associations degrade to sentinel values here so the renderer
// never has to deal with nulls.
type ConversationContext struct {
	TriggerAuthor      string
	TriggerInstruction string

	ConversationID      string
	ConversationSubject string
	ConversationURL     string

	ProjectName string // "Not assigned" when no project is linked
	ProjectID   *int64

	Emails         []EmailInfo
	EmailsMetadata []EmailMeta
	EmailsCount    int

	Comments []CommentInfo

	Tasks         []ItemInfo
	Anforderungen []ItemInfo
	Hinweise      []ItemInfo

	Files     []FileInfo
	CraftDocs []CraftDocInfo
}
