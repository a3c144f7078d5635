package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ibhelm.app/agent/internal/model"
)

// placeholderPattern is the closed template syntax: {word}.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// berlin is the fixed rendering timezone for {current_datetime}.
var berlin = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Render substitutes {name} placeholders in the template from the context.
// It is a pure function: the same template, context and clock value always
// produce byte-identical output. Placeholders outside the vocabulary render
// as {unknown:name} so template drift is visible in the output instead of
// silently disappearing.
func Render(template string, c *model.ConversationContext, now time.Time) string {
	projectID := ""
	if c.ProjectID != nil {
		projectID = strconv.FormatInt(*c.ProjectID, 10)
	}

	instruction := c.TriggerInstruction
	if instruction == "" {
		instruction = "(no specific instruction)"
	}

	variables := map[string]string{
		"current_datetime":     now.In(berlin).Format("Monday, 02 January 2006, 15:04"),
		"trigger_author":       c.TriggerAuthor,
		"trigger_instruction":  instruction,
		"conversation_subject": c.ConversationSubject,
		"conversation_url":     c.ConversationURL,
		"project_name":         c.ProjectName,
		"project_id":           projectID,
		"emails_summary":       formatEmailsSummary(c.Emails),
		"emails_metadata":      formatEmailsMetadata(c.EmailsMetadata),
		"emails_count":         strconv.Itoa(c.EmailsCount),
		"comments":             formatComments(c.Comments),
		"tasks":                formatItems(c.Tasks, "Tasks"),
		"anforderungen":        formatItems(c.Anforderungen, "Anforderungen"),
		"hinweise":             formatItems(c.Hinweise, "Hinweise"),
		"files":                formatFiles(c.Files),
		"craft_docs":           formatCraftDocs(c.CraftDocs),
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := variables[name]; ok {
			return value
		}
		return "{unknown:" + name + "}"
	})
}

func formatEmailsSummary(emails []model.EmailInfo) string {
	if len(emails) == 0 {
		return "(No emails in conversation)"
	}

	var sb strings.Builder
	for i, email := range emails {
		fmt.Fprintf(&sb, "--- Email %d ---\n", i+1)
		fmt.Fprintf(&sb, "ID: %s\n", email.ID)
		fmt.Fprintf(&sb, "From: %s <%s>\n", email.FromName, email.FromEmail)
		fmt.Fprintf(&sb, "Subject: %s\n", email.Subject)
		fmt.Fprintf(&sb, "Date: %s\n", email.DeliveredAt)
		fmt.Fprintf(&sb, "Body:\n%s\n", email.Body)
		if i < len(emails)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatEmailsMetadata(metadata []model.EmailMeta) string {
	if len(metadata) == 0 {
		return "(No emails)"
	}

	lines := make([]string, 0, len(metadata))
	for _, m := range metadata {
		lines = append(lines, fmt.Sprintf("- [%s...] %s | %s | %s",
			prefix(m.ID, 8), prefix(m.DeliveredAt, 10), m.FromName, m.Subject))
	}
	return strings.Join(lines, "\n")
}

func formatComments(comments []model.CommentInfo) string {
	if len(comments) == 0 {
		return "(No comments)"
	}

	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", c.CreatedAt, c.AuthorName, c.Body))
	}
	return strings.Join(lines, "\n")
}

func formatItems(items []model.ItemInfo, label string) string {
	if len(items) == 0 {
		return "(No " + strings.ToLower(label) + ")"
	}

	var sb strings.Builder
	sb.WriteString(label + ":")
	for _, item := range items {
		fmt.Fprintf(&sb, "\n- [%d] %s", item.ID, item.Name)
		fmt.Fprintf(&sb, "\n  Status: %s | Assigned: %s | Tasklist: %s", item.Status, item.AssignedTo, item.Tasklist)
		fmt.Fprintf(&sb, "\n  Updated: %s", item.UpdatedAt)
	}
	return sb.String()
}

func formatFiles(files []model.FileInfo) string {
	if len(files) == 0 {
		return "(No files)"
	}

	var sb strings.Builder
	for i, f := range files {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s\n  Path: %s\n  Updated: %s", f.Name, f.Path, f.UpdatedAt)
	}
	return sb.String()
}

func formatCraftDocs(docs []model.CraftDocInfo) string {
	if len(docs) == 0 {
		return "(No Craft documents)"
	}

	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("- [%s] %s (modified: %s)", d.ID, d.Title, d.ModifiedAt))
	}
	return strings.Join(lines, "\n")
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
