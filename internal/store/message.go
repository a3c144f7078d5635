package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

type messageStore struct {
	pool *pgxpool.Pool
}

func newMessageStore(pool *pgxpool.Pool) MessageStore {
	return &messageStore{pool: pool}
}

func (s *messageStore) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM missive.messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

func (s *messageStore) ListMetadata(ctx context.Context, conversationID string) ([]model.EmailMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.subject, c.name, c.email, m.delivered_at
		FROM missive.messages m
		LEFT JOIN missive.contacts c ON m.from_contact_id = c.id
		WHERE m.conversation_id = $1
		ORDER BY m.delivered_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing message metadata: %w", err)
	}
	defer rows.Close()

	var metas []model.EmailMeta
	for rows.Next() {
		var (
			id          string
			subject     *string
			fromName    *string
			fromEmail   *string
			deliveredAt *time.Time
		)
		if err := rows.Scan(&id, &subject, &fromName, &fromEmail, &deliveredAt); err != nil {
			return nil, fmt.Errorf("scanning message metadata: %w", err)
		}
		metas = append(metas, model.EmailMeta{
			ID:          id,
			Subject:     orDefault(subject, "(No subject)"),
			FromName:    orDefault(fromName, "Unknown"),
			FromEmail:   orDefault(fromEmail, ""),
			DeliveredAt: formatTime(deliveredAt),
		})
	}
	return metas, rows.Err()
}

func (s *messageStore) ListRecentDetail(ctx context.Context, conversationID string, limit int) ([]model.EmailInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.subject, c.name, c.email, m.delivered_at,
		       COALESCE(m.body_plain_text, m.body, '')
		FROM missive.messages m
		LEFT JOIN missive.contacts c ON m.from_contact_id = c.id
		WHERE m.conversation_id = $1
		ORDER BY m.delivered_at DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent messages: %w", err)
	}
	defer rows.Close()

	var emails []model.EmailInfo
	for rows.Next() {
		var (
			id          string
			subject     *string
			fromName    *string
			fromEmail   *string
			deliveredAt *time.Time
			body        string
		)
		if err := rows.Scan(&id, &subject, &fromName, &fromEmail, &deliveredAt, &body); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		emails = append(emails, model.EmailInfo{
			ID:          id,
			Subject:     orDefault(subject, "(No subject)"),
			FromName:    orDefault(fromName, "Unknown"),
			FromEmail:   orDefault(fromEmail, ""),
			DeliveredAt: formatTime(deliveredAt),
			Body:        truncateBody(body, model.EmailBodyLimit),
		})
	}
	return emails, rows.Err()
}

// truncateBody caps the body at limit characters, not bytes, so multi-byte
// text (umlauts are the norm here) is never cut mid-rune.
func truncateBody(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
