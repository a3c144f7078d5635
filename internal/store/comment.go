package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

type commentStore struct {
	pool *pgxpool.Pool
}

func newCommentStore(pool *pgxpool.Pool) CommentStore {
	return &commentStore{pool: pool}
}

// Oldest first: comments form the team's narrative and the renderer keeps
// them in reading order, unlike messages which list newest first.
func (s *commentStore) ListByConversation(ctx context.Context, conversationID string) ([]model.CommentInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.name, cc.created_at, cc.body
		FROM missive.conversation_comments cc
		LEFT JOIN missive.users u ON cc.author_id = u.id
		WHERE cc.conversation_id = $1
		ORDER BY cc.created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentInfo
	for rows.Next() {
		var (
			authorName *string
			createdAt  *time.Time
			body       *string
		)
		if err := rows.Scan(&authorName, &createdAt, &body); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, model.CommentInfo{
			AuthorName: orDefault(authorName, "Unknown"),
			CreatedAt:  formatTime(createdAt),
			Body:       orDefault(body, ""),
		})
	}
	return comments, rows.Err()
}
