package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type conversationStore struct {
	pool *pgxpool.Pool
}

func newConversationStore(pool *pgxpool.Pool) ConversationStore {
	return &conversationStore{pool: pool}
}

func (s *conversationStore) GetByID(ctx context.Context, id string) (*ConversationInfo, error) {
	var info ConversationInfo
	err := s.pool.QueryRow(ctx, `
		SELECT subject, latest_message_subject, web_url
		FROM missive.conversations
		WHERE id = $1`, id,
	).Scan(&info.Subject, &info.LatestMessageSubject, &info.WebURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching conversation %s: %w", id, err)
	}
	return &info, nil
}
