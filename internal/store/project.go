package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type projectStore struct {
	pool *pgxpool.Pool
}

func newProjectStore(pool *pgxpool.Pool) ProjectStore {
	return &projectStore{pool: pool}
}

// At most one project association per conversation is considered.
func (s *projectStore) GetByConversation(ctx context.Context, conversationID string) (string, int64, error) {
	var (
		id   int64
		name string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.name
		FROM project_conversations pc
		JOIN teamwork.projects p ON pc.tw_project_id = p.id
		WHERE pc.m_conversation_id = $1
		LIMIT 1`, conversationID,
	).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, ErrNotFound
		}
		return "", 0, fmt.Errorf("fetching project for conversation %s: %w", conversationID, err)
	}
	return name, id, nil
}
