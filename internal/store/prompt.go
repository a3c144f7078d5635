package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promptStore struct {
	pool *pgxpool.Pool
}

func newPromptStore(pool *pgxpool.Pool) PromptStore {
	return &promptStore{pool: pool}
}

// The operator can override the built-in system prompt through app settings.
func (s *promptStore) GetSystemPrompt(ctx context.Context) (string, error) {
	var prompt *string
	err := s.pool.QueryRow(ctx, `
		SELECT body->>'ai_agent_system_prompt'
		FROM app_settings
		LIMIT 1`,
	).Scan(&prompt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("fetching system prompt: %w", err)
	}
	if prompt == nil || *prompt == "" {
		return "", ErrNotFound
	}
	return *prompt, nil
}
