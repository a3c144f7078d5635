package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userStore struct {
	pool *pgxpool.Pool
}

func newUserStore(pool *pgxpool.Pool) UserStore {
	return &userStore{pool: pool}
}

func (s *userStore) GetName(ctx context.Context, id string) (string, error) {
	var name *string
	err := s.pool.QueryRow(ctx,
		`SELECT name FROM missive.users WHERE id = $1`, id,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("fetching user %s: %w", id, err)
	}
	if name == nil {
		return "", ErrNotFound
	}
	return *name, nil
}
