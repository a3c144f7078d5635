package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

type triggerStore struct {
	pool *pgxpool.Pool
}

func newTriggerStore(pool *pgxpool.Pool) TriggerStore {
	return &triggerStore{pool: pool}
}

// claimNextSQL selects the oldest pending row and flips it to processing in
// one statement. SKIP LOCKED makes concurrent claimers skip rows another
// worker is claiming instead of blocking on them, so N workers always claim
// N distinct triggers.
const claimNextSQL = `
UPDATE ai_triggers
SET status = 'processing', processed_at = now()
WHERE id = (
    SELECT id FROM ai_triggers
    WHERE status = 'pending'
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, conversation_id, comment_body, author_id, status,
          placeholder_post_id, result_post_id, result_markdown, error_message,
          created_at, processed_at`

func (s *triggerStore) ClaimNext(ctx context.Context) (*model.Trigger, error) {
	row := s.pool.QueryRow(ctx, claimNextSQL)

	trigger, err := scanTrigger(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPendingTriggers
		}
		return nil, fmt.Errorf("claiming trigger: %w", err)
	}

	return trigger, nil
}

// updateSQL preserves unset optional fields via COALESCE and refuses to
// transition rows already in a terminal status.
const updateSQL = `
UPDATE ai_triggers
SET status = $2,
    placeholder_post_id = COALESCE($3, placeholder_post_id),
    result_post_id = COALESCE($4, result_post_id),
    result_markdown = COALESCE($5, result_markdown),
    error_message = COALESCE($6, error_message),
    processed_at = now()
WHERE id = $1
  AND status NOT IN ('done', 'error')`

func (s *triggerStore) Update(ctx context.Context, id string, upd TriggerUpdate) error {
	tag, err := s.pool.Exec(ctx, updateSQL,
		id,
		string(upd.Status),
		upd.PlaceholderPostID,
		upd.ResultPostID,
		upd.ResultMarkdown,
		upd.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating trigger %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTrigger(row pgx.Row) (*model.Trigger, error) {
	var (
		t           model.Trigger
		commentBody *string
		status      string
	)

	err := row.Scan(
		&t.ID,
		&t.ConversationID,
		&commentBody,
		&t.AuthorID,
		&status,
		&t.PlaceholderPostID,
		&t.ResultPostID,
		&t.ResultMarkdown,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if commentBody != nil {
		t.CommentBody = *commentBody
	}
	t.Status = model.TriggerStatus(status)

	return &t, nil
}
