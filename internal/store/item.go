package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

const itemListLimit = 10

type itemStore struct {
	pool *pgxpool.Pool
}

func newItemStore(pool *pgxpool.Pool) ItemStore {
	return &itemStore{pool: pool}
}

func (s *itemStore) ListByCategory(ctx context.Context, projectName string, category ItemCategory) ([]model.ItemInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, status, assigned_to, updated_at, tasklist
		FROM unified_items_secure
		WHERE type = 'task'
		  AND project = $1
		  AND task_type_slug = $2
		ORDER BY updated_at DESC
		LIMIT $3`, projectName, string(category), itemListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing %s items: %w", category, err)
	}
	defer rows.Close()

	var items []model.ItemInfo
	for rows.Next() {
		var (
			id        int64
			name      *string
			status    *string
			assigned  []byte
			updatedAt *time.Time
			tasklist  *string
		)
		if err := rows.Scan(&id, &name, &status, &assigned, &updatedAt, &tasklist); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, model.ItemInfo{
			ID:         id,
			Name:       orDefault(name, ""),
			Status:     orDefault(status, ""),
			AssignedTo: normalizeAssignees(assigned),
			UpdatedAt:  formatTime(updatedAt),
			Tasklist:   orDefault(tasklist, ""),
		})
	}
	return items, rows.Err()
}

type assignee struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// normalizeAssignees resolves the heterogeneous assigned_to column into one
// display string. The column usually holds a JSON array of name objects, but
// older rows carry free text; anything that doesn't decode is rendered as-is
// rather than failing the fetch.
func normalizeAssignees(raw []byte) string {
	if len(raw) == 0 {
		return "Unassigned"
	}

	var assignees []assignee
	if err := json.Unmarshal(raw, &assignees); err != nil {
		return string(raw)
	}

	var names []string
	for _, a := range assignees {
		name := strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
		if name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "Unassigned"
	}
	return strings.Join(names, ", ")
}
