package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

const documentListLimit = 10

type documentStore struct {
	pool *pgxpool.Pool
}

func newDocumentStore(pool *pgxpool.Pool) DocumentStore {
	return &documentStore{pool: pool}
}

func (s *documentStore) ListRecentByProject(ctx context.Context, projectID int64) ([]model.CraftDocInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cd.id, cd.title, cd.craft_last_modified_at
		FROM craft_documents cd
		JOIN project_craft_documents pcd ON cd.id = pcd.craft_document_id
		WHERE pcd.tw_project_id = $1 AND cd.is_deleted = FALSE
		ORDER BY cd.craft_last_modified_at DESC
		LIMIT $2`, projectID, documentListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing craft documents: %w", err)
	}
	defer rows.Close()

	var docs []model.CraftDocInfo
	for rows.Next() {
		var (
			id       string
			title    *string
			modified *time.Time
		)
		if err := rows.Scan(&id, &title, &modified); err != nil {
			return nil, fmt.Errorf("scanning craft document: %w", err)
		}
		docs = append(docs, model.CraftDocInfo{
			ID:         id,
			Title:      orDefault(title, ""),
			ModifiedAt: formatTime(modified),
		})
	}
	return docs, rows.Err()
}
