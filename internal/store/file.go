package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ibhelm.app/agent/internal/model"
)

const fileListLimit = 10

type fileStore struct {
	pool *pgxpool.Pool
}

func newFileStore(pool *pgxpool.Pool) FileStore {
	return &fileStore{pool: pool}
}

func (s *fileStore) ListRecentByProject(ctx context.Context, projectID int64) ([]model.FileInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
		    SPLIT_PART(full_path, '/', -1) AS filename,
		    full_path,
		    COALESCE(db_updated_at, fs_mtime, db_created_at) AS updated
		FROM files
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY COALESCE(db_updated_at, fs_mtime, db_created_at) DESC
		LIMIT $2`, projectID, fileListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []model.FileInfo
	for rows.Next() {
		var (
			name    *string
			path    *string
			updated *time.Time
		)
		if err := rows.Scan(&name, &path, &updated); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, model.FileInfo{
			Name:      orDefault(name, ""),
			Path:      orDefault(path, ""),
			UpdatedAt: formatTime(updated),
		})
	}
	return files, rows.Err()
}
