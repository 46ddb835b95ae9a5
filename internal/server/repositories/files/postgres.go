package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mpavlovs/filestore/internal/common"
	"github.com/mpavlovs/filestore/internal/dbx"
	"github.com/mpavlovs/filestore/internal/server/models"
)

const fileColumns = "id, name, path, size, extension, status, user_id, created_at"

// orderColumns whitelists the columns a search may order by. Anything else
// falls back to created_at so filter input can never reach the SQL text.
var orderColumns = map[string]string{
	"name":    "name",
	"path":    "path",
	"size":    "size",
	"created": "created_at",
}

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a pending metadata row. A duplicate (user_id, path) pair
// surfaces as common.ErrorBadRequest since the caller supplied a path that is
// already taken.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (name, path, size, extension, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.Path, file.Size, file.Extension, models.FileStatusPending, file.UserID).
		Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("path already taken: %w", common.ErrorBadRequest)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	file.Status = models.FileStatusPending
	return file, nil
}

const uniqueViolation = "23505"

// MarkActive flips a pending row to active. Exactly one row must be affected.
func (r *PostgresRepository) MarkActive(ctx context.Context, id string) error {
	query := `UPDATE files SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, models.FileStatusActive, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

// Delete removes a metadata row by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the record with the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByPath returns the owner's record with the given canonical path, or
// common.ErrorNotFound.
func (r *PostgresRepository) GetByPath(ctx context.Context, userID, path string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND path = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, path))
}

// Search returns the owner's active records matching the filter. Empty filter
// fields are dropped; the remaining predicates are ANDed together with the
// forced owner and status constraints.
func (r *PostgresRepository) Search(ctx context.Context, userID string, filter models.FileFilter) ([]*models.File, error) {

	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND status = $2`
	args := []any{userID, models.FileStatusActive}

	if filter.PathContains != "" {
		args = append(args, "%"+filter.PathContains+"%")
		query += fmt.Sprintf(" AND path LIKE $%d", len(args))
	}
	if filter.Extension != "" {
		args = append(args, filter.Extension)
		query += fmt.Sprintf(" AND extension = $%d", len(args))
	}

	order, ok := orderColumns[filter.OrderBy]
	if !ok {
		order = "created_at"
	}
	query += " ORDER BY " + order

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.selectMany(ctx, query, args...)
}

// ListByUser returns all of the owner's active records, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at`
	return r.selectMany(ctx, query, userID, models.FileStatusActive)
}

// SelectStalePending returns pending rows created before the cutoff. These are
// candidates for orphan reconciliation: either the write never finished or the
// process died between write and confirm.
func (r *PostgresRepository) SelectStalePending(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE status = $1 AND created_at < $2`
	return r.selectMany(ctx, query, models.FileStatusPending, cutoff)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.File, error) {
	file := &models.File{}
	err := row.Scan(&file.ID, &file.Name, &file.Path, &file.Size,
		&file.Extension, &file.Status, &file.UserID, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.Name, &item.Path, &item.Size,
			&item.Extension, &item.Status, &item.UserID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
