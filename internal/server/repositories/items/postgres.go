// Package items provides a PostgreSQL-backed repository for items.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

const itemColumns = `id, name, description, created_at, updated_at, user_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	it := &models.Item{}
	var desc sql.NullString
	var updated sql.NullTime
	if err := row.Scan(&it.ID, &it.Name, &desc, &it.CreatedAt, &updated, &it.UserID); err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		it.Description = &d
	}
	if updated.Valid {
		t := updated.Time
		it.UpdatedAt = &t
	}
	return it, nil
}

func description(d *string) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *d, Valid: true}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`INSERT INTO items (name, description, created_at, user_id)
		 VALUES ($1, $2, NOW(), $3)
		 RETURNING id, created_at
		 `
	err := r.db.QueryRowContext(ctx, query, item.Name, description(item.Description), item.UserID).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg any) (*models.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Item, error) {
	return r.get(ctx, `name = $1`, name)
}

func filterClause(f models.ItemFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.Description != "" {
		args = append(args, "%"+f.Description+"%")
		conds = append(conds, fmt.Sprintf("description ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) List(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	where, args := filterClause(filter)
	args = append(args, filter.Limit, models.Offset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`SELECT %s FROM items%s ORDER BY id LIMIT $%d OFFSET $%d`, itemColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Item, 0, filter.Limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter models.ItemFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`UPDATE items
		 SET name = $1, description = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING ` + itemColumns

	updated, err := scanItem(r.db.QueryRowContext(ctx, query, item.Name, description(item.Description), item.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

// Delete returns the number of removed rows.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
