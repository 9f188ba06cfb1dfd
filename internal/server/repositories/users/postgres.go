// Package users provides a PostgreSQL-backed repository for user accounts.
package users

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

const userColumns = `id, username, hashed_password, salt, activated, role_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var hashed sql.NullString
	var updated sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &hashed, &u.Salt, &u.Activated, &u.RoleID, &u.CreatedAt, &updated); err != nil {
		return nil, err
	}
	u.HashedPassword = hashed.String
	if updated.Valid {
		t := updated.Time
		u.UpdatedAt = &t
	}
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts user and fills in ID and CreatedAt.
// A taken username yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, hashed_password, salt, activated, role_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, nullable(user.HashedPassword), user.Salt, user.Activated, user.RoleID).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) get(ctx context.Context, where string, arg any, activatedOnly bool) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if activatedOnly {
		query += ` AND activated = TRUE`
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByID returns common.ErrorNotFound for a missing user, or for a
// deactivated one when activatedOnly is set.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, activatedOnly bool) (*models.User, error) {
	return r.get(ctx, `id = $1`, id, activatedOnly)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string, activatedOnly bool) (*models.User, error) {
	return r.get(ctx, `username = $1`, username, activatedOnly)
}

func filterClause(f models.UserFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Activated != nil {
		args = append(args, *f.Activated)
		conds = append(conds, fmt.Sprintf("activated = $%d", len(args)))
	}
	if f.Username != "" {
		args = append(args, "%"+f.Username+"%")
		conds = append(conds, fmt.Sprintf("username ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of users ordered by id.
func (r *PostgresRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	where, args := filterClause(filter)
	args = append(args, filter.Limit, models.Offset(filter.Page, filter.Limit))
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY id LIMIT $%d OFFSET $%d`, userColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0, filter.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter models.UserFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Update writes every mutable field of user and stamps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET username = $1, hashed_password = $2, salt = $3, activated = $4, role_id = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING ` + userColumns

	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Username, nullable(user.HashedPassword), user.Salt, user.Activated, user.RoleID, user.ID))
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

// SetActivated reports whether a row was changed.
func (r *PostgresRepository) SetActivated(ctx context.Context, id int64, activated bool) (bool, error) {
	query :=
		`UPDATE users SET activated = $1, updated_at = NOW()
		 WHERE id = $2
		 `
	res, err := r.db.ExecContext(ctx, query, activated, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
