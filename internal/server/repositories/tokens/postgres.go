// Package tokens provides a PostgreSQL-backed repository for the access and
// refresh token pairs issued at login.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

const tokenColumns = `id, user_id, access_token, access_token_expiration, refresh_token, refresh_token_expiration, created_at`

// PostgresRepository implements token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanToken(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	err := row.Scan(&t.ID, &t.UserID, &t.AccessToken, &t.AccessTokenExpiration,
		&t.RefreshToken, &t.RefreshTokenExpiration, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// CountLive counts the user's tokens whose refresh window is still open.
func (r *PostgresRepository) CountLive(ctx context.Context, userID int64, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tokens
		WHERE user_id = $1 AND refresh_token_expiration > $2
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteSoonestExpiring evicts the live token of the user whose refresh
// window closes first.
func (r *PostgresRepository) DeleteSoonestExpiring(ctx context.Context, userID int64, now time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE id = (
			SELECT id FROM tokens
			WHERE user_id = $1 AND refresh_token_expiration > $2
			ORDER BY refresh_token_expiration ASC
			LIMIT 1
		)
	`
	return r.exec(ctx, query, userID, now)
}

// Create inserts token and fills in ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	query := `
		INSERT INTO tokens (user_id, access_token, access_token_expiration, refresh_token, refresh_token_expiration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, token.UserID, token.AccessToken, token.AccessTokenExpiration,
		token.RefreshToken, token.RefreshTokenExpiration, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Rotate overwrites both token values and expirations of the live row
// holding refreshToken. A missing or expired refresh token yields
// common.ErrorNotFound.
func (r *PostgresRepository) Rotate(ctx context.Context, refreshToken string, now time.Time, next *models.Token) (*models.Token, error) {
	query := `
		UPDATE tokens
		SET access_token = $1, access_token_expiration = $2, refresh_token = $3, refresh_token_expiration = $4
		WHERE refresh_token = $5 AND refresh_token_expiration > $6
		RETURNING ` + tokenColumns
	return scanToken(r.db.QueryRowContext(ctx, query, next.AccessToken, next.AccessTokenExpiration,
		next.RefreshToken, next.RefreshTokenExpiration, refreshToken, now))
}

// FindByAccess returns the row whose access token is still valid at now.
func (r *PostgresRepository) FindByAccess(ctx context.Context, accessToken string, now time.Time) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE access_token = $1 AND access_token_expiration > $2`
	return scanToken(r.db.QueryRowContext(ctx, query, accessToken, now))
}

// FindByRefresh returns the row whose refresh token is still valid at now.
func (r *PostgresRepository) FindByRefresh(ctx context.Context, refreshToken string, now time.Time) (*models.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE refresh_token = $1 AND refresh_token_expiration > $2`
	return scanToken(r.db.QueryRowContext(ctx, query, refreshToken, now))
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) DeleteByAccess(ctx context.Context, userID int64, accessToken string) (int64, error) {
	return r.exec(ctx, `DELETE FROM tokens WHERE user_id = $1 AND access_token = $2`, userID, accessToken)
}

// DeleteExpired removes every row whose refresh window closed before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM tokens WHERE refresh_token_expiration < $1`, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
