// Package versions provides read access to the table of known client versions.
package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/dbx"
	"github.com/dmitrijs2005/itemkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Version, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, version, supported FROM versions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Version
	for rows.Next() {
		v := &models.Version{}
		if err := rows.Scan(&v.ID, &v.Version, &v.Supported); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Get looks a version string up exactly; unknown versions yield
// common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, version string) (*models.Version, error) {
	v := &models.Version{}
	err := r.db.QueryRowContext(ctx, `SELECT id, version, supported FROM versions WHERE version = $1`, version).
		Scan(&v.ID, &v.Version, &v.Supported)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}
