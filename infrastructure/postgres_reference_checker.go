// infrastructure/postgres_reference_checker.go
package infrastructure

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/vitovidale/video-catalog-service/domain"
)

// PostgresReferenceChecker answers which ids of a referenced table exist.
type PostgresReferenceChecker struct {
	DB    *sql.DB
	table string
}

func NewCategoryChecker(db *sql.DB) *PostgresReferenceChecker {
	return &PostgresReferenceChecker{DB: db, table: "categories"}
}

func NewGenreChecker(db *sql.DB) *PostgresReferenceChecker {
	return &PostgresReferenceChecker{DB: db, table: "genres"}
}

func NewCastMemberChecker(db *sql.DB) *PostgresReferenceChecker {
	return &PostgresReferenceChecker{DB: db, table: "cast_members"}
}

func (c *PostgresReferenceChecker) ExistsByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := c.DB.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, c.table), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", c.table, err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s: %w", c.table, err)
	}
	return found, nil
}

var _ domain.ReferenceChecker = (*PostgresReferenceChecker)(nil)
