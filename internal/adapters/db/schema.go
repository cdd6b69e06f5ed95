package db

import (
	"context"
	"fmt"
)

var schemaStatements = map[Dialect][]string{
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_items_created_at ON items (created_at DESC)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS items (
			id CHAR(36) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX ix_items_created_at (created_at)
		) CHARACTER SET utf8mb4`,
	},
}

// EnsureSchema creates the items table when it does not exist yet
func (client *Connection) EnsureSchema(ctx context.Context) error {
	statements, ok := schemaStatements[client.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", client.dialect)
	}

	for _, stmt := range statements {
		if _, err := client.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	client.logger.Info().Str("dialect", string(client.dialect)).Msg("Database schema ensured")
	return nil
}
