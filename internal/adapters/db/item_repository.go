package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"item-service/internal/domain/item"

	"github.com/google/uuid"
)

const (
	countItemsQuery = `SELECT COUNT(*) FROM items`

	listItemsQuery = `
		SELECT id, name, description, created_at, updated_at
		FROM items
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	getItemQuery = `
		SELECT id, name, description, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	lockItemQuery = getItemQuery + ` FOR UPDATE`

	insertItemQuery = `
		INSERT INTO items (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	updateItemQuery = `
		UPDATE items
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4
	`

	deleteItemQuery = `DELETE FROM items WHERE id = $1`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// ItemRepository implements the item repository interface
type ItemRepository struct {
	conn *Connection
	now  func() time.Time
}

// NewItemRepository creates a new item repository
func NewItemRepository(conn *Connection) *ItemRepository {
	return &ItemRepository{conn: conn, now: time.Now}
}

// List returns one page of items, newest first, plus the count of all items
func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*item.Item, int, error) {
	var (
		total int
		items = make([]*item.Item, 0)
	)

	err := r.conn.ExecuteTransaction(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, countItemsQuery).Scan(&total); err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}

		rows, err := tx.QueryContext(ctx, r.conn.Dialect().Rebind(listItemsQuery), limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return fmt.Errorf("failed to scan item: %w", err)
			}
			items = append(items, it)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, bool, error) {
	row := r.conn.GetDB().QueryRowContext(ctx, r.conn.Dialect().Rebind(getItemQuery), id)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get item: %w", err)
	}

	return it, true, nil
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, in item.Create) (*item.Item, error) {
	it := item.New(in, r.now())

	_, err := r.conn.Exec(ctx, insertItemQuery,
		it.ID,
		it.Name,
		it.Description,
		it.CreatedAt,
		it.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return it, nil
}

// Update locks the row, applies the present fields and writes it back in one transaction
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch item.Update) (*item.Item, bool, error) {
	var (
		updated *item.Item
		found   bool
	)

	err := r.conn.ExecuteTransaction(ctx, nil, func(tx *sql.Tx) error {
		it, err := scanItem(tx.QueryRowContext(ctx, r.conn.Dialect().Rebind(lockItemQuery), id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get item for update: %w", err)
		}

		patch.Apply(it, r.now())

		_, err = tx.ExecContext(ctx, r.conn.Dialect().Rebind(updateItemQuery),
			it.Name,
			it.Description,
			it.UpdatedAt,
			it.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		updated, found = it, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return updated, found, nil
}

// Delete deletes an item
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.conn.Exec(ctx, deleteItemQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func scanItem(row rowScanner) (*item.Item, error) {
	var (
		it          item.Item
		description sql.NullString
	)

	if err := row.Scan(
		&it.ID,
		&it.Name,
		&description,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		it.Description = &description.String
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()

	return &it, nil
}
