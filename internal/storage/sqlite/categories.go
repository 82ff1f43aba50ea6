package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

const categoryColumns = `id, name, icon, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ListCategories returns every category ordered by id.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c, err := s.scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a category.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.insertCategory(ctx, s.db, category)
}

// DeleteCategory removes the category and every block that references it.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"plans", "actuals"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE category_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete %s of category: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceCategories deletes all blocks and categories and inserts the given set.
func (s *SQLiteStore) ReplaceCategories(ctx context.Context, categories []*models.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"plans", "actuals", "categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range categories {
		if err := s.insertCategory(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insertCategory(ctx context.Context, ex execer, category *models.Category) error {
	now := s.now()
	category.CreatedAt = now
	category.UpdatedAt = now

	res, err := ex.ExecContext(ctx,
		"INSERT INTO categories (name, icon, created_at, updated_at) VALUES (?, ?, ?, ?)",
		category.Name, category.Icon, s.formatTime(now), s.formatTime(now),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", storage.ErrCategoryTaken, category.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	category.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanCategory(row scanner) (*models.Category, error) {
	var (
		c                  models.Category
		createdAt, updated string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &createdAt, &updated); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = s.parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = s.parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}
