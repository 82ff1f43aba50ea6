package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

// blockSelect joins each block with its category so callers never look it up separately.
const blockSelect = `
	SELECT b.id, b.memo, b.start_time, b.end_time, b.user_id, b.category_id, b.created_at, b.updated_at,
	       c.id, c.name, c.icon, c.created_at, c.updated_at
	FROM %s b
	JOIN categories c ON c.id = b.category_id
`

// CreateBlock inserts a plan or actual.
func (s *SQLiteStore) CreateBlock(ctx context.Context, block *models.TimeBlock) error {
	table, err := blockTable(block.Kind)
	if err != nil {
		return err
	}

	now := s.now()
	block.CreatedAt = now
	block.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO "+table+" (memo, start_time, end_time, user_id, category_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		nullString(block.Memo),
		s.formatTime(block.StartTime),
		s.formatTime(block.EndTime),
		block.UserID,
		block.CategoryID,
		s.formatTime(now),
		s.formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", block.Kind, err)
	}

	block.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read %s id: %w", block.Kind, err)
	}
	return nil
}

// GetBlock retrieves one owned block with its category.
func (s *SQLiteStore) GetBlock(ctx context.Context, kind models.Kind, userID, id int64) (*models.TimeBlock, error) {
	table, err := blockTable(kind)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(blockSelect, table)+" WHERE b.id = ? AND b.user_id = ?",
		id, userID,
	)
	block, err := s.scanBlock(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return block, nil
}

// ListBlocksInRange returns the owner's blocks overlapping [dayStart, dayEnd].
func (s *SQLiteStore) ListBlocksInRange(ctx context.Context, kind models.Kind, userID int64, dayStart, dayEnd time.Time) ([]*models.TimeBlock, error) {
	table, err := blockTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(blockSelect, table)+" WHERE b.user_id = ? AND b.start_time <= ? AND b.end_time >= ? ORDER BY b.id",
		userID, s.formatTime(dayEnd), s.formatTime(dayStart),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	blocks := []*models.TimeBlock{}
	for rows.Next() {
		block, err := s.scanBlock(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return blocks, nil
}

// UpdateBlock writes the mutable fields of an owned block.
func (s *SQLiteStore) UpdateBlock(ctx context.Context, block *models.TimeBlock) error {
	table, err := blockTable(block.Kind)
	if err != nil {
		return err
	}

	block.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+table+" SET memo = ?, start_time = ?, end_time = ?, category_id = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		nullString(block.Memo),
		s.formatTime(block.StartTime),
		s.formatTime(block.EndTime),
		block.CategoryID,
		s.formatTime(block.UpdatedAt),
		block.ID,
		block.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", block.Kind, err)
	}
	return requireAffected(res)
}

// DeleteBlock removes one owned block.
func (s *SQLiteStore) DeleteBlock(ctx context.Context, kind models.Kind, userID, id int64) error {
	table, err := blockTable(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) scanBlock(row scanner, kind models.Kind) (*models.TimeBlock, error) {
	var (
		b                            models.TimeBlock
		c                            models.Category
		memo                         sql.NullString
		start, end, created, updated string
		catCreated, catUpdated       string
	)
	err := row.Scan(
		&b.ID, &memo, &start, &end, &b.UserID, &b.CategoryID, &created, &updated,
		&c.ID, &c.Name, &c.Icon, &catCreated, &catUpdated,
	)
	if err != nil {
		return nil, err
	}

	b.Kind = kind
	b.Memo = memo.String
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&b.StartTime, start},
		{&b.EndTime, end},
		{&b.CreatedAt, created},
		{&b.UpdatedAt, updated},
		{&c.CreatedAt, catCreated},
		{&c.UpdatedAt, catUpdated},
	} {
		if *f.dst, err = s.parseTime(f.src); err != nil {
			return nil, err
		}
	}

	b.Category = &c
	return &b, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
