// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/barsea/schedpoint/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by the caller.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email has already been taken")
	// ErrCategoryTaken is returned when a category with the same name already exists.
	ErrCategoryTaken = errors.New("category name has already been taken")
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser persists a new user and populates user.ID.
	// Returns ErrEmailTaken if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateUserJTI replaces the user's revocation marker.
	UpdateUserJTI(ctx context.Context, id int64, jti string) error

	// DeleteUser removes the user and every plan and actual it owns.
	DeleteUser(ctx context.Context, id int64) error
}

// CategoryStore persists the shared category reference data.
type CategoryStore interface {
	// ListCategories returns all categories ordered by id.
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)

	// CreateCategory returns ErrCategoryTaken on a duplicate name.
	CreateCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory removes the category and every plan and actual tagged with it.
	DeleteCategory(ctx context.Context, id int64) error

	// ReplaceCategories drops all categories (and therefore all blocks) and
	// inserts the given set in one transaction.
	ReplaceCategories(ctx context.Context, categories []*models.Category) error
}

// BlockStore persists plans and actuals. Every call is scoped to one owner;
// a row belonging to another user is reported as ErrNotFound.
type BlockStore interface {
	// CreateBlock persists block (block.Kind selects the collection) and populates block.ID.
	CreateBlock(ctx context.Context, block *models.TimeBlock) error

	// GetBlock loads one block with its category.
	GetBlock(ctx context.Context, kind models.Kind, userID, id int64) (*models.TimeBlock, error)

	// ListBlocksInRange returns the owner's blocks satisfying
	// start_time <= dayEnd AND end_time >= dayStart, with categories, in storage order.
	ListBlocksInRange(ctx context.Context, kind models.Kind, userID int64, dayStart, dayEnd time.Time) ([]*models.TimeBlock, error)

	// UpdateBlock writes memo, bounds and category of an existing owned block.
	UpdateBlock(ctx context.Context, block *models.TimeBlock) error

	DeleteBlock(ctx context.Context, kind models.Kind, userID, id int64) error
}

// Store is the full persistence surface used by the services.
// This abstraction allows swapping storage backends without changing the service layer.
type Store interface {
	UserStore
	CategoryStore
	BlockStore

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
