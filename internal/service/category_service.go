package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/storage"
)

// DefaultCategories is the built-in category set installed by Seed.
var DefaultCategories = []models.Category{
	{Name: "睡眠", Icon: "fas bed"},
	{Name: "食事", Icon: "fas utensils"},
	{Name: "お風呂", Icon: "fas bath"},
	{Name: "移動", Icon: "fas train"},
	{Name: "仕事", Icon: "fas briefcase"},
	{Name: "学校", Icon: "fas school"},
	{Name: "勉強", Icon: "fas book-open"},
	{Name: "スマホ", Icon: "fas mobile-alt"},
	{Name: "PC", Icon: "fas laptop"},
	{Name: "遊ぶ", Icon: "fas music"},
	{Name: "ゲーム", Icon: "fas gamepad"},
	{Name: "TV", Icon: "fas tv"},
	{Name: "映画", Icon: "fas film"},
	{Name: "読書", Icon: "fas book"},
	{Name: "スポーツ", Icon: "fas futbol"},
	{Name: "買い物", Icon: "fas shopping-cart"},
	{Name: "カフェ", Icon: "fas mug-saucer"},
	{Name: "飲み会", Icon: "fas beer-mug-empty"},
}

// CategoryService exposes the read-only category list and the seed step.
type CategoryService struct {
	store  storage.CategoryStore
	logger *slog.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store storage.CategoryStore, logger *slog.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

// List returns all categories ordered by id. The caller must already be authenticated.
func (s *CategoryService) List(ctx context.Context, user *models.User) ([]*models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", "user_id", user.ID, "error", err)
		return nil, err
	}
	return categories, nil
}

// Seed replaces every category with DefaultCategories. Existing plans and
// actuals are removed along with the categories they reference.
func (s *CategoryService) Seed(ctx context.Context) ([]*models.Category, error) {
	categories := make([]*models.Category, len(DefaultCategories))
	for i := range DefaultCategories {
		c := DefaultCategories[i]
		categories[i] = &c
	}

	if err := s.store.ReplaceCategories(ctx, categories); err != nil {
		s.logger.Error("Failed to seed categories", "error", err)
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	s.logger.Info("Categories seeded", "count", len(categories))
	return categories, nil
}
