package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/barsea/schedpoint/internal/metrics"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/schedule"
	"github.com/barsea/schedpoint/internal/storage"
)

// BlockInput carries client-supplied fields. A nil field is left untouched on
// update and treated as absent on create.
type BlockInput struct {
	Memo       *string
	StartTime  *string
	EndTime    *string
	CategoryID *int64
}

// TimeBlockService implements list/show/create/update/destroy for plans and
// actuals. Every method takes the acting user explicitly and never touches
// another user's rows.
type TimeBlockService struct {
	store   storage.Store
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewTimeBlockService creates a TimeBlockService that interprets zone-less
// times and dates in loc.
func NewTimeBlockService(store storage.Store, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *TimeBlockService {
	return &TimeBlockService{
		store:   store,
		loc:     loc,
		metrics: m,
		logger:  logger,
	}
}

// List returns the user's blocks of kind that overlap date (YYYY-MM-DD, empty
// for today). Categories are attached. Order is storage order.
func (s *TimeBlockService) List(ctx context.Context, user *models.User, kind models.Kind, date string) ([]*models.TimeBlock, error) {
	day, err := schedule.ParseDate(date, s.loc)
	if err != nil {
		s.logger.Warn("List rejected", "user_id", user.ID, "kind", kind, "date", date, "error", err)
		return nil, err
	}

	r := schedule.DayRange(day)
	blocks, err := s.store.ListBlocksInRange(ctx, kind, user.ID, r.Start, r.End)
	if err != nil {
		s.logger.Error("Failed to list blocks", "user_id", user.ID, "kind", kind, "date", date, "error", err)
		return nil, err
	}

	s.logger.Debug("Blocks listed", "user_id", user.ID, "kind", kind, "date", day.Format(schedule.DateLayout), "count", len(blocks))
	return blocks, nil
}

// Get returns one of the user's blocks.
func (s *TimeBlockService) Get(ctx context.Context, user *models.User, kind models.Kind, id int64) (*models.TimeBlock, error) {
	block, err := s.store.GetBlock(ctx, kind, user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	if err != nil {
		s.logger.Error("Failed to get block", "user_id", user.ID, "kind", kind, "id", id, "error", err)
		return nil, err
	}
	return block, nil
}

// Create validates the input and stores a new block owned by user.
// Validation failures are returned together as schedule.ValidationErrors.
func (s *TimeBlockService) Create(ctx context.Context, user *models.User, kind models.Kind, in BlockInput) (*models.TimeBlock, error) {
	var draft schedule.BlockDraft
	if in.Memo != nil {
		draft.Memo = *in.Memo
	}
	if in.StartTime != nil {
		draft.SetStart(*in.StartTime, s.loc)
	}
	if in.EndTime != nil {
		draft.SetEnd(*in.EndTime, s.loc)
	}

	category, err := s.lookupCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	draft.CategoryExists = category != nil

	if err := schedule.ValidateBlock(draft); err != nil {
		s.logger.Warn("Create rejected", "user_id", user.ID, "kind", kind, "error", err)
		return nil, err
	}

	block := &models.TimeBlock{
		Kind:       kind,
		UserID:     user.ID,
		CategoryID: category.ID,
		Category:   category,
		Memo:       draft.Memo,
		StartTime:  draft.Start,
		EndTime:    draft.End,
	}
	if err := s.store.CreateBlock(ctx, block); err != nil {
		s.logger.Error("Failed to create block", "user_id", user.ID, "kind", kind, "error", err)
		return nil, err
	}

	s.metrics.BlockWritten(kind.String(), "create")
	s.logger.Info("Block created", "user_id", user.ID, "kind", kind, "id", block.ID)
	return block, nil
}

// Update applies the non-nil fields of in to one of the user's blocks and
// re-runs validation over the merged state.
func (s *TimeBlockService) Update(ctx context.Context, user *models.User, kind models.Kind, id int64, in BlockInput) (*models.TimeBlock, error) {
	block, err := s.Get(ctx, user, kind, id)
	if err != nil {
		return nil, err
	}

	draft := schedule.BlockDraft{
		Memo:           block.Memo,
		Start:          block.StartTime,
		End:            block.EndTime,
		CategoryExists: true,
	}
	if in.Memo != nil {
		draft.Memo = *in.Memo
	}
	if in.StartTime != nil {
		draft.SetStart(*in.StartTime, s.loc)
	}
	if in.EndTime != nil {
		draft.SetEnd(*in.EndTime, s.loc)
	}

	category := block.Category
	if in.CategoryID != nil {
		category, err = s.lookupCategory(ctx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		draft.CategoryExists = category != nil
	}

	if err := schedule.ValidateBlock(draft); err != nil {
		s.logger.Warn("Update rejected", "user_id", user.ID, "kind", kind, "id", id, "error", err)
		return nil, err
	}

	block.Memo = draft.Memo
	block.StartTime = draft.Start
	block.EndTime = draft.End
	block.CategoryID = category.ID
	block.Category = category

	if err := s.store.UpdateBlock(ctx, block); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
		}
		s.logger.Error("Failed to update block", "user_id", user.ID, "kind", kind, "id", id, "error", err)
		return nil, err
	}

	s.metrics.BlockWritten(kind.String(), "update")
	s.logger.Info("Block updated", "user_id", user.ID, "kind", kind, "id", id)
	return block, nil
}

// Delete removes one of the user's blocks.
func (s *TimeBlockService) Delete(ctx context.Context, user *models.User, kind models.Kind, id int64) error {
	err := s.store.DeleteBlock(ctx, kind, user.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	if err != nil {
		s.logger.Error("Failed to delete block", "user_id", user.ID, "kind", kind, "id", id, "error", err)
		return err
	}

	s.metrics.BlockWritten(kind.String(), "delete")
	s.logger.Info("Block deleted", "user_id", user.ID, "kind", kind, "id", id)
	return nil
}

// lookupCategory returns nil without error when id is nil or unknown.
func (s *TimeBlockService) lookupCategory(ctx context.Context, id *int64) (*models.Category, error) {
	if id == nil {
		return nil, nil
	}
	category, err := s.store.GetCategory(ctx, *id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to look up category", "category_id", *id, "error", err)
		return nil, err
	}
	return category, nil
}
