package client

import (
	"context"
	"slices"
	"sync"

	"github.com/barsea/schedpoint/internal/models"
)

// BlockStore caches the plans or actuals of one day and tracks the block
// open in the detail view. Local state changes only after the server confirms.
type BlockStore struct {
	client *Client
	kind   models.Kind

	mu       sync.Mutex
	items    []Block
	selected *Block
	open     bool
	issued   uint64
	applied  uint64
}

// NewBlockStore creates an empty store for kind.
func NewBlockStore(c *Client, kind models.Kind) *BlockStore {
	return &BlockStore{client: c, kind: kind}
}

// Kind returns the kind of block the store holds.
func (s *BlockStore) Kind() models.Kind {
	return s.kind
}

// Items returns a copy of the cached blocks.
func (s *BlockStore) Items() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Selected returns the block in the detail view, or nil.
func (s *BlockStore) Selected() *Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	b := *s.selected
	return &b
}

// IsOpen reports whether the detail view is open.
func (s *BlockStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Fetch replaces the cache with the blocks of date. On failure the cache is emptied.
// A response older than one already applied is dropped.
func (s *BlockStore) Fetch(ctx context.Context, date string) Result {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	if !s.client.HasToken() {
		s.apply(seq, nil)
		return ResultOf(ErrNotLoggedIn)
	}

	blocks, err := s.client.ListBlocks(ctx, s.kind, date)
	s.apply(seq, blocks)
	return ResultOf(err)
}

func (s *BlockStore) apply(seq uint64, blocks []Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return
	}
	s.applied = seq
	s.items = blocks
}

// Create stores a new block and appends it to the cache.
func (s *BlockStore) Create(ctx context.Context, fields BlockFields) Result {
	b, err := s.client.CreateBlock(ctx, s.kind, fields)
	if err != nil {
		return ResultOf(err)
	}

	s.mu.Lock()
	s.items = append(s.items, *b)
	s.mu.Unlock()
	return ok()
}

// Update changes a block, replaces it in the cache and closes the detail view.
func (s *BlockStore) Update(ctx context.Context, id int64, fields BlockFields) Result {
	b, err := s.client.UpdateBlock(ctx, s.kind, id, fields)
	if err != nil {
		return ResultOf(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.items[i] = *b
	}
	s.closeLocked()
	return ok()
}

// Delete removes a block from the server and the cache and closes the detail view.
func (s *BlockStore) Delete(ctx context.Context, id int64) Result {
	if err := s.client.DeleteBlock(ctx, s.kind, id); err != nil {
		return ResultOf(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.closeLocked()
	return ok()
}

// OpenDetail selects a cached block. It reports false if id is not cached.
func (s *BlockStore) OpenDetail(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	b := s.items[i]
	s.selected = &b
	s.open = true
	return true
}

// Close closes the detail view.
func (s *BlockStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Clear drops all cached state.
func (s *BlockStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.closeLocked()
}

func (s *BlockStore) closeLocked() {
	s.selected = nil
	s.open = false
}

func (s *BlockStore) index(id int64) int {
	return slices.IndexFunc(s.items, func(b Block) bool { return b.ID == id })
}

// CategoryStore caches the category list.
type CategoryStore struct {
	client *Client

	mu    sync.RWMutex
	items []Category
}

// NewCategoryStore creates an empty store.
func NewCategoryStore(c *Client) *CategoryStore {
	return &CategoryStore{client: c}
}

// Fetch reloads the categories. On failure the cache is emptied.
func (s *CategoryStore) Fetch(ctx context.Context) Result {
	categories, err := s.client.ListCategories(ctx)

	s.mu.Lock()
	s.items = categories
	s.mu.Unlock()
	return ResultOf(err)
}

// Items returns a copy of the cached categories.
func (s *CategoryStore) Items() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Lookup finds a cached category by id.
func (s *CategoryStore) Lookup(id int64) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.items {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Clear drops the cache.
func (s *CategoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
