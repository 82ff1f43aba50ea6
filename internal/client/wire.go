package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/barsea/schedpoint/internal/models"
)

// UnknownCategoryName labels a block whose category is missing from included.
const UnknownCategoryName = "Unknown category"

// User is the signed-in account.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Category is a block label.
type Category struct {
	ID   int64
	Name string
	Icon string
}

// Block is a normalized plan or actual.
type Block struct {
	ID       int64
	Kind     models.Kind
	Memo     string
	Start    time.Time
	End      time.Time
	Category Category
}

// BlockFields is the writable part of a block. Nil fields are not sent.
type BlockFields struct {
	Memo       *string    `json:"memo,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	CategoryID *int64     `json:"category_id,omitempty"`
}

type identifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type relationship struct {
	Data *identifier `json:"data"`
}

type resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]relationship `json:"relationships,omitempty"`
}

type document struct {
	Data     resource   `json:"data"`
	Included []resource `json:"included,omitempty"`
}

type listDocument struct {
	Data     []resource `json:"data"`
	Included []resource `json:"included,omitempty"`
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q: %w", raw, err)
	}
	return id, nil
}

func decodeUser(r resource) (*User, error) {
	var attrs struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Name: attrs.Name, Email: attrs.Email}, nil
}

func decodeCategory(r resource) (Category, error) {
	var attrs struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}
	if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
		return Category{}, fmt.Errorf("failed to decode category: %w", err)
	}
	id, err := parseID(r.ID)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: attrs.Name, Icon: attrs.Icon}, nil
}

func categoryIndex(included []resource) map[string]Category {
	index := make(map[string]Category)
	for _, r := range included {
		if r.Type != "category" {
			continue
		}
		if cat, err := decodeCategory(r); err == nil {
			index[r.ID] = cat
		}
	}
	return index
}

func normalizeBlocks(data, included []resource) ([]Block, error) {
	index := categoryIndex(included)
	blocks := make([]Block, 0, len(data))
	for _, r := range data {
		b, err := toBlock(r, index)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, nil
}

func normalizeBlock(data resource, included []resource) (*Block, error) {
	return toBlock(data, categoryIndex(included))
}

func toBlock(r resource, categories map[string]Category) (*Block, error) {
	var attrs struct {
		Memo      *string   `json:"memo"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.Type, err)
	}
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}
	kind, err := models.ParseKind(r.Type)
	if err != nil {
		return nil, err
	}

	b := &Block{
		ID:       id,
		Kind:     kind,
		Start:    attrs.StartTime,
		End:      attrs.EndTime,
		Category: Category{Name: UnknownCategoryName},
	}
	if attrs.Memo != nil {
		b.Memo = *attrs.Memo
	}

	if rel, ok := r.Relationships["category"]; ok && rel.Data != nil {
		if cat, ok := categories[rel.Data.ID]; ok {
			b.Category = cat
		} else if catID, err := parseID(rel.Data.ID); err == nil {
			b.Category.ID = catID
		}
	}
	return b, nil
}
