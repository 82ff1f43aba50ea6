package api

import (
	"strconv"
	"time"

	"github.com/barsea/schedpoint/internal/models"
)

// timeFormat renders block bounds with millisecond precision and the zone offset.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type resourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type relationship struct {
	Data *resourceIdentifier `json:"data"`
}

type blockAttributes struct {
	ID        int64   `json:"id"`
	Memo      *string `json:"memo"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
}

type blockRelationships struct {
	Category relationship `json:"category"`
}

type blockResource struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Attributes    blockAttributes    `json:"attributes"`
	Relationships blockRelationships `json:"relationships"`
}

type categoryAttributes struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type categoryResource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes categoryAttributes `json:"attributes"`
}

type userAttributes struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes userAttributes `json:"attributes"`
}

// document is the top-level response envelope.
type document[T any] struct {
	Data T `json:"data"`
}

// blockDocument adds the categories referenced by the primary data.
type blockDocument[T any] struct {
	Data     T                  `json:"data"`
	Included []categoryResource `json:"included"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func serializeCategory(c *models.Category) categoryResource {
	return categoryResource{
		ID:   formatID(c.ID),
		Type: "category",
		Attributes: categoryAttributes{
			ID:   c.ID,
			Name: c.Name,
			Icon: c.Icon,
		},
	}
}

func serializeUser(u *models.User) document[userResource] {
	return document[userResource]{Data: userResource{
		ID:   formatID(u.ID),
		Type: "user",
		Attributes: userAttributes{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		},
	}}
}

func serializeCategories(categories []*models.Category) document[[]categoryResource] {
	data := make([]categoryResource, len(categories))
	for i, c := range categories {
		data[i] = serializeCategory(c)
	}
	return document[[]categoryResource]{Data: data}
}

func serializeBlock(b *models.TimeBlock, loc *time.Location) blockResource {
	var memo *string
	if b.Memo != "" {
		memo = &b.Memo
	}
	return blockResource{
		ID:   formatID(b.ID),
		Type: b.Kind.String(),
		Attributes: blockAttributes{
			ID:        b.ID,
			Memo:      memo,
			StartTime: b.StartTime.In(loc).Format(timeFormat),
			EndTime:   b.EndTime.In(loc).Format(timeFormat),
		},
		Relationships: blockRelationships{
			Category: relationship{Data: &resourceIdentifier{ID: formatID(b.CategoryID), Type: "category"}},
		},
	}
}

func serializeBlockDocument(b *models.TimeBlock, loc *time.Location) blockDocument[blockResource] {
	doc := blockDocument[blockResource]{
		Data:     serializeBlock(b, loc),
		Included: []categoryResource{},
	}
	if b.Category != nil {
		doc.Included = append(doc.Included, serializeCategory(b.Category))
	}
	return doc
}

// serializeBlocks includes each referenced category once, in first-seen order.
func serializeBlocks(blocks []*models.TimeBlock, loc *time.Location) blockDocument[[]blockResource] {
	doc := blockDocument[[]blockResource]{
		Data:     make([]blockResource, len(blocks)),
		Included: []categoryResource{},
	}
	seen := make(map[int64]bool)
	for i, b := range blocks {
		doc.Data[i] = serializeBlock(b, loc)
		if b.Category != nil && !seen[b.Category.ID] {
			seen[b.Category.ID] = true
			doc.Included = append(doc.Included, serializeCategory(b.Category))
		}
	}
	return doc
}
