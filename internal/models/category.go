package models

import "time"

// Category is a shared tag applied to plans and actuals.
type Category struct {
	ID int64

	// Name is unique across all categories (e.g. "仕事").
	Name string

	// Icon is an opaque presentational identifier such as "fas briefcase".
	Icon string

	CreatedAt time.Time
	UpdatedAt time.Time
}
