package models

import (
	"fmt"
	"time"
)

// Kind distinguishes the two independent time block collections.
type Kind string

const (
	// KindPlan is a scheduled, future-oriented block.
	KindPlan Kind = "plan"
	// KindActual records what really happened.
	KindActual Kind = "actual"
)

// ParseKind converts a resource name ("plan", "plans", "actual", "actuals") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "plan", "plans":
		return KindPlan, nil
	case "actual", "actuals":
		return KindActual, nil
	}
	return "", fmt.Errorf("unknown time block kind: %q", s)
}

// Plural returns the collection name, which is also the table name.
func (k Kind) Plural() string {
	return string(k) + "s"
}

func (k Kind) String() string {
	return string(k)
}

// TimeBlock is a plan or an actual.
type TimeBlock struct {
	ID     int64
	Kind   Kind
	UserID int64

	CategoryID int64

	// Category is populated by reads that join the categories table.
	Category *Category

	// Memo is an optional note of at most 100 characters.
	Memo string

	StartTime time.Time
	EndTime   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
