package schedule

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMemoLength is the longest memo accepted, in characters.
const MaxMemoLength = 100

// FieldError is a single human-readable validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every failure found on a write. It is never
// returned empty.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return strings.Join(v.Messages(), ", ")
}

// Messages returns the messages in the order they were found.
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return msgs
}

// On reports whether any failure is attached to field.
func (v ValidationErrors) On(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// BlockDraft is the candidate state of a plan or actual about to be written.
// A zero Start or End means the bound is absent.
type BlockDraft struct {
	Memo  string
	Start time.Time
	End   time.Time

	// StartInvalid and EndInvalid mark bounds that were supplied but could not be parsed.
	StartInvalid bool
	EndInvalid   bool

	// CategoryExists is resolved by the caller against the category store.
	CategoryExists bool
}

// SetStart parses raw into the draft's start bound.
func (d *BlockDraft) SetStart(raw string, loc *time.Location) {
	d.Start, d.StartInvalid = parseBound(raw, loc)
}

// SetEnd parses raw into the draft's end bound.
func (d *BlockDraft) SetEnd(raw string, loc *time.Location) {
	d.End, d.EndInvalid = parseBound(raw, loc)
}

func parseBound(raw string, loc *time.Location) (time.Time, bool) {
	t, err := ParseTimestamp(raw, loc)
	if err != nil {
		return time.Time{}, true
	}
	return t, false
}

// ValidateBlock runs every rule and returns all failures together, or nil.
func ValidateBlock(d BlockDraft) error {
	var errs ValidationErrors

	switch {
	case d.StartInvalid:
		errs = append(errs, FieldError{"start_time", "Start time is invalid"})
	case d.Start.IsZero():
		errs = append(errs, FieldError{"start_time", "Start time can't be blank"})
	}
	switch {
	case d.EndInvalid:
		errs = append(errs, FieldError{"end_time", "End time is invalid"})
	case d.End.IsZero():
		errs = append(errs, FieldError{"end_time", "End time can't be blank"})
	}

	if utf8.RuneCountInString(d.Memo) > MaxMemoLength {
		errs = append(errs, FieldError{"memo", "Memo is too long (maximum is 100 characters)"})
	}

	// Ordering is only judged when both bounds are usable.
	if !d.Start.IsZero() && !d.End.IsZero() && d.Start.After(d.End) {
		errs = append(errs, FieldError{"start_time", "Start time must be before end time"})
	}

	if !d.CategoryExists {
		errs = append(errs, FieldError{"category", "Category must exist"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
