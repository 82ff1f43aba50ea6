package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/barsea/schedpoint/internal/client"
	"github.com/barsea/schedpoint/internal/schedule"
)

// CredentialOptions
type CredentialOptions struct {
	Name     string
	Email    string
	Password string
}

func AddCredentialArgs(cmd *cobra.Command, o *CredentialOptions, withName bool) {
	if withName {
		cmd.Flags().StringVar(&o.Name, "name", "", "Display name.")
		_ = cmd.MarkFlagRequired("name")
	}
	cmd.Flags().StringVar(&o.Email, "email", "", "Account email.")
	cmd.Flags().StringVar(&o.Password, "password", "", "Account password.")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

// DateOptions
type DateOptions struct {
	Date string
}

func AddDateArgs(cmd *cobra.Command, o *DateOptions) {
	cmd.Flags().StringVar(&o.Date, "date", "",
		`Day to show, example: --date="2024-01-15". Defaults to the last day viewed.`)
}

// BlockOptions
type BlockOptions struct {
	Start    string
	End      string
	Category string
	Memo     string
}

func AddBlockArgs(cmd *cobra.Command, o *BlockOptions) {
	cmd.Flags().StringVar(&o.Start, "start", "",
		`Start time, "09:00" on the current day or "2024-01-15 09:00".`)
	cmd.Flags().StringVar(&o.End, "end", "",
		`End time, "10:30" on the current day or "2024-01-16 07:00".`)
	cmd.Flags().StringVar(&o.Category, "category", "", "Category id or name.")
	cmd.Flags().StringVar(&o.Memo, "memo", "", "Short note, at most 100 characters.")
}

// Fields converts the flags that were set into block fields. Bare clock
// times are read on date.
func (o *BlockOptions) Fields(ctx context.Context, cmd *cobra.Command, a *app, date string) (client.BlockFields, error) {
	var fields client.BlockFields
	flags := cmd.Flags()
	loc := a.cfg.Location

	if flags.Changed("start") {
		t, err := resolveTime(o.Start, date, loc)
		if err != nil {
			return fields, fmt.Errorf("invalid --start: %w", err)
		}
		fields.StartTime = &t
	}
	if flags.Changed("end") {
		t, err := resolveTime(o.End, date, loc)
		if err != nil {
			return fields, fmt.Errorf("invalid --end: %w", err)
		}
		fields.EndTime = &t
	}
	if flags.Changed("memo") {
		memo := o.Memo
		fields.Memo = &memo
	}
	if flags.Changed("category") {
		id, err := resolveCategory(ctx, a, o.Category)
		if err != nil {
			return fields, err
		}
		fields.CategoryID = &id
	}
	return fields, nil
}

func resolveTime(value, date string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "-") {
		value = date + " " + value
	}
	t, err := schedule.ParseTimestamp(value, loc)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, errors.New("time is required")
	}
	return t, nil
}

func resolveCategory(ctx context.Context, a *app, value string) (int64, error) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	if res := a.categories.Fetch(ctx); !res.Success {
		return 0, errors.New(strings.Join(res.Errors, ", "))
	}
	for _, c := range a.categories.Items() {
		if c.Name == value {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", value)
}

func parseBlockID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("requires a block id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid block id %q", args[0])
	}
	return id, nil
}
