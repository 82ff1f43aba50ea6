package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/barsea/schedpoint/internal/schedule"
)

const formattedDateLayout = "2006年1月2日"

// Calendar is the current-date cursor. Every navigation reloads plans and
// actuals for the new date.
type Calendar struct {
	plans   *BlockStore
	actuals *BlockStore
	loc     *time.Location
	now     func() time.Time

	mu      sync.RWMutex
	current time.Time
}

// DayResult carries the outcome of reloading both stores.
type DayResult struct {
	Plans   Result
	Actuals Result
}

// Success reports whether both fetches succeeded.
func (r DayResult) Success() bool {
	return r.Plans.Success && r.Actuals.Success
}

// NewCalendar creates a cursor positioned on today in loc.
func NewCalendar(plans, actuals *BlockStore, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	c := &Calendar{plans: plans, actuals: actuals, loc: loc, now: time.Now}
	c.current = c.today()
	return c
}

func (c *Calendar) today() time.Time {
	n := c.now().In(c.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

// Date returns the cursor as YYYY-MM-DD.
func (c *Calendar) Date() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Format(schedule.DateLayout)
}

// FormattedDate returns the cursor for display, e.g. 2024年1月15日.
func (c *Calendar) FormattedDate() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Format(formattedDateLayout)
}

// SetDate moves the cursor to date (YYYY-MM-DD) without fetching.
func (c *Calendar) SetDate(date string) error {
	d, err := schedule.ParseDate(date, c.loc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = d
	c.mu.Unlock()
	return nil
}

// Shift moves the cursor by days and reloads.
func (c *Calendar) Shift(ctx context.Context, days int) DayResult {
	c.mu.Lock()
	c.current = c.current.AddDate(0, 0, days)
	c.mu.Unlock()
	return c.Load(ctx)
}

// Today moves the cursor to the current date and reloads.
func (c *Calendar) Today(ctx context.Context) DayResult {
	c.mu.Lock()
	c.current = c.today()
	c.mu.Unlock()
	return c.Load(ctx)
}

// Load fetches plans and actuals for the cursor concurrently and returns
// once both have finished. A failure in one leaves the other intact.
func (c *Calendar) Load(ctx context.Context) DayResult {
	date := c.Date()

	var res DayResult
	var g errgroup.Group
	g.Go(func() error {
		res.Plans = c.plans.Fetch(ctx, date)
		return nil
	})
	g.Go(func() error {
		res.Actuals = c.actuals.Fetch(ctx, date)
		return nil
	})
	_ = g.Wait()
	return res
}
