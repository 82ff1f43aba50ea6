package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/barsea/schedpoint/internal/client"
	"github.com/barsea/schedpoint/internal/config"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/printers"
)

// app wires the client state containers for one invocation.
type app struct {
	cfg        *config.ClientConfig
	client     *client.Client
	session    *client.Session
	categories *client.CategoryStore
	plans      *client.BlockStore
	actuals    *client.BlockStore
	calendar   *client.Calendar
	printer    *printers.PrettyPrint
}

// newApp is replaced in tests.
var newApp = loadApp

func loadApp() (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg, printers.New())
}

func buildApp(cfg *config.ClientConfig, printer *printers.PrettyPrint) (*app, error) {
	c := client.New(cfg.APIURL)
	categories := client.NewCategoryStore(c)
	plans := client.NewBlockStore(c, models.KindPlan)
	actuals := client.NewBlockStore(c, models.KindActual)

	a := &app{
		cfg:        cfg,
		client:     c,
		session:    client.NewSession(c, cfg.TokenPath, categories),
		categories: categories,
		plans:      plans,
		actuals:    actuals,
		calendar:   client.NewCalendar(plans, actuals, cfg.Location),
		printer:    printer,
	}
	if err := a.session.Restore(); err != nil {
		return nil, err
	}
	if err := a.restoreCursor(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) store(kind models.Kind) *client.BlockStore {
	if kind == models.KindActual {
		return a.actuals
	}
	return a.plans
}

// restoreCursor moves the calendar to the saved date. A missing or stale
// file leaves the cursor on today.
func (a *app) restoreCursor() error {
	if a.cfg.StatePath == "" {
		return nil
	}
	raw, err := os.ReadFile(a.cfg.StatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cursor file: %w", err)
	}
	_ = a.calendar.SetDate(strings.TrimSpace(string(raw)))
	return nil
}

func (a *app) saveCursor() error {
	if a.cfg.StatePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.StatePath), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(a.cfg.StatePath, []byte(a.calendar.Date()+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write cursor file: %w", err)
	}
	return nil
}

// report prints res and turns a failure into errReported.
func (a *app) report(res client.Result, msg string) error {
	a.printer.Result(res, msg)
	if !res.Success {
		return errReported
	}
	return nil
}
