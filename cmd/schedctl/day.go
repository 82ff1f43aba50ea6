package main

import (
	"github.com/spf13/cobra"

	"github.com/barsea/schedpoint/internal/client"
)

// showDay prints the cursor date with its plans and actuals and remembers it.
func showDay(a *app, res client.DayResult) error {
	if err := a.saveCursor(); err != nil {
		return err
	}

	a.printer.Title(a.calendar.FormattedDate())
	a.printer.NewLine()
	if res.Plans.Success {
		a.printer.Blocks("Plans", a.plans.Items())
	}
	if res.Actuals.Success {
		a.printer.Blocks("Actuals", a.actuals.Items())
	}

	if !res.Plans.Success {
		return a.report(res.Plans, "")
	}
	return a.report(res.Actuals, "")
}

func addDay(topLevel *cobra.Command) {
	o := &DateOptions{}

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show plans and actuals for a day",
		Example: `
schedctl day
schedctl day --date 2024-01-15
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			if o.Date != "" {
				if err := a.calendar.SetDate(o.Date); err != nil {
					return err
				}
			}
			return showDay(a, a.calendar.Load(cmd.Context()))
		},
	}

	AddDateArgs(cmd, o)
	topLevel.AddCommand(cmd)
}

func addShift(topLevel *cobra.Command, use, short string, days int) {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			return showDay(a, a.calendar.Shift(cmd.Context(), days))
		},
	}

	topLevel.AddCommand(cmd)
}

func addNext(topLevel *cobra.Command) {
	addShift(topLevel, "next", "Move to the next day", 1)
}

func addPrev(topLevel *cobra.Command) {
	addShift(topLevel, "prev", "Move to the previous day", -1)
}

func addToday(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Move back to today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			return showDay(a, a.calendar.Today(cmd.Context()))
		},
	}

	topLevel.AddCommand(cmd)
}
