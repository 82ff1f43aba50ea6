package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/barsea/schedpoint/internal/client"
	"github.com/barsea/schedpoint/internal/models"
)

type blockCommand struct {
	kind  models.Kind
	short string
	// show is only offered where the server has a show route.
	show bool
}

var (
	planCommand   = blockCommand{kind: models.KindPlan, short: "Manage planned time blocks", show: true}
	actualCommand = blockCommand{kind: models.KindActual, short: "Manage recorded time blocks"}
)

func addBlocks(topLevel *cobra.Command, bc blockCommand) {
	cmd := &cobra.Command{
		Use:   bc.kind.String(),
		Short: bc.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addBlockAdd(cmd, bc.kind)
	if bc.show {
		addBlockShow(cmd, bc.kind)
	}
	addBlockEdit(cmd, bc.kind)
	addBlockRm(cmd, bc.kind)

	topLevel.AddCommand(cmd)
}

func addBlockAdd(topLevel *cobra.Command, kind models.Kind) {
	o := &BlockOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a " + kind.String(),
		Example: `
schedctl ` + kind.String() + ` add --start 09:00 --end 10:30 --category 仕事 --memo "weekly review"
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("start") || !cmd.Flags().Changed("end") || !cmd.Flags().Changed("category") {
				return errors.New("--start, --end and --category are required")
			}
			fields, err := o.Fields(cmd.Context(), cmd, a, a.calendar.Date())
			if err != nil {
				return err
			}
			return a.report(a.store(kind).Create(cmd.Context(), fields), "Created.")
		},
	}

	AddBlockArgs(cmd, o)
	topLevel.AddCommand(cmd)
}

func addBlockShow(topLevel *cobra.Command, kind models.Kind) {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one " + kind.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			b, err := a.client.GetBlock(cmd.Context(), kind, id)
			if err != nil {
				return a.report(client.ResultOf(err), "")
			}
			a.printer.Block(*b)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addBlockEdit(topLevel *cobra.Command, kind models.Kind) {
	o := &BlockOptions{}

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a " + kind.String(),
		Example: `
schedctl ` + kind.String() + ` edit 12 --end 11:00
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			fields, err := o.Fields(cmd.Context(), cmd, a, a.calendar.Date())
			if err != nil {
				return err
			}
			return a.report(a.store(kind).Update(cmd.Context(), id, fields), "Updated.")
		},
	}

	AddBlockArgs(cmd, o)
	topLevel.AddCommand(cmd)
}

func addBlockRm(topLevel *cobra.Command, kind models.Kind) {
	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a " + kind.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.report(a.store(kind).Delete(cmd.Context(), id), "Deleted.")
		},
	}

	topLevel.AddCommand(cmd)
}
