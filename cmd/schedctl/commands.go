package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// errReported means the failure was already printed.
var errReported = errors.New("command failed")

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schedctl",
		Short:         "Plan your day and record what actually happened.",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addSignup(topLevel)
	addLogin(topLevel)
	addLogout(topLevel)
	addCategories(topLevel)
	addDay(topLevel)
	addNext(topLevel)
	addPrev(topLevel)
	addToday(topLevel)
	addBlocks(topLevel, planCommand)
	addBlocks(topLevel, actualCommand)
}
