package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "helpdesk",
		Short:        "Helpdesk ticketing API: clients open tickets, technicians resolve them",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}
