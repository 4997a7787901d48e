package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and trigger background tasks of a Toki server",
	Long:  `Background tasks (like reloading the handler definitions) run on the server. Requires an admin session (toki login).`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
