package cmd

import (
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Send events to a Toki server",
}

func init() {
	rootCmd.AddCommand(eventCmd)
}
