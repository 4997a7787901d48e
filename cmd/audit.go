package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the dispatch audit trail of a Toki server",
	Long: `Every handler dispatch is written to the audit trail of the server.
The subcommands query it remotely and require an admin session (see 'toki login').`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
