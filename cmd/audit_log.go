package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/pkg/client"
)

var auditLogOpts client.ListAuditsOpts

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	Long: `Lists the most recent dispatches recorded by the server.
Filters are combined, string filters are matched case-insensitive.`,
	Example: `  toki audit log -n 10
  toki audit log --event token_init --failed
  toki audit log --serial OATH0001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), auditLogOpts)
		if err != nil {
			return logError(err, correlation, "failed to fetch audit log")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Event", "Handler", "Action", "Serial", "Owner", "Outcome", "Error",
		})

		for _, e := range audits {
			outcome := e.Outcome
			if e.Success {
				outcome = fmt.Sprintf("%s %s", greenCheck, outcome)
			} else {
				outcome = fmt.Sprintf("%s %s", redCross, outcome)
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Event,
				e.Handler,
				e.Action,
				e.Serial,
				e.Owner,
				outcome,
				truncate(e.Error, 50),
			})
		}

		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	flags := auditLogCmd.Flags()
	flags.UintVarP(&auditLogOpts.Limit, "limit", "n", 25, "Number of audit entries to retrieve")
	flags.StringVar(&auditLogOpts.CorrelationID, "correlation-id", "", "Only entries of this request")
	flags.StringVar(&auditLogOpts.Event, "event", "", "Only entries of this event")
	flags.StringVar(&auditLogOpts.Handler, "handler", "", "Only entries of this handler")
	flags.StringVar(&auditLogOpts.Serial, "serial", "", "Only entries for this token serial")
	flags.StringVar(&auditLogOpts.Owner, "owner", "", "Only entries for this owner (user@realm)")
	flags.BoolVar(&auditLogOpts.FailedOnly, "failed", false, "Only failed dispatches")
}
