package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/internal/api"
)

var (
	triggerRequest  []string
	triggerResponse string
	triggerAudit    []string
	triggerPayload  string
)

var eventTriggerCmd = &cobra.Command{
	Use:   "trigger EVENT",
	Short: "Trigger an event and show what the handlers did",
	Long: `Sends an event to the server. Every active handler subscribed to the event whose condition holds is dispatched.

The payload is either built from --request/--audit key=value pairs and a --response JSON body,
or given as a whole with --payload (JSON, '-' reads stdin).`,
	Example: `  toki event trigger token_init --request user=alice --request realm=defrealm \
    --response '{"detail": {"serial": "HOTP0001"}}'

  echo '{"request": {"serial": "OATH0001"}}' | toki event trigger validate_check --payload -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := buildEventPayload()
		if err != nil {
			return err
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		resp, correlation, err := cli.TriggerEvent(cmd.Context(), args[0], payload)
		if err != nil {
			return logError(err, correlation, fmt.Sprintf("event %s failed", args[0]))
		}

		if len(resp.Outcomes) == 0 {
			log.Info().Str("correlation_id", resp.CorrelationID).
				Msgf("no handler subscribed to %s", bold(resp.Event))
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Handler", "Action", "Outcome", "Serial", "Error"})
		for _, o := range resp.Outcomes {
			mark := greenCheck
			if o.Error != "" {
				mark = redCross
			}
			t.AppendRow(table.Row{o.Handler, o.Action, mark + " " + o.Outcome, o.Serial, o.Error})
		}
		t.SetStyle(table.StyleLight)
		t.Render()

		log.Info().Str("correlation_id", resp.CorrelationID).
			Msgf("%d handler(s) dispatched for %s", len(resp.Outcomes), bold(resp.Event))
		return nil
	},
}

func buildEventPayload() (api.EventPayload, error) {
	var payload api.EventPayload
	if triggerPayload != "" {
		data := []byte(triggerPayload)
		if triggerPayload == "-" {
			var err error
			if data, err = readAllStdin(); err != nil {
				return payload, fmt.Errorf("reading payload: %w", err)
			}
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return payload, fmt.Errorf("parsing payload: %w", err)
		}
		return payload, nil
	}

	var err error
	if payload.Request, err = parseKeyValues(triggerRequest); err != nil {
		return payload, fmt.Errorf("parsing request: %w", err)
	}
	if payload.Audit, err = parseKeyValues(triggerAudit); err != nil {
		return payload, fmt.Errorf("parsing audit: %w", err)
	}
	if triggerResponse != "" {
		if err := json.Unmarshal([]byte(triggerResponse), &payload.Response); err != nil {
			return payload, fmt.Errorf("parsing response: %w", err)
		}
	}
	return payload, nil
}

func init() {
	eventCmd.AddCommand(eventTriggerCmd)

	flags := eventTriggerCmd.Flags()
	flags.StringArrayVar(&triggerRequest, "request", nil, "Request parameter as key=value (repeatable)")
	flags.StringVar(&triggerResponse, "response", "", "Response body as JSON")
	flags.StringArrayVar(&triggerAudit, "audit", nil, "Audit field as key=value (repeatable)")
	flags.StringVar(&triggerPayload, "payload", "", "Whole event payload as JSON ('-' reads stdin)")
	eventTriggerCmd.MarkFlagsMutuallyExclusive("payload", "request")
	eventTriggerCmd.MarkFlagsMutuallyExclusive("payload", "response")
	eventTriggerCmd.MarkFlagsMutuallyExclusive("payload", "audit")
}
