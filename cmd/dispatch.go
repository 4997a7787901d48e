package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/logging"
)

var (
	dispatchOptions  []string
	dispatchRequest  []string
	dispatchResponse string
	dispatchAudit    []string
	dispatchDump     bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch ACTION",
	Short: "Run a single action against the local token store",
	Long: `Builds the token store from the config file and runs one action, the same way a handler would.
Useful to try out actions and options before putting them into a handler.

The token is taken from (in order) the request serial, the response detail serial and the audit serial.
Since the store lives in memory, changes are lost when the command exits.`,
	Example: `  # disable a seeded token
  toki dispatch disable -f toki.yaml --request serial=OATH0001

  # push the validity window by one day
  toki dispatch "set validity" -f toki.yaml --request serial=OATH0001 -o "valid from=+1d"

  # enroll a token for the user of the request
  toki dispatch enroll -f toki.yaml -o tokentype=hotp -o user=1 --request user=alice --request realm=defrealm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseKeyValues(dispatchOptions)
		if err != nil {
			return fmt.Errorf("parsing options: %w", err)
		}
		request, err := parseKeyValues(dispatchRequest)
		if err != nil {
			return fmt.Errorf("parsing request: %w", err)
		}
		auditData, err := parseKeyValues(dispatchAudit)
		if err != nil {
			return fmt.Errorf("parsing audit: %w", err)
		}
		var response map[string]any
		if dispatchResponse != "" {
			if err := json.Unmarshal([]byte(dispatchResponse), &response); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
		}

		recorder := logging.NewRecorder()
		reporter := logging.NewMultiLogger(recorder, logging.NewZLogger(log.Logger.With().
			Str("correlation_id", xid.New().String()).
			Logger()))

		rt, err := f.BuildRuntime(cmd.Context(), reporter)
		if err != nil {
			return err
		}
		defer rt.Close()

		ec := core.EventContext{
			Request:  request,
			Response: response,
			Audit:    auditData,
			Options:  core.OptionsOf(opts),
		}
		if dispatchDump {
			spew.Fdump(os.Stderr, ec)
		}

		result, err := rt.Dispatcher.Dispatch(cmd.Context(), args[0], ec)
		printDiagnostics(recorder)
		if err != nil {
			log.Error().Err(err).Msgf("%s %s failed", redCross, args[0])
			return BeQuietError{}
		}

		switch result.Outcome {
		case dispatch.OutcomeExecuted:
			log.Info().Msgf("%s %s executed on %s", greenCheck, bold(result.Action), bold(result.Serial))
			if tok, err := rt.Store.Get(cmd.Context(), result.Serial); err == nil {
				printToken(tok)
			}
		case dispatch.OutcomeSkipped:
			log.Warn().Msgf("%s skipped, no token serial in the event", bold(result.Action))
		default:
			log.Warn().Msgf("unknown action %q ignored", args[0])
		}
		return nil
	},
}

func printDiagnostics(rec *logging.Recorder) {
	for _, line := range rec.Lines() {
		var level string
		switch line.Level {
		case "info":
			level = color.GreenString("inf")
		case "warn":
			level = color.YellowString("wrn")
		case "error":
			level = color.RedString("err")
		default:
			level = faint(line.Level)
		}
		fmt.Printf("  %s %s\n", level, line.Message)
	}
}

func printToken(tok *core.Token) {
	owner := faint("(unassigned)")
	if tok.Owner != nil {
		owner = tok.Owner.String()
	}
	fmt.Println(bold("\n── Token " + tok.Serial + " ──"))
	fmt.Printf("  %s:         %s\n", faint("Type"), tok.Type)
	fmt.Printf("  %s:       %t\n", faint("Active"), tok.Active)
	fmt.Printf("  %s:        %s\n", faint("Owner"), owner)
	fmt.Printf("  %s:       %v\n", faint("Realms"), tok.Realms)
	fmt.Printf("  %s:  %s\n", faint("Description"), tok.Description)
	fmt.Printf("  %s: %d\n", faint("Count window"), tok.CountWindow)
	if tok.ValidityStart != "" || tok.ValidityEnd != "" {
		fmt.Printf("  %s:     %s .. %s\n", faint("Validity"), tok.ValidityStart, tok.ValidityEnd)
	}
	for k, v := range tok.Info {
		fmt.Printf("  %s %s = %s\n", faint("info"), k, v)
	}
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	f.bindConfigFlag(dispatchCmd.Flags())
	dispatchCmd.Flags().StringArrayVarP(&dispatchOptions, "option", "o", nil, "Action option as key=value (repeatable)")
	dispatchCmd.Flags().StringArrayVar(&dispatchRequest, "request", nil, "Request parameter as key=value (repeatable)")
	dispatchCmd.Flags().StringVar(&dispatchResponse, "response", "", `Response body as JSON, e.g. '{"detail": {"serial": "X"}}'`)
	dispatchCmd.Flags().StringArrayVar(&dispatchAudit, "audit", nil, "Audit field as key=value (repeatable)")
	dispatchCmd.Flags().BoolVar(&dispatchDump, "dump", false, "Dump the event context before dispatching")
}
