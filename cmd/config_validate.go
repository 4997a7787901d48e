package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Loads the configuration, builds the token store and checks every handler against the
actions it offers: known action, required options, allowed values and conditions.`,
	Example: `  toki config validate -f toki.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := f.BuildRuntime(cmd.Context(), nil)
		if err != nil {
			log.Error().Err(err).Msgf("%s Configuration is invalid.", redCross)
			return BeQuietError{}
		}
		defer rt.Close()

		handlers := rt.Manager.Handlers().Handlers()
		if len(handlers) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"#", "Handler", "Events", "Action", "Condition", "Active"})
			for i, h := range handlers {
				active := "yes"
				if !h.IsActive() {
					active = faint("no")
				}
				t.AppendRow(table.Row{
					i + 1,
					bold(h.Name),
					strings.Join(h.Events, ", "),
					h.Action,
					truncate(h.Condition, 40),
					active,
				})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
		}

		log.Info().Msgf("%s Configuration is valid.", greenCheck)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)

	f.bindConfigFlag(configValidateCmd.Flags())
}
