package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/internal/actions"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the available actions and their options",
	Long: `Shows every action a handler can perform together with its options.
Allowed values of the realm and tokentype options reflect the realms and token types known right now.

Uses the local config (-f) or, if --server is set, asks the remote server.`,
	Example: `  toki actions -f toki.yaml
  toki actions --server http://localhost:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var catalog actions.Catalog
		if f.RemoteAddr != "" {
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			var correlation string
			catalog, correlation, err = cli.ListActions(cmd.Context())
			if err != nil {
				return logError(err, correlation, "failed to list actions")
			}
		} else {
			rt, err := f.BuildRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer rt.Close()
			if catalog, err = actions.List(cmd.Context(), rt.Store, rt.Store); err != nil {
				return err
			}
		}

		printCatalog(catalog)
		return nil
	},
}

func printCatalog(catalog actions.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Action", "Option", "Type", "Required", "Values", "Description"})

	for _, name := range actions.Names() {
		opts, ok := catalog[name]
		if !ok {
			continue
		}
		if len(opts) == 0 {
			t.AppendRow(table.Row{bold(name), faint("(none)"), "", "", "", ""})
			t.AppendSeparator()
			continue
		}
		for i, optName := range actions.OptionNames(opts) {
			d := opts[optName]
			action := ""
			if i == 0 {
				action = bold(name)
			}
			required := ""
			if d.Required {
				required = greenCheck
			}
			values := ""
			if d.Enumerated() {
				values = "[" + strings.Join(d.Values, ", ") + "]"
			}
			t.AppendRow(table.Row{action, d.Name, string(d.Type), required, values, truncate(d.Description, 60)})
		}
		t.AppendSeparator()
	}

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
	log.Debug().Msgf("%d actions", len(catalog))
}

func init() {
	rootCmd.AddCommand(actionsCmd)

	f.bindConfigFlag(actionsCmd.Flags())
}
