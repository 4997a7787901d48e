package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/darmiel/toki/internal/core"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [SERIAL]",
	Short: "Show the tokens of a Toki server",
	Long: `Lists all tokens of the remote token store, or shows a single token if a serial is given.
Requires an admin session (see 'toki login').`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			tok, correlation, err := cli.GetToken(cmd.Context(), args[0])
			if err != nil {
				return logError(err, correlation, "failed to get token")
			}
			printToken(tok)
			return nil
		}

		tokens, correlation, err := cli.ListTokens(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to list tokens")
		}
		printTokens(tokens)
		return nil
	},
}

func printTokens(tokens []core.Token) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Serial", "Type", "Active", "Owner", "Realms", "Description"})
	for _, tok := range tokens {
		active := redCross
		if tok.Active {
			active = greenCheck
		}
		owner := ""
		if tok.Owner != nil {
			owner = tok.Owner.String()
		}
		t.AppendRow(table.Row{
			tok.Serial,
			tok.Type,
			active,
			owner,
			strings.Join(tok.Realms, ", "),
			truncate(tok.Description, 40),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
