package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"early-warning/internal/rules"
)

func newRulesCmd(o *options) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule table",
		Long: `Print the effective rule table as YAML: the built-in defaults with the
--rules override file applied. The output is a valid override file itself.

Examples:
  riskctl rules > rules.yaml
  riskctl rules --rules rules.yaml --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := o.loadRules()
			if err != nil {
				return err
			}
			if check {
				fmt.Fprintf(cmd.OutOrStdout(), "rules OK (version %s)\n", table.Version)
				return nil
			}
			data, err := rules.Marshal(table)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only validate the rule table")
	return cmd
}
