package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"early-warning/internal/domain"
	"early-warning/internal/risk"
)

func newPredictCmd(o *options) *cobra.Command {
	var (
		conversationsFile string
		personality       string
		details           bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Generate a risk prediction from a conversation history",
		Long: `Generate a risk prediction from a conversation history and append a trend
snapshot to the local pattern record.

The file holds either a JSON array of conversations or an object keyed by
conversation id.

Examples:
  riskctl predict --conversations history.json
  riskctl predict -c history.json --personality fitness
  cat history.json | riskctl predict -c - --details`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), conversationsFile)
			if err != nil {
				return err
			}
			convs, err := domain.DecodeConversations(data)
			if err != nil {
				return fmt.Errorf("parse conversations: %w", err)
			}

			table, err := o.loadRules()
			if err != nil {
				return err
			}
			store, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			agg, err := risk.New(store,
				risk.WithRules(table),
				risk.WithLogger(o.logger),
				risk.WithClock(o.now),
			)
			if err != nil {
				return err
			}

			report := agg.GenerateReport(cmd.Context(), convs, domain.UserProfile{
				Personality: domain.Personality(personality),
			})
			if details {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeJSON(cmd.OutOrStdout(), report.Prediction)
		},
	}

	cmd.Flags().StringVarP(&conversationsFile, "conversations", "c", "", "conversation history JSON file, - for stdin")
	cmd.Flags().StringVarP(&personality, "personality", "p", string(domain.DefaultPersonality), "personality used for recommendations")
	cmd.Flags().BoolVar(&details, "details", false, "include the temporal, behavioral and linguistic analyses")
	_ = cmd.MarkFlagRequired("conversations")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
