package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the stored trend snapshots",
		Long: `Show the trend snapshots kept in the pattern record. Snapshots older than
30 days are dropped on the next prediction.

Examples:
  riskctl history
  riskctl history --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			rec := store.Record()
			out := cmd.OutOrStdout()

			if asJSON {
				return writeJSON(out, rec)
			}
			if len(rec.TemporalTrends) == 0 {
				fmt.Fprintf(out, "No trend snapshots recorded for %q.\n", store.Key())
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tMOOD SLOPE\tCONFIDENCE\tFREQUENCY\tLINGUISTIC RISK")
			for _, s := range rec.TemporalTrends {
				fmt.Fprintf(tw, "%s\t%.3f\t%.2f\t%s\t%.2f\n",
					s.Timestamp.Local().Format(time.DateTime),
					s.MoodTrendSlope,
					s.MoodTrendConfidence,
					s.BehavioralPatterns.FrequencyPattern,
					s.LinguisticMarkers.RiskScore,
				)
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "\n%d snapshot(s)\n", len(rec.TemporalTrends))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full pattern record as JSON")
	return cmd
}
