package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Manuloff/customer-retention/internal/service"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print monthly retention outcomes",
		Long: `Print closed cases per month and offer type with income, expenses and
profit of the retained contracts.

Example:
  retention stats
  retention stats --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := service.NewStatsService(rt.store.Cases()).MonthlyOutcomes(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return writeStatsTable(cmd.OutOrStdout(), summary)
		},
	}
}

func writeStatsTable(w io.Writer, summary *service.StatsSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tOFFER\tRETAINED\tCHURNED\tINCOME\tEXPENSES\tPROFIT")
	for _, b := range summary.Buckets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
			b.Month, b.OfferType, b.Retained, b.Churned, b.Income, b.Expenses, b.Profit())
	}
	fmt.Fprintf(tw, "TOTAL\t\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
		summary.Retained, summary.Churned, summary.Income, summary.Expenses, summary.Profit)
	return tw.Flush()
}
