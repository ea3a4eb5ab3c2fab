package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/utils"
)

var (
	sumOutputPath string
	sumJSON       bool
	sumSource     sourceFlags
	sumFilter     filterFlags
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file|-]",
	Short: "Load a candidate table and print the dashboard summary",
	Long: `Load a candidate table from a csv/txt/xlsx file, stdin ("-"), a published
Google Sheet (--url) or the Sheets API (--sheet-id), apply the filter flags and
print KPIs, distributions, salary statistics, regions and the heatmap.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		src, err := resolveSource(ctx, cmd, args, sumSource, c)
		if err != nil {
			return err
		}
		ctrl := dashboard.NewController(nil, warnNotifier(cmd.ErrOrStderr()), dashboardConfig(c), logger)
		res, err := loadAndFilter(ctx, cmd, ctrl, src, sumFilter)
		if err != nil {
			return err
		}

		var out []byte
		if sumJSON {
			if out, err = utils.PrettyJSON(res); err != nil {
				return err
			}
		} else {
			out = []byte(summaryMarkdown(res))
		}
		if sumOutputPath != "" {
			if err := utils.SafeWriteFile(sumOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "emit the full result as JSON")
	addSourceFlags(summaryCmd, &sumSource)
	addFilterFlags(summaryCmd, &sumFilter)
}
