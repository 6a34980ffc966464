package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with saved evaluation reports",
}

var reportRenderCmd = &cobra.Command{
	Use:   "render <run-dir>",
	Short: "Re-render Markdown and XLSX from a saved evaluation_report.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		xlsx, _ := cmd.Flags().GetBool("xlsx")
		paths, err := renderReport(args[0], xlsx || cfg.Report.XLSX)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	},
}

func init() {
	reportRenderCmd.Flags().Bool("xlsx", false, "also write an XLSX workbook")
	reportCmd.AddCommand(reportRenderCmd)
	rootCmd.AddCommand(reportCmd)
}

// renderReport reloads the JSON report in dir and rewrites its derived
// artifacts. Reports saved without a pricing table use the configured rates.
func renderReport(dir string, spreadsheet bool) ([]string, error) {
	r, err := report.LoadJSON(filepath.Join(dir, report.JSONFile))
	if err != nil {
		return nil, eris.Wrap(err, "report render")
	}
	if r.Costs.Rates == (cost.Rates{}) {
		r.Costs.Rates = cfg.Pricing
	}
	r.Spreadsheet = spreadsheet
	return report.Rerender(dir, r)
}
