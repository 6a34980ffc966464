package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/model"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the cost of analyzing a document",
	Long:  "Prints the per-component cost for ad-hoc page and token counts using the configured pricing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		if mode != "" {
			cfg.Service.Mode = mode
		}
		if err := cfg.Validate("cost"); err != nil {
			return err
		}

		pages, _ := cmd.Flags().GetInt("pages")
		input, _ := cmd.Flags().GetInt("input-tokens")
		output, _ := cmd.Flags().GetInt("output-tokens")
		contextual, _ := cmd.Flags().GetInt("context-tokens")

		usage := model.Usage{
			DocumentPages: pages,
			Tokens: model.TokenUsage{
				Input:             input,
				Output:            output,
				Contextualization: contextual,
			},
		}
		m := cost.ParseMode(cfg.Service.Mode)
		b := cost.NewCalculator(cfg.Pricing).Document(usage, m)

		formatCostBreakdown(os.Stdout, m, usage, b)
		return nil
	},
}

func init() {
	f := costCmd.Flags()
	f.Int("pages", 0, "document pages")
	f.Int("input-tokens", 0, "field extraction input tokens")
	f.Int("output-tokens", 0, "field extraction output tokens")
	f.Int("context-tokens", 0, "contextualization tokens")
	f.String("mode", "", "pricing mode: standard or pro (default from config)")
	rootCmd.AddCommand(costCmd)
}

// formatCostBreakdown writes a cost breakdown table to out.
func formatCostBreakdown(out io.Writer, mode cost.Mode, usage model.Usage, b cost.Breakdown) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Mode:\t%s\n", mode)
	_, _ = fmt.Fprintf(w, "Pages:\t%d\n", usage.DocumentPages)
	_, _ = fmt.Fprintf(w, "Tokens:\t%d\n", usage.Tokens.Total())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "COMPONENT\tCOST\tSHARE")
	_, _ = fmt.Fprintf(w, "Content extraction\t$%.4f\t%.1f%%\n", b.ContentExtraction, b.Share(b.ContentExtraction))
	_, _ = fmt.Fprintf(w, "Field extraction\t$%.4f\t%.1f%%\n", b.FieldExtraction, b.Share(b.FieldExtraction))
	_, _ = fmt.Fprintf(w, "Contextualization\t$%.4f\t%.1f%%\n", b.Contextualization, b.Share(b.Contextualization))
	_, _ = fmt.Fprintf(w, "Total\t$%.4f\t\n", b.Total())
	_ = w.Flush()
}
