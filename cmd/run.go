package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/evaluate"
	"github.com/sells-group/cu-eval/internal/store"
	cu "github.com/sells-group/cu-eval/pkg/contentunderstanding"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evaluation over the input documents",
	Long:  "Recreates the analyzer, analyzes every input document, scores the results against ground truth and writes a report folder under the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		var st store.Store
		noStore, _ := cmd.Flags().GetBool("no-store")
		if !noStore {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		client := cu.NewClient(cfg.Service.Endpoint, cfg.Service.APIKey,
			cu.WithAPIVersion(cfg.Service.APIVersion),
			cu.WithTimeout(cfg.Service.Timeout()),
			cu.WithRateLimit(cfg.Service.RequestsPerSecond),
		)

		ev := evaluate.New(client, cost.NewCalculator(cfg.Pricing), st, evaluateOptions())
		res, err := ev.Run(ctx)
		if eris.Is(err, evaluate.ErrNoInputs) {
			fmt.Fprintf(os.Stderr, "No input files found in %s.\n", cfg.Paths.Input)
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "run")
		}

		zap.L().Info("report written", zap.String("dir", res.Dir), zap.Strings("files", res.Files))
		printSummary(os.Stdout, res)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.String("analyzer-id", "", "analyzer id (default from config)")
	f.String("mode", "", "analyzer mode: standard or pro (default from config)")
	f.String("schema", "", "field schema file (default from config)")
	f.String("input", "", "input documents directory (default from config)")
	f.String("test-data", "", "ground truth directory (default from config)")
	f.String("output", "", "output directory for run folders (default from config)")
	f.Int("concurrency", 0, "documents analyzed in parallel (default from config)")
	f.Bool("skip-create", false, "reuse the existing analyzer instead of recreating it")
	f.Bool("xlsx", false, "also write an XLSX workbook")
	f.Bool("no-store", false, "do not record the run in the history store")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides config values with flags set on the command line.
func applyRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"analyzer-id", &cfg.Service.AnalyzerID},
		{"mode", &cfg.Service.Mode},
		{"schema", &cfg.Paths.SchemaFile},
		{"input", &cfg.Paths.Input},
		{"test-data", &cfg.Paths.TestData},
		{"output", &cfg.Paths.Output},
	}
	for _, o := range overrides {
		if f.Changed(o.flag) {
			*o.dst, _ = f.GetString(o.flag)
		}
	}
	if f.Changed("concurrency") {
		cfg.Evaluate.Concurrency, _ = f.GetInt("concurrency")
	}
	if skip, _ := f.GetBool("skip-create"); skip {
		cfg.Evaluate.RecreateAnalyzer = false
	}
	if x, _ := f.GetBool("xlsx"); x {
		cfg.Report.XLSX = true
	}
}

func evaluateOptions() evaluate.Options {
	return evaluate.Options{
		AnalyzerID:       cfg.Service.AnalyzerID,
		Mode:             cost.ParseMode(cfg.Service.Mode),
		SchemaFile:       cfg.Paths.SchemaFile,
		InputDir:         cfg.Paths.Input,
		TestDataDir:      cfg.Paths.TestData,
		OutputDir:        cfg.Paths.Output,
		Concurrency:      cfg.Evaluate.Concurrency,
		RecreateAnalyzer: cfg.Evaluate.RecreateAnalyzer,
		Spreadsheet:      cfg.Report.XLSX,
		Poll: []cu.PollOption{
			cu.WithPollInterval(time.Duration(cfg.Poll.IntervalSecs) * time.Second),
			cu.WithPollCap(time.Duration(cfg.Poll.CapSecs) * time.Second),
			cu.WithPollTimeout(time.Duration(cfg.Poll.TimeoutMins) * time.Minute),
		},
	}
}

// printSummary writes the console summary of a finished run to out.
func printSummary(out io.Writer, res *evaluate.Result) {
	r := res.Report
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Evaluation complete: %s\n", r.Metadata.RunID)
	_, _ = fmt.Fprintf(w, "Report directory:\t%s\n", res.Dir)
	_, _ = fmt.Fprintf(w, "Documents analyzed:\t%d\n", r.Summary.DocumentsAnalyzed)

	if r.Scored() {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "FIELD\tPASSES\tFAILS\tACCURACY")
		for _, a := range r.Results.FieldPerformance {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\n", a.Field, a.Passes, a.Fails, a.Accuracy())
		}
		_, _ = fmt.Fprintf(w, "Overall accuracy:\t%.2f%% (%d/%d fields)\n",
			r.Summary.OverallAccuracy, r.Summary.FieldPasses, r.Summary.TotalFieldsTested)
	} else {
		_, _ = fmt.Fprintln(w, "No ground truth found; accuracy not scored.")
	}

	agg := r.Costs.Aggregate
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Content extraction:\t$%.4f\n", agg.ContentExtraction)
	_, _ = fmt.Fprintf(w, "Field extraction:\t$%.4f\n", agg.FieldExtraction)
	_, _ = fmt.Fprintf(w, "Contextualization:\t$%.4f\n", agg.Contextualization)
	_, _ = fmt.Fprintf(w, "Total cost:\t$%.4f\n", agg.Total())
	_ = w.Flush()
}
