// Package evaluate drives one evaluation run: it submits every input
// document for analysis, prices and scores the results, writes the report
// artifacts and records the run in the history store.
package evaluate

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cu-eval/internal/cost"
	"github.com/sells-group/cu-eval/internal/dataset"
	"github.com/sells-group/cu-eval/internal/model"
	"github.com/sells-group/cu-eval/internal/report"
	"github.com/sells-group/cu-eval/internal/scorer"
	"github.com/sells-group/cu-eval/internal/store"
	cu "github.com/sells-group/cu-eval/pkg/contentunderstanding"
)

// ErrNoInputs is returned when the input directory holds no supported
// documents. No report is produced in that case.
var ErrNoInputs = eris.New("evaluate: no input files")

// Options configures a run.
type Options struct {
	AnalyzerID       string
	Mode             cost.Mode
	SchemaFile       string
	InputDir         string
	TestDataDir      string
	OutputDir        string
	Concurrency      int
	RecreateAnalyzer bool
	Spreadsheet      bool
	Poll             []cu.PollOption
}

// Result describes a finished run.
type Result struct {
	RunID  string // history store id; empty without a store
	Dir    string
	Files  []string
	Report *report.Report
}

// Evaluator runs evaluations against a Content Understanding client.
type Evaluator struct {
	client cu.Client
	calc   *cost.Calculator
	store  store.Store
	opts   Options
	now    func() time.Time
}

// New creates an Evaluator. st may be nil to skip run history.
func New(client cu.Client, calc *cost.Calculator, st store.Store, opts Options) *Evaluator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Evaluator{
		client: client,
		calc:   calc,
		store:  st,
		opts:   opts,
		now:    time.Now,
	}
}

// documentOutcome is the per-document result of the fan-out.
type documentOutcome struct {
	cost   cost.DocumentCost
	sheet  *model.DocumentScoreSheet
	record model.DocumentRecord
}

// Run performs one evaluation run.
func (e *Evaluator) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("analyzer_id", e.opts.AnalyzerID), zap.String("mode", string(e.opts.Mode)))

	fieldSchema, err := dataset.LoadFieldSchema(e.opts.SchemaFile)
	if err != nil {
		return nil, err
	}
	def := cu.NewAnalyzerDefinition(e.opts.SchemaFile, string(e.opts.Mode), fieldSchema)

	docs, err := dataset.Discover(e.opts.InputDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		log.Warn("no input files found", zap.String("dir", e.opts.InputDir))
		return nil, ErrNoInputs
	}

	if e.opts.RecreateAnalyzer {
		if err := e.recreateAnalyzer(ctx, log, def); err != nil {
			return nil, err
		}
	}
	analyzerConfig, err := json.Marshal(def)
	if err != nil {
		return nil, eris.Wrap(err, "evaluate: marshal analyzer definition")
	}

	dir, number, err := report.NextRunFolder(e.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	label := report.RunLabel(number)
	log = log.With(zap.String("run", label))
	log.Info("evaluation run started", zap.String("dir", dir), zap.Int("documents", len(docs)))

	res := &Result{Dir: dir}
	if e.store != nil {
		run, err := e.store.CreateRun(ctx, model.Run{
			Label:      label,
			AnalyzerID: e.opts.AnalyzerID,
			Mode:       string(e.opts.Mode),
		})
		if err != nil {
			return nil, eris.Wrap(err, "evaluate: record run")
		}
		res.RunID = run.ID
	}

	outcomes, err := e.processAll(ctx, log, dir, docs)
	if err != nil {
		e.fail(ctx, log, res.RunID, err)
		return nil, err
	}

	var (
		sheets  []model.DocumentScoreSheet
		costs   = make([]cost.DocumentCost, 0, len(outcomes))
		records = make([]model.DocumentRecord, 0, len(outcomes))
	)
	for _, o := range outcomes {
		costs = append(costs, o.cost)
		records = append(records, o.record)
		if o.sheet != nil {
			sheets = append(sheets, *o.sheet)
		}
	}

	rep := report.Build(report.Input{
		RunNumber:      number,
		At:             e.now(),
		AnalyzerID:     e.opts.AnalyzerID,
		Mode:           e.opts.Mode,
		SchemaFile:     e.opts.SchemaFile,
		Rates:          e.calc.Rates(),
		Sheets:         sheets,
		Costs:          costs,
		AnalyzerConfig: analyzerConfig,
	})
	rep.Spreadsheet = e.opts.Spreadsheet

	files, err := report.Write(dir, rep)
	if err != nil {
		e.fail(ctx, log, res.RunID, err)
		return nil, err
	}
	res.Files = files
	res.Report = rep

	if e.store != nil {
		outcome := model.RunOutcome{
			Summary:   rep.Summary,
			TotalCost: rep.Costs.Aggregate.Total(),
			ReportDir: dir,
			Documents: records,
		}
		if err := e.store.CompleteRun(ctx, res.RunID, outcome); err != nil {
			return nil, eris.Wrap(err, "evaluate: record run outcome")
		}
	}

	log.Info("evaluation run complete",
		zap.Int("documents", rep.Summary.DocumentsAnalyzed),
		zap.Float64("accuracy", rep.Summary.OverallAccuracy),
		zap.Float64("total_cost", rep.Costs.Aggregate.Total()),
	)
	return res, nil
}

func (e *Evaluator) recreateAnalyzer(ctx context.Context, log *zap.Logger, def cu.AnalyzerDefinition) error {
	deleted, err := e.client.DeleteAnalyzer(ctx, e.opts.AnalyzerID)
	if err != nil {
		// A failed delete is not fatal; create below replaces the analyzer.
		log.Warn("delete analyzer failed", zap.Error(err))
	} else {
		log.Info("analyzer deleted", zap.Bool("existed", deleted))
	}

	if err := e.client.CreateAnalyzer(ctx, e.opts.AnalyzerID, def); err != nil {
		return eris.Wrap(err, "evaluate: create analyzer")
	}
	log.Info("analyzer created", zap.String("processing_location", def.ProcessingLocation))
	return nil
}

// processAll analyzes docs with bounded concurrency. Outcomes keep input
// order. The first error cancels the remaining documents.
func (e *Evaluator) processAll(ctx context.Context, log *zap.Logger, dir string, docs []dataset.Document) ([]documentOutcome, error) {
	outcomes := make([]documentOutcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			o, err := e.processDocument(gctx, log.With(zap.String("document", doc.Name)), dir, doc)
			if err != nil {
				return eris.Wrapf(err, "evaluate: document %s", doc.Name)
			}
			outcomes[i] = o
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (e *Evaluator) processDocument(ctx context.Context, log *zap.Logger, dir string, doc dataset.Document) (documentOutcome, error) {
	var out documentOutcome

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return out, eris.Wrap(err, "read document")
	}

	log.Info("upload started", zap.Int("bytes", len(data)))
	location, err := e.client.AnalyzeBinary(ctx, e.opts.AnalyzerID, data)
	if err != nil {
		return out, err
	}
	log.Info("analysis started", zap.String("operation", location))

	opts := append([]cu.PollOption{
		cu.WithStatusHook(func(s model.OperationStatus) {
			log.Debug("analysis pending", zap.String("status", string(s)))
		}),
	}, e.opts.Poll...)
	op, err := cu.PollOperation(ctx, e.client, location, opts...)
	if err != nil {
		return out, err
	}

	if _, err := report.SaveRaw(dir, doc.Name, op.Raw); err != nil {
		return out, err
	}

	result, err := model.ParseAnalysisResult(op.Raw)
	if err != nil {
		return out, err
	}

	costs := e.calc.Document(result.Usage, e.opts.Mode)
	out.cost = cost.DocumentCost{Document: doc.Name, Usage: result.Usage, Costs: costs}
	out.record = model.DocumentRecord{
		Document:      doc.Name,
		Pages:         result.Usage.DocumentPages,
		InputTokens:   result.Usage.Tokens.Input,
		OutputTokens:  result.Usage.Tokens.Output,
		ContextTokens: result.Usage.Tokens.Contextualization,
		Cost:          costs.Total(),
	}
	log.Info("cost computed",
		zap.Float64("cost", costs.Total()),
		zap.Int("pages", result.Usage.DocumentPages),
		zap.Int("tokens", result.Usage.Tokens.Total()),
	)

	truth, err := dataset.LoadGroundTruth(e.opts.TestDataDir, doc)
	if err != nil {
		return out, err
	}
	if truth == nil {
		log.Info("no ground truth; cost only")
		return out, nil
	}

	fields, err := result.Fields()
	if err != nil {
		return out, err
	}
	accuracy, sheet := scorer.ScoreDocument(doc.Name, fields, truth)
	out.sheet = &sheet
	out.record.Accuracy = &accuracy

	log.Info("document scored", zap.Float64("accuracy", accuracy), zap.Int("fields", len(sheet.Fields)))
	for _, name := range sheet.FieldNames() {
		fs := sheet.Fields[name]
		if fs.Status == model.FieldFail {
			log.Debug("field mismatch",
				zap.String("field", name),
				zap.String("expected", scorer.StringForm(fs.Expected)),
				zap.String("actual", scorer.StringForm(fs.Actual)),
			)
		}
	}
	return out, nil
}

func (e *Evaluator) fail(ctx context.Context, log *zap.Logger, runID string, cause error) {
	log.Error("evaluation run failed", zap.Error(cause))
	if e.store == nil || runID == "" {
		return
	}
	// The run context may already be cancelled; record the failure regardless.
	if err := e.store.FailRun(context.WithoutCancel(ctx), runID, cause.Error()); err != nil {
		log.Warn("record run failure", zap.Error(err))
	}
}
